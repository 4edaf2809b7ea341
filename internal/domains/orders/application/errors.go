package application

import (
	"errors"
	"fmt"

	"github.com/onlinemarketplace/order-orchestrator/internal/domains/orders/domain"
)

var (
	// ErrInvalidInput signals the request violated a domain invariant and
	// was rejected before any resource was touched.
	ErrInvalidInput = errors.New("invalid order input")
	// ErrOrderNotFound signals no order exists for the given id.
	ErrOrderNotFound = errors.New("order not found")
	// ErrAlreadyCancelled signals a repeated cancellation attempt.
	ErrAlreadyCancelled = errors.New("order already cancelled")
	// ErrCollaboratorFault signals a stock or wallet call kept failing past
	// the retry budget. The pending compensation is journaled for the
	// reconciler before this is returned.
	ErrCollaboratorFault = errors.New("collaborator fault")
)

func mapValidationError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrInvalidUserID) ||
		errors.Is(err, domain.ErrInvalidProductID) ||
		errors.Is(err, domain.ErrInvalidQuantity) ||
		errors.Is(err, domain.ErrEmptyItems) ||
		errors.Is(err, domain.ErrInvalidStatus) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
