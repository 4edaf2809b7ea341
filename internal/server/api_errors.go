package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	ordersapp "github.com/onlinemarketplace/order-orchestrator/internal/domains/orders/application"
	ordersports "github.com/onlinemarketplace/order-orchestrator/internal/domains/orders/ports"
	apierrors "github.com/onlinemarketplace/order-orchestrator/internal/shared/errors"
)

// orderResponder maps orchestrator errors to RFC 7807 problems.
var orderResponder = apierrors.NewChainedResponder("", mapOrderError)

func mapOrderError(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, ordersapp.ErrInvalidInput):
		return apierrors.ErrValidation.WithDetail(err.Error()), true
	case errors.Is(err, ordersports.ErrInsufficientStock):
		return apierrors.ErrBadRequest.WithDetail(err.Error()), true
	case errors.Is(err, ordersports.ErrInsufficientFunds):
		return apierrors.ErrBadRequest.WithDetail(err.Error()), true
	case errors.Is(err, ordersapp.ErrAlreadyCancelled):
		return apierrors.ErrBadRequest.WithDetail(err.Error()), true
	case errors.Is(err, ordersapp.ErrOrderNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()), true
	case errors.Is(err, ordersapp.ErrCollaboratorFault):
		return apierrors.ErrInternal.WithDetail(err.Error()), true
	default:
		return apierrors.ProblemDetail{}, false
	}
}

// respondOrderServiceError renders orchestrator failures for read paths:
// unknown orders are 404, rejected requests are 400, faults are 500.
func respondOrderServiceError(c *gin.Context, err error) {
	orderResponder.RespondError(c, err)
}

// respondCancelError renders cancellation failures. The boundary contract
// folds "not found" and "already cancelled" into the same client-error code
// for cancels, unlike reads.
func respondCancelError(c *gin.Context, err error) {
	if errors.Is(err, ordersapp.ErrOrderNotFound) {
		orderResponder.Respond(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	orderResponder.RespondError(c, err)
}

// respondError preserves plain status responses while returning RFC 7807 bodies.
func respondError(c *gin.Context, status int, err error) {
	if err == nil {
		return
	}
	var problem apierrors.ProblemDetail
	switch status {
	case http.StatusBadRequest:
		problem = apierrors.ErrBadRequest.WithDetail(err.Error())
	case http.StatusNotFound:
		problem = apierrors.ErrNotFound.WithDetail(err.Error())
	default:
		problem = apierrors.ErrInternal.WithDetail(err.Error())
	}
	apierrors.Respond(c, problem)
}

func errInvalidID(name, raw string) error {
	return fmt.Errorf("path parameter %s must be a positive integer, got %q", name, raw)
}
