package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"BakeryStore/internal/auth"
	"BakeryStore/internal/controller/apperror"
	"BakeryStore/internal/domain/catalog"
	"BakeryStore/internal/domain/user"
)

// StatusOf maps an error category to its HTTP status.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrCapacity), errors.Is(err, apperror.ErrGuardViolation):
		return http.StatusConflict
	case errors.Is(err, apperror.ErrVerificationMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(err error) gin.H {
	body := gin.H{"error": err.Error()}
	if ce, ok := catalog.AsCapacityError(err); ok {
		body["product_id"] = ce.ProductID
		body["in_basket"] = ce.InBasket
		body["requested"] = ce.Requested
		body["available"] = ce.Available
	}
	return body
}

func writeError(c *gin.Context, err error) {
	status := StatusOf(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, errorBody(err))
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
}

// actor returns the caller, or writes 401 and reports false.
func actor(c *gin.Context) (user.Actor, bool) {
	a, ok := auth.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
	}
	return a, ok
}
