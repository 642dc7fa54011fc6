package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"trendhub/internal/apperr"
	"trendhub/internal/store"
)

func handlePanic(c *gin.Context, route string) {
	if r := recover(); r != nil {
		zap.L().Error("panic recovered", zap.String("route", route), zap.Any("panic", r))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func respondWithError(c *gin.Context, status int, route string, message string) {
	zap.L().Warn("returning error",
		zap.String("route", route),
		zap.Int("status", status),
		zap.String("error", message),
	)
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrAccountLocked):
		return http.StatusLocked
	case errors.Is(err, apperr.ErrSiteUnavailable):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// respondWithAppError renders err with its mapped status. Unmapped errors are
// logged in full and hidden from the client.
func respondWithAppError(c *gin.Context, route string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		zap.L().Error("request failed", zap.String("route", route), zap.Error(err))
		c.AbortWithStatusJSON(status, gin.H{"error": "internal server error"})
		return
	}
	respondWithError(c, status, route, err.Error())
}

// bindJSON decodes the body and renders validation failures field by field.
func bindJSON(c *gin.Context, route string, out any) bool {
	err := c.ShouldBindJSON(out)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, describeField(fe))
		}
		respondWithError(c, http.StatusBadRequest, route, "validation failed: "+strings.Join(fields, "; "))
		return false
	}
	respondWithError(c, http.StatusBadRequest, route, "invalid body: "+err.Error())
	return false
}

func describeField(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "email":
		return fe.Field() + " must be a valid email"
	case "url":
		return fe.Field() + " must be a valid url"
	}
	return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
}

func idParam(c *gin.Context, route, name string) (primitive.ObjectID, bool) {
	id, err := store.ParseID(c.Param(name))
	if err != nil {
		respondWithError(c, http.StatusBadRequest, route, "invalid id")
		return primitive.NilObjectID, false
	}
	return id, true
}

func errInvalid(message string) error {
	return fmt.Errorf("%w: %s", apperr.ErrInvalidArgument, message)
}
