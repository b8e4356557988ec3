package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	commissiondomain "github.com/smallbiznis/netcontrib/internal/commission/domain"
	"github.com/smallbiznis/netcontrib/internal/netcontribution/client"
	netcontributiondomain "github.com/smallbiznis/netcontrib/internal/netcontribution/domain"
	paymententrydomain "github.com/smallbiznis/netcontrib/internal/paymententry/domain"
	salesinvoicedomain "github.com/smallbiznis/netcontrib/internal/salesinvoice/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	// A remote failure from the recalculation procedure carries the
	// most specific message the payload offered.
	var remote *client.RemoteError
	if errors.As(err, &remote) {
		return http.StatusBadGateway, errorPayload{
			Type:    "remote_error",
			Message: remote.Message,
		}
	}

	switch {
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, paymententrydomain.ErrEntryImmutable),
		errors.Is(err, netcontributiondomain.ErrBatchInProgress):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case errors.Is(err, netcontributiondomain.ErrEndpointNotConfigured):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: err.Error(),
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, paymententrydomain.ErrInvalidRequest),
		errors.Is(err, paymententrydomain.ErrNameRequired),
		errors.Is(err, netcontributiondomain.ErrEmptySelection),
		errors.Is(err, netcontributiondomain.ErrNoReceiveEntries),
		errors.Is(err, netcontributiondomain.ErrEntryNotSubmitted),
		errors.Is(err, netcontributiondomain.ErrEntryNotReceive),
		errors.Is(err, commissiondomain.ErrFromDateRequired),
		errors.Is(err, commissiondomain.ErrToDateRequired),
		errors.Is(err, commissiondomain.ErrDateRange):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, paymententrydomain.ErrNotFound),
		errors.Is(err, paymententrydomain.ErrRowNotFound),
		errors.Is(err, salesinvoicedomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}
