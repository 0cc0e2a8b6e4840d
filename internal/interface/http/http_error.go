package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yanqian/flat-price/pkg/errors"
)

// HTTPError captures the metadata required to serialize an error response consistently.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// NewHTTPError is a helper to build an HTTPError instance.
func NewHTTPError(status int, code, message string, err error) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message, Err: err}
}

func asHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return &HTTPError{
		Status:  http.StatusInternalServerError,
		Code:    "internal_error",
		Message: "something went wrong",
		Err:     err,
	}
}

// fromAppError maps domain error codes onto HTTP statuses. Codes without a mapping
// become 500 with fallbackCode.
func fromAppError(err error, fallbackCode string) *HTTPError {
	code := apperrors.CodeOf(err)
	switch code {
	case apperrors.CodeInvalidInput, apperrors.CodeMissingFields:
		return NewHTTPError(http.StatusBadRequest, code, errMessage(err), err)
	case apperrors.CodeSubmissionInFlight:
		return NewHTTPError(http.StatusConflict, code, errMessage(err), err)
	case apperrors.CodeInferenceFailed, apperrors.CodePredictionFailed:
		return NewHTTPError(http.StatusBadGateway, code, errMessage(err), err)
	case apperrors.CodeSessionError, apperrors.CodeHistoryError:
		return NewHTTPError(http.StatusServiceUnavailable, code, errMessage(err), err)
	}
	return NewHTTPError(http.StatusInternalServerError, fallbackCode, errMessage(err), err)
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return err.Error()
}

func abortWithError(c *gin.Context, err *HTTPError) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}
