package types

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	appErr "github.com/govbuilder/engine/pkg/errors"
)

func FromAppError(err error) *APIError {
	if err == nil {
		return nil
	}
	var e *appErr.AppError
	if errors.As(err, &e) {
		return &APIError{Code: string(e.Code), Message: e.Message, Details: details(e.Meta)}
	}
	return &APIError{Code: string(appErr.CodeUnknown), Message: err.Error()}
}

// StatusFor maps an error code to the HTTP status the API answers with.
func StatusFor(err error) int {
	switch appErr.CodeOf(err) {
	case appErr.CodeNotAProject, appErr.CodeNotFound:
		return http.StatusNotFound
	case appErr.CodeValidation:
		return http.StatusUnprocessableEntity
	case appErr.CodeConfiguration:
		return http.StatusPreconditionFailed
	case appErr.CodeConflict, appErr.CodeAlreadyExists:
		return http.StatusConflict
	case appErr.CodeInvalid, appErr.CodeDecode:
		return http.StatusBadRequest
	case appErr.CodeUnauthorized:
		return http.StatusUnauthorized
	case appErr.CodeUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func details(meta map[string]any) string {
	if len(meta) == 0 {
		return ""
	}
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, meta[k]))
	}
	return strings.Join(parts, " ")
}
