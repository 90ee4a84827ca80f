// Package errors normalizes errors into stable, low-cardinality tag values
// for metrics and logs.
package errors

import (
	goerrors "errors"
	"reflect"
	"strings"

	apperrors "github.com/oakmont/portal-api/internal/errors"
)

// Classify returns an error tag suitable for metric dimensions. Application
// errors map straight to their code (provider_error, silent_auth_required,
// directory_error, ...), so the auth failure counters carry the same
// vocabulary as the HTTP error responses and the audit trail. Anything else
// falls back to the innermost concrete type name in snake_case.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	if code := apperrors.GetCode(err); code != "" {
		return string(code)
	}

	// Unwrap to the innermost error for better signal.
	for {
		unwrapped := goerrors.Unwrap(err)
		if unwrapped == nil {
			break
		}
		err = unwrapped
	}

	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}

	name := strings.ToLower(strings.ReplaceAll(t.String(), "*", ""))
	name = strings.ReplaceAll(name, ".", "_")
	if name == "" {
		return "unknown"
	}
	return name
}
