package certificate

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrNotFound is returned when a certificate does not exist or belongs to another tenant.
var ErrNotFound = errors.New("certificate not found")

// ValidationError reports malformed input. Nothing was checked against quota or written.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	var verrs validator.ValidationErrors
	if errors.As(e.Err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, strings.ToLower(fe.Field())+" ("+fe.Tag()+")")
		}
		return "invalid certificate: " + strings.Join(fields, ", ")
	}
	return "invalid certificate: " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
