package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"product-api/internal/domain"
)

// MaxBodyBytes caps request bodies
const MaxBodyBytes = 1 << 20

// ErrInvalidBody is returned for bodies that are not a single well-typed JSON object
var ErrInvalidBody = domain.Validation("invalid request body")

// DecodeJSON decodes exactly one JSON value from the request body into v.
// Syntax errors, type mismatches and trailing data are reported as validation errors.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return bodyError(err)
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return ErrInvalidBody
	}

	return nil
}

func bodyError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		msg := fmt.Sprintf("must be a %s", jsonTypeName(typeErr.Type.String()))
		return domain.Validation(typeErr.Field+": "+msg,
			domain.FieldError{Field: typeErr.Field, Message: msg},
		)
	}
	return &domain.Error{Kind: domain.KindValidation, Message: ErrInvalidBody.Message, Err: err}
}

func jsonTypeName(goType string) string {
	switch goType {
	case "float64":
		return "number"
	case "bool":
		return "boolean"
	default:
		return goType
	}
}
