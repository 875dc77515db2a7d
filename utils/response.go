package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// Validate checks `validate` struct tags on request bodies. Errors name fields by their JSON key.
var Validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidationMessage turns the first validation failure into a client message
func ValidationMessage(err error) string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return "Invalid input"
	}
	fe := errs[0]
	if fe.Tag() == "required" {
		return fmt.Sprintf("%s is required", fe.Field())
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}

// RespondJSON writes v as a JSON body with the given status
func RespondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Warn("Failed to encode response")
	}
}

// RespondMessage writes a {message} body, used for plain acknowledgements
func RespondMessage(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, map[string]any{"message": message})
}

// RespondError writes the uniform {message} error body
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondMessage(w, status, message)
}

// MaxBodyBytes caps JSON request bodies
const MaxBodyBytes = 100 << 10

// DecodeJSON reads at most MaxBodyBytes of the request body into dst
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes)).Decode(dst)
}
