// Package httpjson holds the JSON request/response helpers shared by the HTTP handlers.
package httpjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

type ErrorResponse struct {
	Detail string `json:"detail"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("maxbytes", maxBytes); err != nil {
		panic(err)
	}
	return v
}

// maxBytes limits the encoded length of a string, unlike max which counts runes.
func maxBytes(fl validator.FieldLevel) bool {
	n, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= n
}

// Normalizer is implemented by request types that clean up their fields
// (trimming, case folding) before validation runs.
type Normalizer interface {
	Normalize()
}

func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func Error(w http.ResponseWriter, status int, detail string) {
	Write(w, status, ErrorResponse{Detail: detail})
}

// Bind decodes the request body into v, normalizes it when v is a Normalizer,
// and validates it. On failure it writes 400 for unreadable JSON or 422 for a
// validation error and returns false.
func Bind(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if n, ok := v.(Normalizer); ok {
		n.Normalize()
	}
	if err := Validate(v); err != nil {
		Error(w, http.StatusUnprocessableEntity, err.Error())
		return false
	}
	return true
}

// Validate runs the struct's `validate` tags and reports the first failing field.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fieldError(verrs[0])
	}
	return err
}

func fieldError(fe validator.FieldError) error {
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s: field required", fe.Field())
	case "email":
		return fmt.Errorf("%s: value is not a valid email address", fe.Field())
	case "min":
		return fmt.Errorf("%s: must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Errorf("%s: must be at most %s characters", fe.Field(), fe.Param())
	case "maxbytes":
		return fmt.Errorf("%s: must be at most %s bytes", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Errorf("%s: must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Errorf("%s: failed on %q", fe.Field(), fe.Tag())
	}
}
