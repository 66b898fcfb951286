package httpx

import (
	"encoding/json"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	perr "torrenthealth/internal/platform/errors"
)

var (
	vOnce sync.Once
	v     *validator.Validate
)

// Validator returns the process-wide validator, configured to use json
// tag names in failure messages
func Validator() *validator.Validate {
	vOnce.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("json")
			if tag == "-" || tag == "" {
				return fld.Name
			}
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			return tag
		})
	})
	return v
}

const maxBodyBytes = 1 << 20

// ParseJSON decodes the request body into T, validates it, and maps
// failures to project errors
func ParseJSON[T any](r *http.Request) (T, error) {
	var dst T
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&dst); err != nil {
		var zero T
		return zero, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "invalid JSON body")
	}

	if err := Validator().Struct(dst); err != nil {
		var zero T
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return zero, perr.Newf(perr.ErrorCodeValidation, "%s failed %s validation", fe.Field(), fe.Tag())
		}
		return zero, perr.Wrapf(err, perr.ErrorCodeValidation, "validation error")
	}
	return dst, nil
}
