package validators

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"reflect"
	"strings"

	pkgerrors "github.com/bikebuddy/bikebuddy-backend/pkg/errors"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
)

const maxBodyBytes = 1 << 20

var (
	validate    = newValidator()
	formDecoder = newFormDecoder()
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	return v
}

func newFormDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

// DecodeRequest fills dest from a JSON or form-encoded body, sanitizes the
// fields tagged `sanitize:"text"` and runs struct validation.
func DecodeRequest(r *http.Request, dest any) error {
	if IsJSON(r) {
		return DecodeJSONBody(r, dest)
	}
	return DecodeFormBody(r, dest)
}

// IsJSON reports whether the request body is declared as JSON.
func IsJSON(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

func DecodeJSONBody(r *http.Request, dest any) error {
	defer func() {
		io.Copy(io.Discard, r.Body)
	}()
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body").WithDetails(map[string]any{"error": err.Error()})
	}
	return finish(dest)
}

// DecodeFormBody decodes an application/x-www-form-urlencoded (or query only) request.
func DecodeFormBody(r *http.Request, dest any) error {
	if r.Body != nil {
		r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	}
	if err := r.ParseForm(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid form body")
	}
	if err := formDecoder.Decode(dest, r.Form); err != nil {
		return formatSchemaErrors(err)
	}
	return finish(dest)
}

func finish(dest any) error {
	sanitizeTagged(reflect.ValueOf(dest))
	if err := validate.Struct(dest); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

func sanitizeTagged(v reflect.Value) {
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := v.Field(i)
		if !field.CanSet() {
			continue
		}
		if t.Field(i).Tag.Get("sanitize") != "text" {
			if field.Kind() == reflect.Struct {
				sanitizeTagged(field.Addr())
			}
			continue
		}
		switch {
		case field.Kind() == reflect.String:
			field.SetString(SanitizeText(field.String()))
		case field.Kind() == reflect.Pointer && !field.IsNil() && field.Elem().Kind() == reflect.String:
			field.Elem().SetString(SanitizeText(field.Elem().String()))
		}
	}
}

func formatSchemaErrors(err error) *pkgerrors.Error {
	details := map[string]string{}
	if multi, ok := err.(schema.MultiError); ok {
		for field, fieldErr := range multi {
			if conv, ok := fieldErr.(schema.ConversionError); ok {
				details[conv.Key] = "is invalid"
				continue
			}
			details[field] = "is invalid"
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid form body")
}

func formatValidationErrors(err error) *pkgerrors.Error {
	if errs, ok := err.(validator.ValidationErrors); ok {
		details := map[string]string{}
		for _, fieldErr := range errs {
			details[fieldErr.Field()] = validationMessage(fieldErr)
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "email":
		return "must be a valid email"
	case "url":
		return "must be a valid url"
	case "alphanumunicode":
		return "may only contain letters and digits"
	}
	return "is invalid"
}
