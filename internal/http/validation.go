package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

const (
	requiredTag  = "required"
	requiredText = "{0} is required"

	dateTag  = "date"
	dateText = "{0} must be a date formatted as YYYY-MM-DD"
)

// Validator checks request bodies and renders failures in English.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

func NewValidator() *Validator {
	english := en.New()
	translator, _ := ut.New(english, english).GetTranslator("en")

	validate := validator.New(validator.WithRequiredStructEnabled())
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	validate.RegisterAlias(dateTag, "datetime=2006-01-02")
	registerTranslation(validate, translator, dateTag, dateText)
	registerTranslation(validate, translator, requiredTag, requiredText)

	return &Validator{
		validate:   validate,
		translator: translator,
	}
}

func registerTranslation(validate *validator.Validate, translator ut.Translator, tag, text string) {
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// ValidationError maps field names to messages.
type ValidationError map[string]string

func (e ValidationError) Error() string {
	parts := make([]string, 0, len(e))
	for field, message := range e {
		parts = append(parts, field+": "+message)
	}
	return strings.Join(parts, "; ")
}

func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		out := make(ValidationError, len(errs))
		for _, fe := range errs {
			out[fe.Field()] = fe.Translate(v.translator)
		}
		return out
	}
	return err
}

// Var validates a single value, such as a path parameter.
func (v *Validator) Var(field string, value any, tag string) error {
	err := v.validate.Var(value, tag)
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		out := make(ValidationError, len(errs))
		for _, fe := range errs {
			out[field] = strings.TrimSpace(fe.Translate(v.translator))
		}
		return out
	}
	return err
}

// Decode reads a JSON body into dst and validates it.
func (v *Validator) Decode(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return ValidationError{"body": fmt.Sprintf("invalid json: %s", err)}
	}
	return v.Struct(dst)
}
