package formstate

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// ErrInvalidInput is wrapped by every ValidationError.
var ErrInvalidInput = errors.New("invalid input")

// FieldError is used to indicate an error with a specific form field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// ValidationError lists every field that failed parsing or bounds checks.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrInvalidInput.Error()
	}
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Error)
	}
	return ErrInvalidInput.Error() + ": " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// Field returns the message for name, or "" when that field is valid.
func (e *ValidationError) Field(name string) string {
	for _, f := range e.Fields {
		if f.Field == name {
			return f.Error
		}
	}
	return ""
}

var (
	validate   *validator.Validate
	translator ut.Translator
)

func init() {
	validate = validator.New()

	// Register the english error messages for validation errors.
	english := en.New()
	uni := ut.New(english, english)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Check validates v against its `validate` struct tags and returns a
// *ValidationError listing every failing field.
func Check(v any) error {
	if err := validate.Struct(v); err != nil {
		return &ValidationError{Fields: fieldErrors(err)}
	}
	return nil
}

// fieldErrors converts validator output into FieldErrors keyed by form path,
// for example "courses[0].credit".
func fieldErrors(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "", Error: err.Error()}}
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		name := fe.Namespace()
		if _, rest, ok := strings.Cut(name, "."); ok {
			name = rest
		}
		out = append(out, FieldError{Field: name, Error: fe.Translate(translator)})
	}
	return out
}
