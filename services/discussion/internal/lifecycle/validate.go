package lifecycle

import (
	"errors"
	"fmt"
	"html"
	"reflect"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

const DefaultMaxBodyLength = 10000

// ValidationError carries field-level messages for rejected input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

type commentInput struct {
	Body string `json:"body" validate:"visible,maxrunes"`
}

// BodyValidator checks comment bodies. A body made only of markup or
// whitespace counts as blank.
type BodyValidator struct {
	validate *validator.Validate
	strip    *bluemonday.Policy
	maxLen   int
}

func NewBodyValidator(maxLen int) *BodyValidator {
	if maxLen <= 0 {
		maxLen = DefaultMaxBodyLength
	}
	b := &BodyValidator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		strip:    bluemonday.StrictPolicy(),
		maxLen:   maxLen,
	}
	b.validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = b.validate.RegisterValidation("visible", func(fl validator.FieldLevel) bool {
		return b.visibleText(fl.Field().String()) != ""
	})
	_ = b.validate.RegisterValidation("maxrunes", func(fl validator.FieldLevel) bool {
		return utf8.RuneCountInString(fl.Field().String()) <= b.maxLen
	})
	return b
}

func (b *BodyValidator) visibleText(body string) string {
	return strings.TrimSpace(html.UnescapeString(b.strip.Sanitize(body)))
}

// Validate returns nil when body is acceptable.
func (b *BodyValidator) Validate(body string) *ValidationError {
	err := b.validate.Struct(commentInput{Body: body})
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Fields: map[string]string{"body": err.Error()}}
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = b.message(fe.Tag())
	}
	return &ValidationError{Fields: fields}
}

func (b *BodyValidator) message(tag string) string {
	switch tag {
	case "visible":
		return "must not be blank"
	case "maxrunes":
		return fmt.Sprintf("must be at most %d characters", b.maxLen)
	default:
		return "is invalid"
	}
}
