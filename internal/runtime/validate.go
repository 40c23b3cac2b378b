package runtime

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/parleyhq/parley/pkg/domain"
	"github.com/parleyhq/parley/pkg/expr"
)

// ValidationError reports the first declarative constraint a submitted
// value failed.
type ValidationError struct {
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ValidateInput checks a candidate value against an input node's declared
// constraints, in order, short-circuiting at the first failure: required,
// minimum length, maximum length, numeric minimum, numeric maximum. A
// failing check must keep the caller from invoking submit at all; the
// engine itself does not re-validate.
func ValidateInput(node domain.Node, value any) error {
	v := node.Validation
	if v == nil {
		return nil
	}

	text := expr.Stringify(value)
	if v.Required && strings.TrimSpace(text) == "" {
		return &ValidationError{Rule: "required", Message: "a value is required"}
	}
	if text == "" {
		return nil
	}

	length := utf8.RuneCountInString(text)
	if v.MinLength != nil && length < *v.MinLength {
		return &ValidationError{Rule: "minLength", Message: fmt.Sprintf("must be at least %d characters", *v.MinLength)}
	}
	if v.MaxLength != nil && length > *v.MaxLength {
		return &ValidationError{Rule: "maxLength", Message: fmt.Sprintf("must be at most %d characters", *v.MaxLength)}
	}

	// Numeric bounds apply when the value is a number or numeric-looking.
	num, isNum := numericValue(value)
	if !isNum {
		return nil
	}
	if v.Min != nil && num < *v.Min {
		return &ValidationError{Rule: "min", Message: fmt.Sprintf("must be at least %s", formatBound(*v.Min))}
	}
	if v.Max != nil && num > *v.Max {
		return &ValidationError{Rule: "max", Message: fmt.Sprintf("must be at most %s", formatBound(*v.Max))}
	}
	return nil
}

// ValidateField checks one multi-input form field (required flag only;
// fields carry no length or range constraints).
func ValidateField(field domain.FormField, value any) error {
	if field.Required && strings.TrimSpace(expr.Stringify(value)) == "" {
		return &ValidationError{Rule: "required", Message: field.Label + " is required"}
	}
	return nil
}

func numericValue(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

func formatBound(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
