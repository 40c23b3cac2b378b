package expr

import (
	"regexp"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// span pattern is non-greedy: arbitrary expression text between delimiters.
var spanPattern = regexp.MustCompile(`\{\{(.*?)\}\}`)

// Renderer substitutes {{ expression }} spans in message templates.
// Numeric results are rendered with locale-aware grouping separators;
// nil/undefined results render as the empty string. Evaluation failures also
// substitute the empty string: templating must degrade gracefully, content
// is externally authored and may contain typos.
type Renderer struct {
	printer *message.Printer

	// OnError, when set, observes each failed span (for logging/metrics).
	OnError func(expression string, err error)
}

// NewRenderer creates a Renderer. The locale is fixed: localization is out
// of scope, the separator behavior is what matters.
func NewRenderer() *Renderer {
	return &Renderer{printer: message.NewPrinter(language.English)}
}

// Render resolves every template span against the variable snapshot. Text
// outside the delimiters, including line breaks, passes through untouched.
func (r *Renderer) Render(template string, vars map[string]any) string {
	return spanPattern.ReplaceAllStringFunc(template, func(span string) string {
		expression := span[2 : len(span)-2]
		v, err := Eval(expression, vars)
		if err != nil {
			if r.OnError != nil {
				r.OnError(expression, err)
			}
			return ""
		}
		return r.display(v)
	})
}

func (r *Renderer) display(v any) string {
	if f, ok := v.(float64); ok {
		return r.printer.Sprint(number.Decimal(f))
	}
	return Stringify(v)
}
