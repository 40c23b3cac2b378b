package domain

import "time"

// Kind discriminates the node variants. Control flow depends on it:
// AI messages auto-advance, all other kinds halt for user input.
const (
	// KindAIMessage displays content after a typing delay and continues.
	KindAIMessage = "ai_message"
	// KindInput requests a single text/number/textarea value.
	KindInput = "input"
	// KindChoice presents a fixed set of options, each with its own successor.
	KindChoice = "choice"
	// KindMultiInput presents a multi-field form with a single successor.
	KindMultiInput = "multi_input"
)

// InputKind defines the widget requested for an input or form field.
const (
	InputText     = "text"
	InputNumber   = "number"
	InputTextarea = "textarea"
	InputSelect   = "select"
)

// Node is one unit of scripted content in the dialogue graph.
// The Kind field selects the variant; variant-specific configuration lives
// in the optional blocks below and is ignored for other kinds.
type Node struct {
	ID      string `json:"id" yaml:"id"`
	Kind    string `json:"type" yaml:"type"`
	Speaker string `json:"speaker,omitempty" yaml:"speaker,omitempty"`

	// Content is the raw message template ({{ expression }} spans allowed).
	Content string `json:"content" yaml:"content"`

	// NextNode is the default successor. Empty means the conversation ends
	// here unless a conditional successor or option provides one.
	NextNode string `json:"nextNode,omitempty" yaml:"nextNode,omitempty"`

	// AI message configuration.
	DelayMillis  int    `json:"delay,omitempty" yaml:"delay,omitempty"`
	IsChapterEnd bool   `json:"isChapterEnd,omitempty" yaml:"isChapterEnd,omitempty"`
	NextChapter  string `json:"nextChapter,omitempty" yaml:"nextChapter,omitempty"`

	// Input configuration.
	InputKind    string       `json:"inputType,omitempty" yaml:"inputType,omitempty"`
	Placeholder  string       `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	HelperText   string       `json:"helperText,omitempty" yaml:"helperText,omitempty"`
	Validation   *Validation  `json:"validation,omitempty" yaml:"validation,omitempty"`
	SetsVariable string       `json:"setsVariable,omitempty" yaml:"setsVariable,omitempty"`
	Conditional  []CondNext   `json:"conditionalNext,omitempty" yaml:"conditionalNext,omitempty"`
	Compute      *ComputeSpec `json:"computeVariable,omitempty" yaml:"computeVariable,omitempty"`

	// Choice configuration.
	Options []ChoiceOption `json:"options,omitempty" yaml:"options,omitempty"`

	// Multi-input configuration.
	Fields []FormField `json:"inputs,omitempty" yaml:"inputs,omitempty"`
}

// Delay returns the typing-indicator duration for AI message nodes.
func (n Node) Delay() time.Duration {
	return time.Duration(n.DelayMillis) * time.Millisecond
}

// Option returns the choice option with the given id.
func (n Node) Option(id string) (ChoiceOption, bool) {
	for _, opt := range n.Options {
		if opt.ID == id {
			return opt, true
		}
	}
	return ChoiceOption{}, false
}

// CondNext is a conditional successor: the first condition that evaluates
// true (in declaration order) determines navigation.
type CondNext struct {
	Condition string `json:"condition" yaml:"condition"`
	NextNode  string `json:"nextNode" yaml:"nextNode"`
}

// ComputeSpec derives a variable from an authored expression when the node
// is processed.
type ComputeSpec struct {
	Name  string `json:"name" yaml:"name"`
	Logic string `json:"logic" yaml:"logic"`
}

// ChoiceOption is one selectable answer. Label is what the user sees (and
// what the message log records); Value is what the variable store receives.
type ChoiceOption struct {
	ID       string `json:"id" yaml:"id"`
	Label    string `json:"label" yaml:"label"`
	Value    string `json:"value" yaml:"value"`
	NextNode string `json:"nextNode" yaml:"nextNode"`
}

// FormField describes one field of a multi-input form.
type FormField struct {
	ID           string        `json:"id" yaml:"id"`
	Label        string        `json:"label" yaml:"label"`
	InputKind    string        `json:"inputType" yaml:"inputType"`
	Placeholder  string        `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	SetsVariable string        `json:"setsVariable" yaml:"setsVariable"`
	Required     bool          `json:"required,omitempty" yaml:"required,omitempty"`
	Options      []FieldOption `json:"options,omitempty" yaml:"options,omitempty"`
}

// FieldOption is an entry for select-kind form fields.
type FieldOption struct {
	Label string `json:"label" yaml:"label"`
	Value any    `json:"value" yaml:"value"`
}

// Validation holds the declarative constraints for an input node.
// Pointer fields distinguish "unset" from zero.
type Validation struct {
	Required  bool     `json:"required,omitempty" yaml:"required,omitempty"`
	MinLength *int     `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	Min       *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max       *float64 `json:"max,omitempty" yaml:"max,omitempty"`
}
