package chapter

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed all:schemas
var schemaFS embed.FS

// SchemaError is a single structural problem found in a chapter document.
type SchemaError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (e SchemaError) String() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// SchemaErrors is the error returned when a document fails schema
// validation. It carries every leaf failure, not just the first.
type SchemaErrors []SchemaError

func (es SchemaErrors) Error() string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.String()
	}
	return "chapter schema: " + strings.Join(parts, "; ")
}

// Validator checks parsed chapter documents against the embedded JSON
// Schema before they are decoded into domain types.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles the embedded schema files.
func NewValidator() (*Validator, error) {
	c := jsonschema.NewCompiler()

	err := fs.WalkDir(schemaFS, "schemas", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}

		data, err := schemaFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read embedded schema %s: %w", path, err)
		}
		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parse embedded schema %s: %w", path, err)
		}

		id := strings.TrimPrefix(path, "schemas/")
		if err := c.AddResource(id, doc); err != nil {
			return fmt.Errorf("add schema resource %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load embedded schemas: %w", err)
	}

	schema, err := c.Compile("chapter.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile chapter schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// ValidateDocument checks an already-parsed document. A nil return means
// the document is structurally valid.
func (v *Validator) ValidateDocument(doc any) error {
	err := v.schema.Validate(doc)
	if err == nil {
		return nil
	}

	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return SchemaErrors{{Message: err.Error()}}
	}
	return SchemaErrors(collectErrors(verr))
}

// collectErrors flattens a validation error tree into its leaf failures.
func collectErrors(ve *jsonschema.ValidationError) []SchemaError {
	path := "/" + strings.Join(ve.InstanceLocation, "/")
	if len(ve.InstanceLocation) == 0 {
		path = ""
	}

	if len(ve.Causes) == 0 {
		return []SchemaError{{Path: path, Message: ve.Error()}}
	}

	var out []SchemaError
	for _, cause := range ve.Causes {
		out = append(out, collectErrors(cause)...)
	}
	return out
}
