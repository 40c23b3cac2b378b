// Package chapter loads dialogue chapters from JSON and YAML documents,
// validating them against an embedded JSON Schema before handing domain
// types to the engine.
package chapter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/parleyhq/parley/pkg/domain"
)

var (
	validatorOnce sync.Once
	validator     *Validator
	validatorErr  error
)

func sharedValidator() (*Validator, error) {
	validatorOnce.Do(func() {
		validator, validatorErr = NewValidator()
	})
	return validator, validatorErr
}

// Decode parses a JSON chapter document.
func Decode(data []byte) (*domain.Chapter, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse chapter JSON: %w", err)
	}
	return fromDocument(doc)
}

// DecodeYAML parses a YAML chapter document.
func DecodeYAML(data []byte) (*domain.Chapter, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse chapter YAML: %w", err)
	}
	return fromDocument(doc)
}

// DecodeFile loads a chapter from disk, selecting the parser by extension.
// Anything that is not .json is treated as YAML.
func DecodeFile(path string) (*domain.Chapter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chapter file: %w", err)
	}
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		return Decode(data)
	}
	return DecodeYAML(data)
}

// fromDocument validates the parsed document and decodes it into domain
// types. The generic document is validated first so authors get schema
// paths in their error messages instead of Go type mismatches.
func fromDocument(doc any) (*domain.Chapter, error) {
	v, err := sharedValidator()
	if err != nil {
		return nil, err
	}
	if err := v.ValidateDocument(doc); err != nil {
		return nil, err
	}

	var ch domain.Chapter
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &ch,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(doc); err != nil {
		return nil, fmt.Errorf("decode chapter: %w", err)
	}
	return &ch, nil
}
