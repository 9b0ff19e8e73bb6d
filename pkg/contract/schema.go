package contract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

// shape is the derived schema for one Go type.
type shape struct {
	resolved *jsonschema.Resolved
	text     string
}

//nolint:gochecknoglobals // schemas are derived once per type
var shapeCache sync.Map // reflect.Type -> *shape

func shapeFor[T any]() (*shape, error) {
	key := reflect.TypeFor[T]()
	if cached, ok := shapeCache.Load(key); ok {
		return cached.(*shape), nil //nolint:forcetypeassert // only *shape is stored
	}

	schema, err := jsonschema.For[T](nil)
	if err != nil {
		return nil, fmt.Errorf("derive schema for %s: %w", key, err)
	}
	// The prompt shows the strict schema; validation also accepts null for
	// any property, which decodes to the Go zero value.
	text, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render schema for %s: %w", key, err)
	}
	allowNullProperties(schema)
	resolved, err := schema.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("resolve schema for %s: %w", key, err)
	}

	s := &shape{resolved: resolved, text: string(text)}
	actual, _ := shapeCache.LoadOrStore(key, s)
	return actual.(*shape), nil //nolint:forcetypeassert // only *shape is stored
}

// allowNullProperties adds "null" to the type of every property, recursively.
func allowNullProperties(s *jsonschema.Schema) {
	if s == nil {
		return
	}
	for _, prop := range s.Properties {
		switch {
		case prop.Type != "" && prop.Type != "null":
			prop.Types = []string{prop.Type, "null"}
			prop.Type = ""
		case len(prop.Types) > 0 && !slices.Contains(prop.Types, "null"):
			prop.Types = append(prop.Types, "null")
		}
		allowNullProperties(prop)
	}
	allowNullProperties(s.Items)
}

// SchemaText returns the JSON schema for T, as embedded in prompts.
func SchemaText[T any]() (string, error) {
	s, err := shapeFor[T]()
	if err != nil {
		return "", err
	}
	return s.text, nil
}

// ExtractJSON pulls the JSON object out of a model reply. It accepts a bare
// object, a ```json fenced block, or an object surrounded by prose.
func ExtractJSON(reply string) (string, error) {
	text := strings.TrimSpace(reply)
	if text == "" {
		return "", errors.New("reply is empty")
	}

	if start := strings.Index(text, "```"); start != -1 {
		body := text[start+3:]
		body = strings.TrimPrefix(body, "json")
		body = strings.TrimPrefix(body, "JSON")
		if end := strings.Index(body, "```"); end != -1 {
			body = body[:end]
		}
		text = strings.TrimSpace(body)
	}

	open := strings.Index(text, "{")
	closing := strings.LastIndex(text, "}")
	if open == -1 || closing < open {
		return "", errors.New("reply does not contain a JSON object")
	}
	return text[open : closing+1], nil
}

// decode turns a reply into a T that satisfies the schema and, if T
// implements Validator, its semantic rules.
func decode[T any](role Role, reply string, s *shape) (T, *ValidationError) {
	var zero T

	raw, err := ExtractJSON(reply)
	if err != nil {
		return zero, &ValidationError{Role: role, Phase: PhaseParse, Err: err}
	}

	var instance map[string]any
	if err := json.Unmarshal([]byte(raw), &instance); err != nil {
		return zero, &ValidationError{Role: role, Phase: PhaseParse, Err: fmt.Errorf("invalid JSON: %w", err)}
	}
	if err := s.resolved.Validate(instance); err != nil {
		return zero, &ValidationError{Role: role, Phase: PhaseSchema, Err: err}
	}

	var value T
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	if err := dec.Decode(&value); err != nil {
		return zero, &ValidationError{Role: role, Phase: PhaseParse, Err: fmt.Errorf("decode: %w", err)}
	}

	if v, ok := any(&value).(Validator); ok {
		if err := v.Validate(); err != nil {
			return zero, &ValidationError{Role: role, Phase: PhaseSemantic, Err: err}
		}
	}
	return value, nil
}
