package content

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Violation is one broken rule, located by a dotted path such as
// "pages.home.services.items[1].features".
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	if v.Path == "" {
		return v.Message
	}
	return v.Path + ": " + v.Message
}

// Result is the outcome of validating one document.
type Result struct {
	Valid      bool        `json:"valid"`
	Violations []Violation `json:"violations,omitempty"`
}

// Err returns nil for a valid result and a *ValidationError otherwise.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return &ValidationError{Violations: r.Violations}
}

// ValidationError carries the itemized violations of a rejected document.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return "content failed validation"
	}
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}
	return fmt.Sprintf("content failed validation (%d violations): %s", len(e.Violations), strings.Join(parts, "; "))
}

// Validate checks doc, as produced by encoding/json decoding into an any,
// against schema. It is pure: the same input always yields the same result,
// with violations in schema order.
func Validate(doc any, schema Field) Result {
	var out []Violation
	check("", schema, doc, true, &out)
	return Result{Valid: len(out) == 0, Violations: out}
}

// ValidateJSON parses data and validates it. Unparseable input is reported
// as a single root violation rather than an error.
func ValidateJSON(data []byte, schema Field) Result {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return Result{Violations: []Violation{{Message: fmt.Sprintf("not valid JSON: %v", err)}}}
	}
	return Validate(doc, schema)
}

func check(path string, f Field, v any, present bool, out *[]Violation) {
	add := func(p, format string, args ...any) {
		*out = append(*out, Violation{Path: p, Message: fmt.Sprintf(format, args...)})
	}

	if !present || v == nil {
		if !f.Optional {
			add(path, "is required")
		}
		return
	}

	switch f.Kind {
	case KindString:
		s, ok := v.(string)
		if !ok {
			add(path, "must be a string, got %s", jsonType(v))
			return
		}
		if strings.TrimSpace(s) == "" {
			if !f.Optional {
				add(path, "is required")
			}
			return
		}
		if f.Literal != "" && s != f.Literal {
			add(path, "must be %q, got %q", f.Literal, s)
		}
		if len(f.Enum) > 0 && !contains(f.Enum, s) {
			add(path, "invalid value %q, must be one of: %s", s, strings.Join(f.Enum, ", "))
		}
		if f.MinLength > 0 {
			if n := utf8.RuneCountInString(s); n < f.MinLength {
				add(path, "must be at least %d characters, got %d", f.MinLength, n)
			}
		}

	case KindObject:
		m, ok := v.(map[string]any)
		if !ok {
			add(path, "must be an object, got %s", jsonType(v))
			return
		}
		for _, child := range f.Fields {
			cv, ok := m[child.Name]
			check(joinPath(path, child.Name), child, cv, ok, out)
		}

	case KindArray:
		items, ok := v.([]any)
		if !ok {
			add(path, "must be an array, got %s", jsonType(v))
			return
		}
		switch {
		case f.ExactLen > 0 && len(items) != f.ExactLen:
			add(path, "must contain exactly %d items, got %d", f.ExactLen, len(items))
		case f.ExactLen == 0 && f.MinItems > 0 && len(items) < f.MinItems:
			add(path, "must contain at least %d items, got %d", f.MinItems, len(items))
		case f.ExactLen == 0 && f.MinItems == 0 && !f.Optional && len(items) == 0:
			add(path, "must not be empty")
		}
		if f.Elem != nil {
			for i, item := range items {
				check(fmt.Sprintf("%s[%d]", path, i), *f.Elem, item, true, out)
			}
		}
		if f.UniqueBy != "" {
			seen := make(map[string]int, len(items))
			for i, item := range items {
				m, ok := item.(map[string]any)
				if !ok {
					continue
				}
				key, _ := m[f.UniqueBy].(string)
				if key == "" {
					continue
				}
				if first, dup := seen[key]; dup {
					add(fmt.Sprintf("%s[%d].%s", path, i, f.UniqueBy), "duplicate value %q (also at index %d)", key, first)
					continue
				}
				seen[key] = i
			}
		}

	default:
		add(path, "unsupported schema kind %d", int(f.Kind))
	}
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

func contains(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func jsonType(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case float64, json.Number:
		return "number"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Decode converts a validated generic document into a Tree. A document that
// passed Validate can still fail here when an unconstrained field carries the
// wrong JSON type; that is reported as a validation error too.
func Decode(doc any) (*Tree, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, &ValidationError{Violations: []Violation{{Message: fmt.Sprintf("cannot encode document: %v", err)}}}
	}
	var tree Tree
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, &ValidationError{Violations: []Violation{{Message: fmt.Sprintf("document does not match the content tree: %v", err)}}}
	}
	tree.normalize()
	return &tree, nil
}
