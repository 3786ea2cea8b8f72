// internal/membership/validation.go
package membership

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxFieldLength is the longest status or position accepted on create, in characters.
const MaxFieldLength = 255

// ValidationError carries per-field messages for a rejected create.
type ValidationError struct {
	Fields map[string][]string
	order  []string
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.order) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.order))
	for _, field := range e.order {
		parts = append(parts, field+": "+strings.Join(e.Fields[field], "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Add records msg against field.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.order = append(e.order, field)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// Has reports whether any field failed.
func (e *ValidationError) Has() bool {
	return e != nil && len(e.Fields) > 0
}

// Err returns e as an error, or nil when nothing failed.
func (e *ValidationError) Err() error {
	if !e.Has() {
		return nil
	}
	return e
}

// MarshalJSON writes the fields in the order they failed.
func (e *ValidationError) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if e != nil {
		for i, field := range e.order {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(field)
			if err != nil {
				return nil, err
			}
			msgs, err := json.Marshal(e.Fields[field])
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')
			buf.Write(msgs)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a field → messages object, keeping the wire order.
func (e *ValidationError) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("validation error: expected object, got %v", tok)
	}
	*e = ValidationError{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		field, ok := tok.(string)
		if !ok {
			return fmt.Errorf("validation error: unexpected key %v", tok)
		}
		var msgs []string
		if err := dec.Decode(&msgs); err != nil {
			return fmt.Errorf("validation error: field %s: %w", field, err)
		}
		for _, msg := range msgs {
			e.Add(field, msg)
		}
	}
	_, err = dec.Token()
	return err
}

// Order returns the failed field names in the order they were recorded.
func (e *ValidationError) Order() []string {
	if e == nil {
		return nil
	}
	return append([]string(nil), e.order...)
}

func requiredMessage(field string) string {
	return fmt.Sprintf("The %s field is required.", field)
}

func stringMessage(field string) string {
	return fmt.Sprintf("The %s must be a string.", field)
}

func maxMessage(field string) string {
	return fmt.Sprintf("The %s must not be greater than %d characters.", field, MaxFieldLength)
}

// checkRequiredString applies the create rules to one typed value.
func checkRequiredString(verr *ValidationError, field, value string) {
	if strings.TrimSpace(value) == "" {
		verr.Add(field, requiredMessage(field))
		return
	}
	if utf8.RuneCountInString(value) > MaxFieldLength {
		verr.Add(field, maxMessage(field))
	}
}

// Validate checks that status and position are present and short enough.
func (in CreateInput) Validate() error {
	verr := &ValidationError{}
	checkRequiredString(verr, "status", in.Status)
	checkRequiredString(verr, "position", in.Position)
	return verr.Err()
}
