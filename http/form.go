package http

import (
	"fmt"
	"net/url"
	"strings"
)

// FormField is a single name/value pair of a form payload.
type FormField struct {
	Name  string
	Value string
}

// Form is an ordered set of form fields. Setting an existing name replaces
// its value but keeps its original position, so encoded bodies are
// reproducible.
type Form struct {
	fields []FormField
	index  map[string]int
}

// Set adds a field or overwrites the value of an existing one.
func (f *Form) Set(name, value string) {
	if f.index == nil {
		f.index = make(map[string]int)
	}
	if i, ok := f.index[name]; ok {
		f.fields[i].Value = value
		return
	}
	f.index[name] = len(f.fields)
	f.fields = append(f.fields, FormField{Name: name, Value: value})
}

// Get returns the value for name and whether it is present.
func (f *Form) Get(name string) (string, bool) {
	if i, ok := f.index[name]; ok {
		return f.fields[i].Value, true
	}
	return "", false
}

// Len returns the number of fields.
func (f *Form) Len() int {
	return len(f.fields)
}

// Fields returns a copy of the fields in insertion order.
func (f *Form) Fields() []FormField {
	out := make([]FormField, len(f.fields))
	copy(out, f.fields)
	return out
}

// EncodeForm renders the form as an application/x-www-form-urlencoded body.
// Names and values are escaped with url.QueryEscape, so spaces become "+".
// An empty form encodes to the empty string.
func EncodeForm(f *Form) string {
	if f == nil || len(f.fields) == 0 {
		return ""
	}

	var buf strings.Builder
	for i, field := range f.fields {
		if i > 0 {
			buf.WriteByte('&')
		}
		buf.WriteString(url.QueryEscape(field.Name))
		buf.WriteByte('=')
		buf.WriteString(url.QueryEscape(field.Value))
	}
	return buf.String()
}

// DecodeForm parses a body produced by EncodeForm, preserving field order.
func DecodeForm(body string) (*Form, error) {
	f := &Form{}
	if body == "" {
		return f, nil
	}

	for _, pair := range strings.Split(body, "&") {
		if pair == "" {
			continue
		}
		rawName, rawValue, _ := strings.Cut(pair, "=")
		name, err := url.QueryUnescape(rawName)
		if err != nil {
			return nil, fmt.Errorf("invalid form name %q: %w", rawName, err)
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, fmt.Errorf("invalid form value %q: %w", rawValue, err)
		}
		f.Set(name, value)
	}
	return f, nil
}
