// Package jsonpath evaluates a small JSONPath subset ($, .name, ['name'],
// [index]) against JSON documents using gjson.
package jsonpath

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	// ErrEmptyDocument is returned when the JSON input is empty
	ErrEmptyDocument = errors.New("empty JSON document")
	// ErrEmptyPath is returned when the expression is empty
	ErrEmptyPath = errors.New("empty JSONPath expression")
	// ErrPathNotFound is returned when the expression matches nothing
	ErrPathNotFound = errors.New("path not found")
)

// Extract returns the value at path as a string. Objects and arrays are
// returned as raw JSON, null as "null".
func Extract(json, path string) (string, error) {
	result, err := lookup(json, path)
	if err != nil {
		return "", err
	}

	if result.Type == gjson.Null {
		return "null", nil
	}
	return result.String(), nil
}

// Exists reports whether path matches a value in json.
func Exists(json, path string) bool {
	_, err := lookup(json, path)
	return err == nil
}

// ExtractMultiple extracts several named paths. Values that could be
// extracted are returned even when others fail.
func ExtractMultiple(json string, paths map[string]string) (map[string]string, error) {
	if json == "" {
		return nil, ErrEmptyDocument
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no JSONPath expressions provided")
	}

	results := make(map[string]string, len(paths))
	var errs []error

	for name, path := range paths {
		value, err := Extract(json, path)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		results[name] = value
	}

	return results, errors.Join(errs...)
}

func lookup(json, path string) (gjson.Result, error) {
	if strings.TrimSpace(json) == "" {
		return gjson.Result{}, ErrEmptyDocument
	}
	if path == "" {
		return gjson.Result{}, ErrEmptyPath
	}

	result := gjson.Get(json, toGjsonPath(path))
	if !result.Exists() {
		return gjson.Result{}, fmt.Errorf("%w: %s", ErrPathNotFound, path)
	}
	return result, nil
}

// toGjsonPath converts JSONPath ($.users[0]['name']) to gjson (users.0.name).
func toGjsonPath(path string) string {
	path = strings.TrimPrefix(path, "$")
	if path == "" {
		return "@this"
	}

	var segments []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			segments = append(segments, current.String())
			current.Reset()
		}
	}

	for i := 0; i < len(path); i++ {
		switch c := path[i]; c {
		case '.':
			flush()
		case '[':
			flush()
			end := strings.IndexByte(path[i:], ']')
			if end < 0 {
				current.WriteString(path[i+1:])
				i = len(path)
				continue
			}
			segment := strings.Trim(path[i+1:i+end], `'"`)
			segments = append(segments, escapeSegment(segment))
			i += end
		default:
			current.WriteByte(c)
		}
	}
	flush()

	if len(segments) == 0 {
		return "@this"
	}
	return strings.Join(segments, ".")
}

// escapeSegment escapes gjson metacharacters in a bracketed key.
func escapeSegment(s string) string {
	replacer := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`)
	return replacer.Replace(s)
}
