package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the top-level configuration
type Config struct {
	Environments map[string]Environment     `json:"environments" validate:"required,min=1,dive"`
	Requests     map[string]Request         `json:"requests" validate:"required,min=1,dive"`
	Suites       map[string]Suite           `json:"suites,omitempty" validate:"dive"`
	Schemas      map[string]json.RawMessage `json:"schemas,omitempty"`

	// Dir is the directory of the loaded file; relative schema files resolve against it
	Dir string `json:"-"`
}

// Environment represents an environment configuration
type Environment struct {
	BaseURL string            `json:"baseUrl" validate:"required"`
	Headers map[string]string `json:"headers,omitempty"`
	Vars    map[string]string `json:"variables,omitempty"`
}

// Request represents a request configuration
type Request struct {
	URL             string            `json:"url" validate:"required"`
	Method          string            `json:"method" validate:"required,httpmethod"`
	Headers         map[string]string `json:"headers,omitempty"`
	Form            []FormAttribute   `json:"form,omitempty" validate:"dive"`
	Body            interface{}       `json:"body,omitempty"`
	Auth            *Auth             `json:"auth,omitempty"`
	Timeout         string            `json:"timeout,omitempty" validate:"omitempty,duration"`
	HTTPVersion     string            `json:"httpVersion,omitempty" validate:"omitempty,oneof=1.1 2"`
	FollowRedirects *bool             `json:"followRedirects,omitempty"`
	Proxy           *Proxy            `json:"proxy,omitempty"`
	Extract         map[string]string `json:"extract,omitempty" validate:"dive,keys,required,endkeys,required"`
}

// FormAttribute is a single form field. Attributes are a list so their
// order is kept in the encoded body.
type FormAttribute struct {
	Name  string `json:"name" validate:"required"`
	Value string `json:"value"`
}

// Auth selects the Authorization scheme of a request
type Auth struct {
	Basic  *BasicAuth `json:"basic,omitempty" validate:"required_without=Bearer,excluded_with=Bearer"`
	Bearer string     `json:"bearer,omitempty"`
}

// BasicAuth holds Basic credentials
type BasicAuth struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password"`
}

// Proxy is an HTTP proxy address
type Proxy struct {
	Host string `json:"host" validate:"required"`
	Port int    `json:"port" validate:"min=1,max=65535"`
}

// Suite represents a suite of requests
type Suite struct {
	Requests []string          `json:"requests" validate:"required,min=1"`
	Vars     map[string]string `json:"variables,omitempty"`
	Tests    []Test            `json:"tests,omitempty" validate:"dive"`
}

// Test represents a test configuration
type Test struct {
	Name       string                   `json:"name" validate:"required"`
	Request    string                   `json:"request" validate:"required"`
	Assertions []map[string]interface{} `json:"assertions" validate:"required,min=1"`
}

// LoadConfig loads a configuration file. Files ending in .yaml or .yml are
// parsed as YAML, anything else as JSON.
func LoadConfig(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config, err := ParseConfig(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	config.Dir = filepath.Dir(path)

	return config, nil
}

// ParseConfig decodes configuration data. ext selects the format the same
// way LoadConfig does.
func ParseConfig(data []byte, ext string) (*Config, error) {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		converted, err := yamlToJSON(data)
		if err != nil {
			return nil, err
		}
		data = converted
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// yamlToJSON re-encodes a YAML document as JSON so both formats share the
// json struct tags, including raw schema documents.
func yamlToJSON(data []byte) ([]byte, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(doc)
}

// ParseDuration parses duration strings like "30s", "5m" or "1 minute"
func ParseDuration(duration string) (time.Duration, error) {
	duration = strings.TrimSpace(duration)
	if duration == "" {
		return 0, fmt.Errorf("duration cannot be empty")
	}

	if d, err := time.ParseDuration(duration); err == nil {
		return d, nil
	}

	duration = strings.ToLower(strings.ReplaceAll(duration, " ", ""))

	// Longest words first so "seconds" is not left as "s" + "s"
	replacer := strings.NewReplacer(
		"milliseconds", "ms", "millisecond", "ms",
		"seconds", "s", "second", "s",
		"minutes", "m", "minute", "m",
		"hours", "h", "hour", "h",
	)
	return time.ParseDuration(replacer.Replace(duration))
}

// ProcessEnvironment replaces {{name}} placeholders in input
func ProcessEnvironment(input string, env map[string]string) string {
	result := input
	for key, value := range env {
		result = strings.ReplaceAll(result, "{{"+key+"}}", value)
	}
	return result
}

// ProcessEnvironmentInMap processes placeholders in every value of a map
func ProcessEnvironmentInMap(input map[string]string, env map[string]string) map[string]string {
	result := make(map[string]string, len(input))
	for key, value := range input {
		result[key] = ProcessEnvironment(value, env)
	}
	return result
}

// ProcessEnvironmentInValue processes placeholders in every string of a
// decoded JSON value.
func ProcessEnvironmentInValue(input interface{}, env map[string]string) interface{} {
	switch v := input.(type) {
	case string:
		return ProcessEnvironment(v, env)
	case map[string]interface{}:
		result := make(map[string]interface{}, len(v))
		for key, value := range v {
			result[key] = ProcessEnvironmentInValue(value, env)
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, value := range v {
			result[i] = ProcessEnvironmentInValue(value, env)
		}
		return result
	default:
		return v
	}
}

// MergeEnvironments merges variable sets; later sets take precedence
func MergeEnvironments(envs ...map[string]string) map[string]string {
	result := make(map[string]string)
	for _, env := range envs {
		for key, value := range env {
			result[key] = value
		}
	}
	return result
}
