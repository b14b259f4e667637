package config

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/wesleyorama2/fetch/http"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Path    string
	Message string
}

// Error returns the error message
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

var structValidator = newValidator()

func newValidator() *validator.Validate {
	validate := validator.New()

	// Report fields by their JSON names so paths match the config file
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation("httpmethod", validateMethod)
	_ = validate.RegisterValidation("duration", validateDuration)

	return validate
}

func validateMethod(fl validator.FieldLevel) bool {
	_, err := http.ParseMethod(fl.Field().String())
	return err == nil
}

func validateDuration(fl validator.FieldLevel) bool {
	d, err := ParseDuration(fl.Field().String())
	return err == nil && d > 0
}

// mapKey matches a non-numeric bracketed segment, i.e. a map key
var mapKey = regexp.MustCompile(`\[([^\]]*[^\]0-9][^\]]*)\]`)

// fieldPath turns "Config.requests[login].url" into "requests.login.url"
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		namespace = namespace[i+1:]
	}
	return mapKey.ReplaceAllString(namespace, ".$1")
}

func fieldMessage(fe validator.FieldError) string {
	name := fe.Field()
	// Map and slice elements are reported as "extract[token]"
	if i := strings.IndexByte(name, '['); i > 0 {
		name = name[:i]
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", name)
	case "min":
		if fe.Kind() == reflect.Map || fe.Kind() == reflect.Slice {
			return fmt.Sprintf("at least %s %s required", fe.Param(), pluralEntry(fe.Param()))
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "httpmethod":
		return fmt.Sprintf("invalid method: %v", fe.Value())
	case "duration":
		return fmt.Sprintf("invalid duration: %v", fe.Value())
	case "required_without":
		return "either basic or bearer authentication is required"
	case "excluded_with":
		return "basic and bearer authentication are mutually exclusive"
	default:
		return fmt.Sprintf("validation failed for tag '%s'", fe.Tag())
	}
}

func pluralEntry(n string) string {
	if n == "1" {
		return "entry is"
	}
	return "entries are"
}

// ValidateConfig validates the configuration: field rules first, then
// references between suites, tests and requests.
func ValidateConfig(config *Config) []ValidationError {
	var errs []ValidationError

	if err := structValidator.Struct(config); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return []ValidationError{{Path: "config", Message: err.Error()}}
		}
		for _, fe := range fieldErrs {
			errs = append(errs, ValidationError{Path: fieldPath(fe.Namespace()), Message: fieldMessage(fe)})
		}
	}

	for _, name := range sortedKeys(config.Suites) {
		suite := config.Suites[name]

		for i, reqName := range suite.Requests {
			if _, ok := config.Requests[reqName]; !ok {
				errs = append(errs, ValidationError{
					Path:    fmt.Sprintf("suites.%s.requests[%d]", name, i),
					Message: fmt.Sprintf("request not found: %s", reqName),
				})
			}
		}

		for i, test := range suite.Tests {
			if test.Request == "" {
				continue
			}
			if _, ok := config.Requests[test.Request]; !ok {
				errs = append(errs, ValidationError{
					Path:    fmt.Sprintf("suites.%s.tests[%d].request", name, i),
					Message: fmt.Sprintf("request not found: %s", test.Request),
				})
			}
		}
	}

	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Path < errs[j].Path })
	return errs
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ValidateEnvironment validates that an environment exists
func ValidateEnvironment(config *Config, envName string) error {
	if _, ok := config.Environments[envName]; !ok {
		return fmt.Errorf("environment not found: %s", envName)
	}
	return nil
}

// ValidateRequest validates that a request exists
func ValidateRequest(config *Config, reqName string) error {
	if _, ok := config.Requests[reqName]; !ok {
		return fmt.Errorf("request not found: %s", reqName)
	}
	return nil
}

// ValidateSuite validates that a suite exists
func ValidateSuite(config *Config, suiteName string) error {
	if _, ok := config.Suites[suiteName]; !ok {
		return fmt.Errorf("suite not found: %s", suiteName)
	}
	return nil
}
