package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"sort"
	"strings"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	messages := make([]string, 0, len(ve))
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// ValidateRequired checks if a required string field is not empty
func ValidateRequired(field, value, entityType string) error {
	if strings.TrimSpace(value) == "" {
		return ValidationError{
			Field:   field,
			Value:   value,
			Message: fmt.Sprintf("is required for %s", entityType),
		}
	}
	return nil
}

// ValidateOneOf checks if a value is in a list of allowed values
func ValidateOneOf(field, value string, allowed []string) error {
	for _, allowedValue := range allowed {
		if value == allowedValue {
			return nil
		}
	}
	return ValidationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
	}
}

// ValidatePort checks that a port number is usable for a TCP listener.
func ValidatePort(field string, port int) error {
	if port < 1 || port > 65535 {
		return ValidationError{
			Field:   field,
			Value:   port,
			Message: "must be between 1 and 65535",
		}
	}
	return nil
}

// addErr appends err to errs when it is a ValidationError.
func addErr(errs *ValidationErrors, err error) {
	if err == nil {
		return
	}
	if ve, ok := err.(ValidationError); ok {
		*errs = append(*errs, ve)
		return
	}
	errs.Add("", err.Error())
}

// Validate checks the configuration and returns every problem found as
// ValidationErrors, or nil when the configuration is usable.
func (c StubRunnerConfig) Validate() error {
	var errs ValidationErrors

	addErr(&errs, ValidatePort("portRange.min", c.PortRange.Min))
	addErr(&errs, ValidatePort("portRange.max", c.PortRange.Max))
	if c.PortRange.Min > c.PortRange.Max {
		errs.Add("portRange", fmt.Sprintf("min %d is greater than max %d", c.PortRange.Min, c.PortRange.Max))
	}

	c.validateRepository(&errs)
	c.validateRegistry(&errs)

	if c.Logging.Format != "" {
		addErr(&errs, ValidateOneOf("logging.format", c.Logging.Format, []string{"text", "json"}))
	}
	if c.Logging.Level != "" {
		addErr(&errs, ValidateOneOf("logging.level", strings.ToLower(c.Logging.Level), []string{"debug", "info", "warn", "error"}))
	}

	aliases := make([]string, 0, len(c.Dependencies))
	for alias := range c.Dependencies {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	for _, alias := range aliases {
		field := fmt.Sprintf("dependencies.%s", alias)
		if strings.TrimSpace(alias) == "" {
			errs.Add("dependencies", "alias must not be empty")
			continue
		}
		if strings.ContainsAny(alias, " /") {
			errs.Add(field, "alias cannot contain spaces or slashes", alias)
		}
		path := c.Dependencies[alias].Path
		addErr(&errs, ValidateRequired(field+".path", path, "dependency "+alias))
		if strings.TrimSpace(path) != "" && !filepath.IsLocal(filepath.FromSlash(path)) {
			errs.Add(field+".path", "must be a relative path inside the stubs directory", path)
		}
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func (c StubRunnerConfig) validateRepository(errs *ValidationErrors) {
	repo := c.Repository
	if repo.StubsDir != "" {
		return
	}

	addErr(errs, ValidateRequired("repository.group", repo.Group, "stub artifact"))
	addErr(errs, ValidateRequired("repository.module", repo.Module, "stub artifact"))

	if repo.UseLocal {
		return
	}
	u, err := url.Parse(repo.Root)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		errs.Add("repository.root", "must be an absolute http or https URL", repo.Root)
	}
	if repo.Timeout < 0 {
		errs.Add("repository.timeout", "must not be negative", repo.Timeout)
	}
}

func (c StubRunnerConfig) validateRegistry(errs *ValidationErrors) {
	reg := c.Registry
	addErr(errs, ValidateOneOf("registry.backend", reg.Backend, []string{RegistryBackendRedis, RegistryBackendNacos}))

	switch reg.Backend {
	case RegistryBackendRedis:
		addErr(errs, ValidateRequired("registry.host", reg.Host, "redis registry"))
		addErr(errs, ValidatePort("registry.port", reg.Port))
	case RegistryBackendNacos:
		if reg.Embedded {
			errs.Add("registry.embedded", "embedded coordination service is only available for the redis backend")
		}
		if len(reg.Nacos.Servers) == 0 {
			errs.Add("registry.nacos.servers", "must have at least one item for nacos registry")
		}
	}
}
