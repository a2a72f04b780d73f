package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/jbweber/herd/internal/logging"
	"github.com/jbweber/herd/internal/output"
)

// ValidationError represents a single validation failure.
type ValidationError struct {
	Field   string // The config key, e.g. "poll.multiplier"
	Value   any    // The invalid value
	Message string // Human-readable error description
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// Validate checks the Config and returns every problem found, or nil.
// Whether a node or password is needed depends on the command, so neither
// is checked here.
func (c *Config) Validate() ValidationErrors {
	var errs ValidationErrors

	errs = append(errs, c.validateConnection()...)
	errs = append(errs, c.validateBatch()...)
	errs = append(errs, c.validatePoll()...)
	errs = append(errs, c.validateOutput()...)

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (c *Config) validateConnection() []ValidationError {
	var errs []ValidationError

	if c.URL == "" {
		errs = append(errs, ValidationError{Field: "url", Value: c.URL, Message: "is required"})
	} else if u, err := url.Parse(c.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, ValidationError{Field: "url", Value: c.URL, Message: "must be an http or https URL"})
	}

	if c.Auth.Username == "" {
		errs = append(errs, ValidationError{Field: "auth.username", Value: c.Auth.Username, Message: "is required"})
	} else if !strings.Contains(c.Auth.Username, "@") && c.Auth.Realm == "" {
		errs = append(errs, ValidationError{Field: "auth.realm", Value: c.Auth.Realm, Message: "is required when auth.username has no realm"})
	}

	if c.RequestTimeout < 0 {
		errs = append(errs, ValidationError{Field: "request_timeout", Value: c.RequestTimeout, Message: "must not be negative"})
	}

	return errs
}

func (c *Config) validateBatch() []ValidationError {
	var errs []ValidationError

	if c.Concurrency < 1 {
		errs = append(errs, ValidationError{Field: "concurrency", Value: c.Concurrency, Message: "must be at least 1"})
	}
	if c.PipelineTimeout < 0 {
		errs = append(errs, ValidationError{Field: "pipeline_timeout", Value: c.PipelineTimeout, Message: "must not be negative"})
	}

	return errs
}

func (c *Config) validatePoll() []ValidationError {
	var errs []ValidationError
	p := c.Poll

	if p.InitialInterval <= 0 {
		errs = append(errs, ValidationError{Field: "poll.initial_interval", Value: p.InitialInterval, Message: "must be positive"})
	}
	if p.MaxInterval < p.InitialInterval {
		errs = append(errs, ValidationError{Field: "poll.max_interval", Value: p.MaxInterval, Message: "must not be below poll.initial_interval"})
	}
	if p.Multiplier < 1 {
		errs = append(errs, ValidationError{Field: "poll.multiplier", Value: p.Multiplier, Message: "must be at least 1"})
	}
	if p.Timeout < 0 {
		errs = append(errs, ValidationError{Field: "poll.timeout", Value: p.Timeout, Message: "must not be negative"})
	}

	return errs
}

func (c *Config) validateOutput() []ValidationError {
	var errs []ValidationError

	if !slices.Contains(logging.ValidLevels(), c.Log.Level) {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Value:   c.Log.Level,
			Message: "must be one of: " + strings.Join(logging.ValidLevels(), ", "),
		})
	}
	if !slices.Contains(logging.ValidFormats(), c.Log.Format) {
		errs = append(errs, ValidationError{
			Field:   "log.format",
			Value:   c.Log.Format,
			Message: "must be one of: " + strings.Join(logging.ValidFormats(), ", "),
		})
	}
	if err := output.ValidateFormat(c.Output); err != nil {
		errs = append(errs, ValidationError{
			Field:   "output",
			Value:   c.Output,
			Message: "must be one of: " + strings.Join(output.ValidFormats, ", "),
		})
	}

	return errs
}
