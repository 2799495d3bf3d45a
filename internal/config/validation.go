package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ValidationError describes an invalid config field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Message)
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks the configuration and reports every invalid field.
func (c *Config) Validate() error {
	var errs []error

	if err := ValidateServiceURL(c.Service.URL); err != nil {
		errs = append(errs, &ValidationError{Field: "service.url", Message: err.Error()})
	}
	if !strings.HasPrefix(c.Service.UploadPath, "/") {
		errs = append(errs, &ValidationError{Field: "service.upload_path", Message: fmt.Sprintf("%q must start with /", c.Service.UploadPath)})
	}
	if c.Service.Timeout < 0 {
		errs = append(errs, &ValidationError{Field: "service.timeout", Message: "must not be negative"})
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, &ValidationError{Field: "logging.level", Message: fmt.Sprintf("unknown level %q", c.Logging.Level)})
	}
	if c.UI.MaxMessages < 0 {
		errs = append(errs, &ValidationError{Field: "ui.max_messages", Message: "must not be negative"})
	}
	if c.Upload.MaxSizeBytes < 0 {
		errs = append(errs, &ValidationError{Field: "upload.max_size_bytes", Message: "must not be negative"})
	}

	return errors.Join(errs...)
}

// ValidateServiceURL checks that raw is an absolute http(s) URL.
func ValidateServiceURL(raw string) error {
	if raw == "" {
		return errors.New("must not be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%q must use http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%q has no host", raw)
	}
	return nil
}
