package config

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrConfigNotFound is returned when the configuration path does not resolve
	ErrConfigNotFound = errors.New("config not found")

	// ErrConfigParse is returned when the document is malformed
	ErrConfigParse = errors.New("config parse error")

	// ErrConfigValidation is returned when a required field is missing or invalid
	ErrConfigValidation = errors.New("config validation error")
)

// ValidationError names the offending field. It matches ErrConfigValidation
// under errors.Is.
type ValidationError struct {
	Field    string
	Provider string
	Reason   string
}

func (e *ValidationError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s: %s is %s for provider %q", ErrConfigValidation, e.Field, e.reason(), e.Provider)
	}
	return fmt.Sprintf("%s: %s is %s", ErrConfigValidation, e.Field, e.reason())
}

func (e *ValidationError) reason() string {
	if e.Reason == "" {
		return "required"
	}
	return e.Reason
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrConfigValidation
}

type requiredField struct {
	name  string
	value string
}

// Validate checks that every parameter required by each selected provider is
// present. Provider names outside the known set are left for the provider
// registry to reject.
func (c *Config) Validate() error {
	if c.Auth.AdminKey == "" {
		return &ValidationError{Field: "auth.admin_key"}
	}
	for key, owner := range c.Auth.APIKeys {
		if key == "" {
			return &ValidationError{Field: "auth.api_keys", Reason: "an empty key"}
		}
		if key == c.Auth.AdminKey {
			return &ValidationError{Field: "auth.api_keys", Reason: "reusing the admin key"}
		}
		if owner == "" {
			return &ValidationError{Field: "auth.api_keys", Reason: "missing an owner"}
		}
	}

	switch c.Auth.Store {
	case KeyStoreMemory:
	case KeyStoreRedis:
		if c.Redis.Address == "" {
			return &ValidationError{Field: "redis.address", Reason: "required when auth.store is redis"}
		}
	default:
		return &ValidationError{Field: "auth.store", Reason: fmt.Sprintf("invalid (%q)", c.Auth.Store)}
	}

	switch c.Logging.Sink {
	case SinkNone, SinkFile:
	case SinkRedis:
		if c.Redis.Address == "" {
			return &ValidationError{Field: "redis.address", Reason: "required when logging.sink is redis"}
		}
	default:
		return &ValidationError{Field: "logging.sink", Reason: fmt.Sprintf("invalid (%q)", c.Logging.Sink)}
	}

	if c.Auth.RateLimitPerMinute < 0 {
		return &ValidationError{Field: "auth.rate_limit_per_minute", Reason: "negative"}
	}

	if err := requireAll(c.LLM.Provider, c.llmRequired()); err != nil {
		return err
	}
	if err := requireAll(c.Cloud.Provider, c.cloudRequired()); err != nil {
		return err
	}
	if err := requireAll(c.Database.Provider, c.databaseRequired()); err != nil {
		return err
	}

	if c.Database.Provider == RecordsRelational && !ValidIdentifier(c.Database.Table) {
		return &ValidationError{Field: "database.table", Provider: c.Database.Provider, Reason: "not a valid identifier"}
	}
	if c.Database.Provider == RecordsRelational && !ValidIdentifier(c.Database.KeyField) {
		return &ValidationError{Field: "database.key_field", Provider: c.Database.Provider, Reason: "not a valid identifier"}
	}

	if c.Storage.DefaultTTL <= 0 || c.Storage.DefaultTTL > min(c.Storage.MaxTTL, MaxSignTTL) {
		return &ValidationError{Field: "storage.default_ttl", Reason: "out of range"}
	}

	return nil
}

func (c *Config) llmRequired() []requiredField {
	switch c.LLM.Provider {
	case ChatOpenAI:
		return []requiredField{{"llm.model", c.LLM.Model}, {"llm.api_key", c.LLM.APIKey}}
	case ChatAzure:
		return []requiredField{{"llm.api_base", c.LLM.APIBase}, {"llm.deployment", c.LLM.Deployment}, {"llm.api_key", c.LLM.APIKey}}
	case ChatLocalModel:
		return []requiredField{{"llm.api_base", c.LLM.APIBase}, {"llm.model", c.LLM.Model}}
	}
	return nil
}

func (c *Config) cloudRequired() []requiredField {
	switch c.Cloud.Provider {
	case StorageAWS:
		return []requiredField{{"cloud.aws_access_key_id", c.Cloud.AWSAccessKeyID}, {"cloud.aws_secret_access_key", c.Cloud.AWSSecretAccessKey}}
	case StorageAzure:
		return []requiredField{{"cloud.azure_connection_string", c.Cloud.AzureConnectionString}}
	}
	return nil
}

func (c *Config) databaseRequired() []requiredField {
	switch c.Database.Provider {
	case RecordsRelational:
		return []requiredField{{"database.url", c.Database.URL}, {"database.driver", c.Database.Driver}}
	case RecordsDocument:
		return []requiredField{{"database.url", c.Database.URL}, {"database.name", c.Database.Name}}
	}
	return nil
}

func requireAll(provider string, fields []requiredField) error {
	for _, f := range fields {
		if f.value == "" {
			return &ValidationError{Field: f.name, Provider: provider}
		}
	}
	return nil
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ValidIdentifier reports whether s can be spliced into SQL as a table or
// column name (optionally schema-qualified).
func ValidIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}
