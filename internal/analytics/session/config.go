package session

import (
	"encoding/json"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/rxtech-lab/argo-analytics/internal/types"
	"github.com/rxtech-lab/argo-analytics/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds the options recognized by an analytics session.
type Config struct {
	// Filter restricts which trades are recorded.
	Filter types.TradeFilter `yaml:"filter" json:"filter" jsonschema:"title=Filter,description=Which trades count toward the session" validate:"required,oneof=all long short"`
	// RecomputeEveryTrade recomputes the statistics after each closed trade
	// in addition to session end.
	RecomputeEveryTrade bool `yaml:"recompute_every_trade" json:"recompute_every_trade" jsonschema:"title=Recompute Every Trade,description=Recompute statistics after every closed trade"`
	// UseBuiltinPrint dumps the raw statistics tree instead of the table.
	UseBuiltinPrint bool `yaml:"use_builtin_print" json:"use_builtin_print" jsonschema:"title=Use Builtin Print,description=Print raw statistics instead of the formatted table"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() Config {
	return Config{
		Filter:              types.TradeFilterAll,
		RecomputeEveryTrade: false,
		UseBuiltinPrint:     false,
	}
}

// Validate checks the config. An unknown filter is a configuration error.
func (c Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid session config",
			errors.NewConfigurationError("filter", string(c.Filter), types.AllTradeFilters...))
	}

	return nil
}

// LoadConfig reads a YAML config file on top of the defaults and validates it.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(errors.ErrCodeDataNotFound, err, "failed to read session config %s", path)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse session config", err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

// GenerateSchema generates a JSON schema for the Config
func (c *Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if strings.Contains(t.String(), "types.TradeFilter") {
				enum := make([]any, len(types.AllTradeFilters))
				for i, f := range types.AllTradeFilters {
					enum[i] = f
				}

				return &jsonschema.Schema{
					Type: "string",
					Enum: enum,
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)

	schema.Title = "analytics-session-config"
	schema.Description = "Configuration schema for an analytics session"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the Config
func (c *Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}
