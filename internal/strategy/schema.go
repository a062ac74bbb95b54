package strategy

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/rxtech-lab/argo-screener/internal/types"
)

// MarshalYAML writes unset dates as absent fields, the inverse of UnmarshalYAML.
func (c Config) MarshalYAML() (interface{}, error) {
	type config struct {
		Kind         Kind               `yaml:"kind"`
		Parameters   map[string]float64 `yaml:"parameters,omitempty"`
		InitialCash  float64            `yaml:"initial_cash"`
		FeeRate      float64            `yaml:"fee_rate"`
		StartDate    *time.Time         `yaml:"start_date,omitempty"`
		EndDate      *time.Time         `yaml:"end_date,omitempty"`
		SamplingMode types.SamplingMode `yaml:"sampling_mode,omitempty"`
	}

	raw := config{
		Kind:         c.Kind,
		Parameters:   c.Parameters,
		InitialCash:  c.InitialCash,
		FeeRate:      c.FeeRate,
		SamplingMode: c.SamplingMode,
	}

	if c.StartDate.IsSome() {
		start := c.StartDate.Unwrap()
		raw.StartDate = &start
	}

	if c.EndDate.IsSome() {
		end := c.EndDate.Unwrap()
		raw.EndDate = &end
	}

	return raw, nil
}

// ExampleConfig returns a runnable config of kind with every parameter at its default.
func ExampleConfig(kind Kind) Config {
	parameters := make(map[string]float64)
	for _, spec := range Specs(kind) {
		parameters[spec.Name] = spec.Default
	}

	return Config{
		Kind:        kind,
		Parameters:  parameters,
		InitialCash: 10000,
		FeeRate:     0.001,
	}
}

// GenerateSchema generates a JSON schema for Config
func (c *Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}

			if strings.Contains(t.String(), "strategy.Kind") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: AllKinds,
				}
			}

			if strings.Contains(t.String(), "types.SamplingMode") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: types.AllSamplingModes,
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)

	schema.Title = "strategy-config"
	schema.Description = "Configuration schema for a strategy run"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for Config
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
