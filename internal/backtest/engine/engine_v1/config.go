package engine

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/rxtech-lab/argo-screener/internal/backtest/engine/engine_v1/cache"
	"github.com/rxtech-lab/argo-screener/internal/types"
	"github.com/rxtech-lab/argo-screener/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	DefaultWorkerHardCap     = 64
	DefaultCacheTTL          = 24 * time.Hour
	DefaultCacheMemoryBudget = 256 << 20
)

// CacheConfig configures the result cache. Without a Redis address only the
// in-process cache is used.
type CacheConfig struct {
	Disabled          bool              `yaml:"disabled" json:"disabled" jsonschema:"title=Disabled,description=Compute every result without caching"`
	TTL               time.Duration     `yaml:"ttl" json:"ttl" jsonschema:"title=TTL,description=How long a result stays valid (Go duration such as 24h)"`
	MemoryBudgetBytes int64             `yaml:"memory_budget_bytes" json:"memory_budget_bytes" jsonschema:"title=Memory Budget,description=Approximate bytes held in process before least recently used results are evicted,minimum=0" validate:"gte=0"`
	KeyPrefix         string            `yaml:"key_prefix" json:"key_prefix" jsonschema:"title=Key Prefix,description=Prefix of every cache key"`
	Redis             cache.RedisConfig `yaml:"redis" json:"redis" jsonschema:"title=Redis,description=Shared cache tier"`
}

// BacktestEngineV1Config is the engine-wide configuration. Strategy settings
// come with each request.
type BacktestEngineV1Config struct {
	MaxWorkers      int                `yaml:"max_workers" json:"max_workers" jsonschema:"title=Max Workers,description=Default worker count; 0 uses the number of CPUs,minimum=0" validate:"gte=0"`
	WorkerHardCap   int                `yaml:"worker_hard_cap" json:"worker_hard_cap" jsonschema:"title=Worker Hard Cap,description=Upper bound on workers regardless of the request,minimum=1" validate:"gte=1"`
	SamplingMode    types.SamplingMode `yaml:"sampling_mode" json:"sampling_mode" jsonschema:"title=Sampling Mode,description=Bar interval used when a strategy config sets none" validate:"oneof=1m 5m 15m 30m 1h 4h 1d 1w"`
	PriceFetchRPS   float64            `yaml:"price_fetch_rps" json:"price_fetch_rps" jsonschema:"title=Price Fetch RPS,description=Maximum price series requests per second; 0 is unlimited,minimum=0" validate:"gte=0"`
	PriceFetchBurst int                `yaml:"price_fetch_burst" json:"price_fetch_burst" jsonschema:"title=Price Fetch Burst,minimum=0" validate:"gte=0"`
	LogLevel        string             `yaml:"log_level" json:"log_level" jsonschema:"title=Log Level,enum=debug,enum=info,enum=warn,enum=error" validate:"omitempty,oneof=debug info warn error"`
	Cache           CacheConfig        `yaml:"cache" json:"cache" jsonschema:"title=Cache"`
}

// UnmarshalYAML decodes over the defaults of EmptyConfig, so omitted fields keep their defaults.
func (c *BacktestEngineV1Config) UnmarshalYAML(value *yaml.Node) error {
	type config BacktestEngineV1Config

	raw := config(EmptyConfig())
	if err := value.Decode(&raw); err != nil {
		return err
	}

	*c = BacktestEngineV1Config(raw)

	return nil
}

// Validate checks the configuration.
func (c BacktestEngineV1Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestConfigError, "invalid engine config", err)
	}

	return nil
}

// LoadConfig parses a YAML engine configuration. Empty content gives EmptyConfig.
func LoadConfig(content []byte) (BacktestEngineV1Config, error) {
	config := EmptyConfig()
	if err := yaml.Unmarshal(content, &config); err != nil {
		return BacktestEngineV1Config{}, errors.Wrap(errors.ErrCodeBacktestConfigError, "failed to parse engine config", err)
	}

	if err := config.Validate(); err != nil {
		return BacktestEngineV1Config{}, err
	}

	return config, nil
}

// GenerateSchema generates a JSON schema for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == reflect.TypeOf(time.Duration(0)) {
				return &jsonschema.Schema{
					Type:    "string",
					Pattern: `^([0-9]+(\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$`,
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

	schema.Title = "backtest-engine-v1-config"
	schema.Description = "Configuration schema for BacktestEngineV1"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchemaJSON() (string, error) {
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

// EmptyConfig returns a BacktestEngineV1Config with default values
func EmptyConfig() BacktestEngineV1Config {
	return BacktestEngineV1Config{
		MaxWorkers:    0,
		WorkerHardCap: DefaultWorkerHardCap,
		SamplingMode:  types.SamplingMode1d,
		PriceFetchRPS: 0,
		LogLevel:      "info",
		Cache: CacheConfig{
			TTL:               DefaultCacheTTL,
			MemoryBudgetBytes: DefaultCacheMemoryBudget,
			KeyPrefix:         cache.DefaultKeyPrefix,
		},
	}
}
