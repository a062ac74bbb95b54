package strategy

import (
	stderrors "errors"
	"math"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-screener/internal/types"
	"github.com/rxtech-lab/argo-screener/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is one strategy run request: the strategy, its parameters, the starting
// cash and fee rate and the optional date range and sampling mode.
type Config struct {
	Kind         Kind                       `yaml:"kind" json:"kind" jsonschema:"title=Kind,description=Strategy variant,required" validate:"required,oneof=rsi ma_crossover momentum bollinger mean_reversion"`
	Parameters   map[string]float64         `yaml:"parameters" json:"parameters" jsonschema:"title=Parameters,description=Strategy parameters by name; missing parameters use their defaults"`
	InitialCash  float64                    `yaml:"initial_cash" json:"initial_cash" jsonschema:"title=Initial Cash,description=Starting cash,exclusiveMinimum=0,maximum=1e15,required" validate:"gt=0,lte=1e15"`
	FeeRate      float64                    `yaml:"fee_rate" json:"fee_rate" jsonschema:"title=Fee Rate,description=Fraction of notional charged on every buy and sell,minimum=0,maximum=1" validate:"gte=0,lte=1"`
	StartDate    optional.Option[time.Time] `yaml:"start_date" json:"start_date" jsonschema:"title=Start Date,description=Optional first bar time (inclusive)"`
	EndDate      optional.Option[time.Time] `yaml:"end_date" json:"end_date" jsonschema:"title=End Date,description=Optional last bar time (inclusive)"`
	SamplingMode types.SamplingMode         `yaml:"sampling_mode" json:"sampling_mode" jsonschema:"title=Sampling Mode,description=Bar interval; defaults to the engine sampling mode" validate:"omitempty,oneof=1m 5m 15m 30m 1h 4h 1d 1w"`
}

// UnmarshalYAML implements custom unmarshaling for Config.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type config struct {
		Kind         Kind               `yaml:"kind"`
		Parameters   map[string]float64 `yaml:"parameters"`
		InitialCash  float64            `yaml:"initial_cash"`
		FeeRate      float64            `yaml:"fee_rate"`
		StartDate    *time.Time         `yaml:"start_date"`
		EndDate      *time.Time         `yaml:"end_date"`
		SamplingMode types.SamplingMode `yaml:"sampling_mode"`
	}

	var raw config
	if err := unmarshal(&raw); err != nil {
		return err
	}

	c.Kind = raw.Kind
	c.Parameters = raw.Parameters
	c.InitialCash = raw.InitialCash
	c.FeeRate = raw.FeeRate
	c.SamplingMode = raw.SamplingMode
	c.StartDate = optional.None[time.Time]()
	c.EndDate = optional.None[time.Time]()

	if raw.StartDate != nil {
		c.StartDate = optional.Some(*raw.StartDate)
	}

	if raw.EndDate != nil {
		c.EndDate = optional.Some(*raw.EndDate)
	}

	return nil
}

// Parse validates the configuration and returns its typed parameters. Every
// failure is an InvalidParameterError since it affects all assets alike.
func (c Config) Parse() (Params, error) {
	for field, value := range map[string]float64{"initial_cash": c.InitialCash, "fee_rate": c.FeeRate} {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return nil, errors.NewInvalidParameterErrorf(string(c.Kind), field, "%s must be a finite number, got %v", field, value)
		}
	}

	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		field := "config"

		var validationErrs validator.ValidationErrors
		if stderrors.As(err, &validationErrs) && len(validationErrs) > 0 {
			field = validationErrs[0].Field()
		}

		return nil, errors.NewInvalidParameterErrorf(string(c.Kind), field, "invalid strategy config: %v", err)
	}

	if c.StartDate.IsSome() && c.EndDate.IsSome() && c.StartDate.Unwrap().After(c.EndDate.Unwrap()) {
		return nil, errors.NewInvalidParameterErrorf(string(c.Kind), "start_date",
			"start_date %s is after end_date %s",
			c.StartDate.Unwrap().Format(time.RFC3339), c.EndDate.Unwrap().Format(time.RFC3339))
	}

	return ParseParams(c.Kind, c.Parameters)
}

// Validate checks the configuration without returning the parsed parameters.
func (c Config) Validate() error {
	_, err := c.Parse()

	return err
}

// Mode returns the configured sampling mode, or fallback when none is set.
func (c Config) Mode(fallback types.SamplingMode) types.SamplingMode {
	if c.SamplingMode == "" {
		return fallback
	}

	return c.SamplingMode
}

// LoadConfig reads a strategy configuration from a YAML file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(errors.ErrCodeStrategyConfigError, err, "failed to read strategy config %s", path)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, errors.Wrapf(errors.ErrCodeStrategyConfigError, err, "failed to parse strategy config %s", path)
	}

	return config, nil
}
