package strategy

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-screener/internal/types"
	"github.com/rxtech-lab/argo-screener/pkg/errors"
	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func validConfig() Config {
	return Config{
		Kind:        KindRSI,
		Parameters:  map[string]float64{"period": 3},
		InitialCash: 1000,
		FeeRate:     0.001,
		StartDate:   optional.None[time.Time](),
		EndDate:     optional.None[time.Time](),
	}
}

func (suite *ConfigTestSuite) TestUnmarshalYAML() {
	data := `
kind: ma_crossover
parameters:
  fast_period: 5
  slow_period: 20
initial_cash: 10000
fee_rate: 0.001
start_date: 2024-01-01T00:00:00Z
sampling_mode: 1h
`

	var config Config
	suite.Require().NoError(yaml.Unmarshal([]byte(data), &config))

	suite.Equal(KindMACrossover, config.Kind)
	suite.Equal(map[string]float64{"fast_period": 5, "slow_period": 20}, config.Parameters)
	suite.Equal(10000.0, config.InitialCash)
	suite.Equal(0.001, config.FeeRate)
	suite.Equal(types.SamplingMode1h, config.SamplingMode)
	suite.True(config.StartDate.IsSome())
	suite.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), config.StartDate.Unwrap().UTC())
	suite.True(config.EndDate.IsNone())
}

func (suite *ConfigTestSuite) TestParse() {
	params, err := validConfig().Parse()
	suite.Require().NoError(err)
	suite.Equal(RSIParams{Period: 3, Oversold: 30, Overbought: 70}, params)
}

func (suite *ConfigTestSuite) TestInvalidConfig() {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero cash", func(c *Config) { c.InitialCash = 0 }},
		{"negative cash", func(c *Config) { c.InitialCash = -5 }},
		{"infinite cash", func(c *Config) { c.InitialCash = math.Inf(1) }},
		{"nan cash", func(c *Config) { c.InitialCash = math.NaN() }},
		{"max float cash", func(c *Config) { c.InitialCash = math.MaxFloat64 }},
		{"cash above cap", func(c *Config) { c.InitialCash = 2e15 }},
		{"nan fee", func(c *Config) { c.FeeRate = math.NaN() }},
		{"fee above one", func(c *Config) { c.FeeRate = 1.5 }},
		{"negative fee", func(c *Config) { c.FeeRate = -0.1 }},
		{"unknown kind", func(c *Config) { c.Kind = "grid" }},
		{"missing kind", func(c *Config) { c.Kind = "" }},
		{"bad sampling mode", func(c *Config) { c.SamplingMode = "2d" }},
		{"bad parameter", func(c *Config) { c.Parameters["period"] = 0 }},
		{"start after end", func(c *Config) {
			c.StartDate = optional.Some(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
			c.EndDate = optional.Some(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
		}},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			config := validConfig()
			tc.mutate(&config)

			err := config.Validate()
			suite.Error(err)
			suite.True(errors.IsInvalidParameterError(err))
		})
	}
}

func (suite *ConfigTestSuite) TestFeeRateBoundsAccepted() {
	config := validConfig()
	config.FeeRate = 0
	suite.NoError(config.Validate())

	config.FeeRate = 1
	suite.NoError(config.Validate())
}

func (suite *ConfigTestSuite) TestInitialCashBounds() {
	config := validConfig()
	config.InitialCash = 1e15
	suite.NoError(config.Validate())

	data := `
kind: rsi
initial_cash: .inf
`

	var parsed Config
	suite.Require().NoError(yaml.Unmarshal([]byte(data), &parsed))
	suite.True(math.IsInf(parsed.InitialCash, 1))

	err := parsed.Validate()
	suite.True(errors.IsInvalidParameterError(err))
	suite.Contains(err.Error(), "initial_cash")
}

func (suite *ConfigTestSuite) TestMode() {
	config := validConfig()
	suite.Equal(types.SamplingMode1d, config.Mode(types.SamplingMode1d))

	config.SamplingMode = types.SamplingMode4h
	suite.Equal(types.SamplingMode4h, config.Mode(types.SamplingMode1d))
}

func (suite *ConfigTestSuite) TestLoadConfig() {
	path := filepath.Join(suite.T().TempDir(), "strategy.yaml")
	suite.Require().NoError(os.WriteFile(path, []byte("kind: bollinger\ninitial_cash: 500\n"), 0644))

	config, err := LoadConfig(path)
	suite.Require().NoError(err)
	suite.Equal(KindBollinger, config.Kind)
	suite.Equal(500.0, config.InitialCash)
	suite.True(config.StartDate.IsNone())

	_, err = LoadConfig(filepath.Join(suite.T().TempDir(), "missing.yaml"))
	suite.True(errors.HasCode(err, errors.ErrCodeStrategyConfigError))
}
