package strategy

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type SchemaTestSuite struct {
	suite.Suite
}

func TestSchemaSuite(t *testing.T) {
	suite.Run(t, new(SchemaTestSuite))
}

func (suite *SchemaTestSuite) TestExampleConfigIsValid() {
	for _, kind := range AllKinds {
		config := ExampleConfig(kind.(Kind))
		suite.NoError(config.Validate(), string(config.Kind))
		suite.Len(config.Parameters, len(Specs(config.Kind)))
	}
}

func (suite *SchemaTestSuite) TestMarshalYAMLRoundTrip() {
	config := ExampleConfig(KindRSI)
	config.StartDate = optional.Some(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	data, err := yaml.Marshal(config)
	suite.Require().NoError(err)
	suite.Contains(string(data), "start_date:")
	suite.NotContains(string(data), "end_date")

	var decoded Config
	suite.Require().NoError(yaml.Unmarshal(data, &decoded))

	suite.Equal(config.Kind, decoded.Kind)
	suite.Equal(config.Parameters, decoded.Parameters)
	suite.True(decoded.StartDate.IsSome())
	suite.True(config.StartDate.Unwrap().Equal(decoded.StartDate.Unwrap()))
	suite.True(decoded.EndDate.IsNone())
}

func (suite *SchemaTestSuite) TestGenerateSchema() {
	config := &Config{}
	schemaJSON, err := config.GenerateSchemaJSON()
	suite.Require().NoError(err)

	var parsed map[string]any
	suite.Require().NoError(json.Unmarshal([]byte(schemaJSON), &parsed))
	suite.Equal("strategy-config", parsed["title"])

	properties, ok := parsed["properties"].(map[string]any)
	suite.Require().True(ok)

	kind, ok := properties["kind"].(map[string]any)
	suite.Require().True(ok)
	suite.Len(kind["enum"], len(AllKinds))

	startDate, ok := properties["start_date"].(map[string]any)
	suite.Require().True(ok)
	suite.Equal("date-time", startDate["format"])
}
