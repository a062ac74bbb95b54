package mocks

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type BarGeneratorTestSuite struct {
	suite.Suite
}

func TestBarGeneratorSuite(t *testing.T) {
	suite.Run(t, new(BarGeneratorTestSuite))
}

func (suite *BarGeneratorTestSuite) TestGenerate() {
	config := DefaultConfig()
	config.Count = 200

	bars := NewBarGenerator(42).Generate(config)
	suite.Len(bars, 200)

	for i, bar := range bars {
		suite.Positive(bar.Close)
		suite.GreaterOrEqual(bar.High, bar.Low)

		if i > 0 {
			suite.True(bar.Time.After(bars[i-1].Time))
		}
	}
}

func (suite *BarGeneratorTestSuite) TestReproducible() {
	config := DefaultConfig()

	suite.Equal(NewBarGenerator(7).Generate(config), NewBarGenerator(7).Generate(config))
	suite.NotEqual(NewBarGenerator(7).Generate(config), NewBarGenerator(8).Generate(config))
}

func (suite *BarGeneratorTestSuite) TestGenerateUniverse() {
	config := DefaultConfig()
	config.Count = 50

	universe := NewBarGenerator(1).GenerateUniverse([]string{"A", "B", "C"}, config)
	suite.Len(universe, 3)
	suite.NotEqual(universe["A"][0].Open, universe["B"][0].Open)

	for _, bars := range universe {
		suite.Len(bars, 50)
	}
}
