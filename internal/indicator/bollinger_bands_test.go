package indicator

import (
	"math"
	"testing"

	"github.com/rxtech-lab/argo-screener/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type BollingerBandsTestSuite struct {
	suite.Suite
}

func TestBollingerBandsSuite(t *testing.T) {
	suite.Run(t, new(BollingerBandsTestSuite))
}

// naiveBands recomputes the bands for index i by brute force.
func naiveBands(values []float64, i, period int, k float64) (middle, upper, lower float64) {
	window := values[i-period+1 : i+1]

	var sum float64
	for _, v := range window {
		sum += v
	}

	middle = sum / float64(period)

	var sq float64
	for _, v := range window {
		sq += (v - middle) * (v - middle)
	}

	sd := math.Sqrt(sq / float64(period))

	return middle, middle + k*sd, middle - k*sd
}

func (suite *BollingerBandsTestSuite) TestMatchesBruteForce() {
	values := []float64{20, 21, 22, 19, 18, 25, 30, 28, 27, 26, 24, 29, 31, 30, 32}

	bands, err := BollingerBands(values, 5, 2)
	suite.Require().NoError(err)
	suite.Equal(4, bands.Middle.Warmup)

	for i := 4; i < len(values); i++ {
		m, u, l := naiveBands(values, i, 5, 2)
		suite.InDelta(m, bands.Middle.Values[i], 1e-9, "middle %d", i)
		suite.InDelta(u, bands.Upper.Values[i], 1e-9, "upper %d", i)
		suite.InDelta(l, bands.Lower.Values[i], 1e-9, "lower %d", i)
	}
}

func (suite *BollingerBandsTestSuite) TestMiddleEqualsMovingAverage() {
	values := []float64{5, 7, 9, 11, 13, 12, 10}

	bands, err := BollingerBands(values, 3, 1.5)
	suite.Require().NoError(err)

	ma, err := MovingAverage(values, 3)
	suite.Require().NoError(err)

	for i := ma.Warmup; i < len(values); i++ {
		suite.InDelta(ma.Values[i], bands.Middle.Values[i], 1e-9)
	}
}

func (suite *BollingerBandsTestSuite) TestConstantSeriesHasZeroWidth() {
	values := []float64{100, 100, 100, 100, 100, 100}

	bands, err := BollingerBands(values, 4, 2)
	suite.Require().NoError(err)

	for i := 3; i < len(values); i++ {
		suite.Equal(100.0, bands.Upper.Values[i])
		suite.Equal(100.0, bands.Lower.Values[i])
	}
}

func (suite *BollingerBandsTestSuite) TestWarmupSentinel() {
	bands, err := BollingerBands([]float64{1, 2, 3}, 3, 2)
	suite.Require().NoError(err)

	suite.False(bands.Upper.Valid(1))
	suite.Equal(MovingAverageSentinel, bands.Lower.Values[0])
	suite.True(bands.Lower.Valid(2))
}

func (suite *BollingerBandsTestSuite) TestInvalidConfig() {
	tests := []struct {
		name   string
		period int
		stdDev float64
		code   errors.ErrorCode
	}{
		{"zero period", 0, 2, errors.ErrCodeInvalidPeriod},
		{"zero stdDev", 20, 0, errors.ErrCodeInvalidStdDevPeriod},
		{"negative stdDev", 20, -1, errors.ErrCodeInvalidStdDevPeriod},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			_, err := BollingerBands([]float64{1, 2, 3}, tc.period, tc.stdDev)
			suite.True(errors.HasCode(err, tc.code))
		})
	}
}

func (suite *BollingerBandsTestSuite) TestEmptyInput() {
	bands, err := BollingerBands(nil, 3, 2)
	suite.Require().NoError(err)
	suite.Equal(0, bands.Middle.Len())
}
