package strategy

import (
	"github.com/rxtech-lab/argo-screener/pkg/errors"
)

// Kind identifies one of the built-in strategy variants.
type Kind string

const (
	KindRSI           Kind = "rsi"
	KindMACrossover   Kind = "ma_crossover"
	KindMomentum      Kind = "momentum"
	KindBollinger     Kind = "bollinger"
	KindMeanReversion Kind = "mean_reversion"
)

// AllKinds lists every strategy kind. Used for schema enums and CLI help.
var AllKinds = []any{
	KindRSI,
	KindMACrossover,
	KindMomentum,
	KindBollinger,
	KindMeanReversion,
}

// Validate checks that the kind is one of the built-in variants.
func (k Kind) Validate() error {
	if _, ok := paramSpecs[k]; !ok {
		return errors.Newf(errors.ErrCodeUnsupportedStrategy, "unsupported strategy kind %q", string(k))
	}

	return nil
}

func (k Kind) String() string {
	return string(k)
}
