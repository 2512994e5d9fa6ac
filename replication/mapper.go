package replication

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// PROPORTION FACTOR
// =============================================================================

var (
	one                   = decimal.NewFromInt(1)
	nearIdentityTolerance = decimal.RequireFromString("0.1")
)

// Factor is len(destination space) / len(source space).
// The ratio is kept as the two lengths so mapping stays exact: a source index
// whose scaled position is exactly x.5 always rounds away from zero.
type Factor struct {
	dst   int
	src   int
	ratio decimal.Decimal
}

// NewFactor returns false when the source space is empty: the factor is
// undefined and no event can be placed.
func NewFactor(dstLen, srcLen int) (Factor, bool) {
	if srcLen <= 0 || dstLen < 0 {
		return Factor{}, false
	}
	ratio := decimal.NewFromInt(int64(dstLen)).Div(decimal.NewFromInt(int64(srcLen)))
	return Factor{dst: dstLen, src: srcLen, ratio: ratio}, true
}

func (f Factor) Decimal() decimal.Decimal { return f.ratio }

func (f Factor) Float64() float64 {
	v, _ := f.ratio.Float64()
	return v
}

func (f Factor) String() string { return f.ratio.StringFixed(4) }

// NearIdentity reports |factor - 1| < 0.1.
func (f Factor) NearIdentity() bool {
	return f.ratio.Sub(one).Abs().LessThan(nearIdentityTolerance)
}

// =============================================================================
// PROPORTIONAL MAPPER
// =============================================================================

// MapIndex returns round(sourceIndex * factor), rounding half away from zero,
// clamped into [0, len(destination)-1].
func MapIndex(sourceIndex int, f Factor) int {
	if f.src == 0 {
		return 0
	}
	scaled := decimal.NewFromInt(int64(sourceIndex) * int64(f.dst)).
		Div(decimal.NewFromInt(int64(f.src)))
	ideal := int(scaled.Round(0).IntPart())

	if ideal > f.dst-1 {
		ideal = f.dst - 1
	}
	if ideal < 0 {
		ideal = 0
	}
	return ideal
}
