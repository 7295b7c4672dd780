package calculator

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mmynk/feebill/internal/models"
)

// Clamp describes what the adjustment policy did to a proposed amount.
type Clamp string

const (
	// ClampNone means the proposed amount was accepted as is.
	ClampNone Clamp = "none"
	// ClampFloor means the amount was negative or not a number and became zero.
	ClampFloor Clamp = "floor"
	// ClampCeiling means the amount exceeded the baseline and was lowered to it.
	ClampCeiling Clamp = "ceiling"
)

// Adjustment records the outcome of one fee edit.
type Adjustment struct {
	Component models.FeeComponent
	Proposed  float64
	Final     float64
	Clamp     Clamp
}

// Clamped reports whether the proposed amount was changed.
func (a Adjustment) Clamped() bool {
	return a.Clamp != ClampNone
}

// Adjust applies a user edit to one fee component.
// The final amount is clamp(proposed, 0, baseline[c]): fees can be reduced
// but never raised above the class baseline. NaN and infinities become zero.
//
// The returned FeeData is a copy with only c replaced; current is never
// modified. An unknown component returns current unchanged and
// models.ErrUnknownComponent.
func Adjust(current models.FeeData, c models.FeeComponent, proposed float64, baseline models.FeeData) (models.FeeData, Adjustment, error) {
	if !c.Valid() {
		return current, Adjustment{}, fmt.Errorf("%w: %q", models.ErrUnknownComponent, c)
	}

	final, clamp := clampAmount(proposed, baseline.Get(c))
	return current.With(c, final), Adjustment{
		Component: c,
		Proposed:  proposed,
		Final:     final,
		Clamp:     clamp,
	}, nil
}

// AdjustByName is Adjust for raw form input: a field name such as
// "academicFee" and the text typed into it. Text that is not a number is
// treated as zero.
func AdjustByName(current models.FeeData, name, raw string, baseline models.FeeData) (models.FeeData, Adjustment, error) {
	c, err := models.ParseFeeComponent(name)
	if err != nil {
		return current, Adjustment{}, err
	}
	return Adjust(current, c, ParseAmount(raw), baseline)
}

// ClampAll brings every component of fees into [0, baseline].
func ClampAll(fees, baseline models.FeeData) models.FeeData {
	for _, c := range models.AllComponents {
		final, _ := clampAmount(fees.Get(c), baseline.Get(c))
		fees = fees.With(c, final)
	}
	return fees
}

// ParseAmount parses a monetary input field. Anything that is not a finite
// number parses as zero; values are rounded to cents.
func ParseAmount(raw string) float64 {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}

func clampAmount(proposed, max float64) (float64, Clamp) {
	if math.IsNaN(proposed) || math.IsInf(proposed, -1) || proposed < 0 {
		return 0, ClampFloor
	}
	if max < 0 {
		max = 0
	}
	if proposed > max {
		return max, ClampCeiling
	}
	return proposed, ClampNone
}
