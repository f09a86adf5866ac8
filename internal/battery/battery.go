// Package battery converts raw battery voltage samples into a displayable
// charge percentage. The curves are fixed per chemistry.
// This package has NO external dependencies and no state.
package battery

import (
	"fmt"
	"strings"
)

// Anchor is a single (voltage, percent) point on a calibration curve.
type Anchor struct {
	MV      int16
	Percent uint8
}

// lipoCurve is the lithium-polymer discharge curve, ascending by voltage.
// Steps are deliberately non-uniform.
var lipoCurve = [...]Anchor{
	{3300, 0},
	{3500, 10},
	{3600, 20},
	{3700, 40},
	{3800, 60},
	{3900, 70},
	{4000, 80},
	{4100, 90},
	{4200, 100},
}

// coinCellSteps is scanned from the highest threshold down.
var coinCellSteps = [...]Anchor{
	{3000, 100},
	{2980, 90},
	{2960, 80},
	{2940, 70},
	{2920, 60},
	{2900, 50},
	{2880, 40},
	{2830, 30},
	{2730, 20},
	{2600, 10},
}

// LipoToPercent maps a LiPo cell voltage to 0-100 by linear interpolation
// between the anchors. Fractions are truncated.
func LipoToPercent(mv int16) uint8 {
	last := lipoCurve[len(lipoCurve)-1]
	if mv >= last.MV {
		return last.Percent
	}
	if mv <= lipoCurve[0].MV {
		return lipoCurve[0].Percent
	}

	for i := 0; i < len(lipoCurve)-1; i++ {
		lo, hi := lipoCurve[i], lipoCurve[i+1]
		if mv >= lo.MV && mv < hi.MV {
			// 32-bit intermediates: (100 * 900) overflows int16.
			dp := int32(hi.Percent) - int32(lo.Percent)
			dv := int32(hi.MV) - int32(lo.MV)
			return lo.Percent + uint8(dp*(int32(mv)-int32(lo.MV))/dv)
		}
	}
	return 0
}

// CoinCellToPercent maps a coin-cell voltage to a stepped percentage.
func CoinCellToPercent(mv int16) uint8 {
	for _, s := range coinCellSteps {
		if mv >= s.MV {
			return s.Percent
		}
	}
	return 0
}

// Chemistry selects a calibration curve.
type Chemistry string

const (
	ChemistryLiPo     Chemistry = "lipo"
	ChemistryCoinCell Chemistry = "coincell"
)

// ParseChemistry accepts the flag spelling of a chemistry.
func ParseChemistry(s string) (Chemistry, error) {
	switch Chemistry(strings.ToLower(strings.TrimSpace(s))) {
	case ChemistryLiPo:
		return ChemistryLiPo, nil
	case ChemistryCoinCell:
		return ChemistryCoinCell, nil
	}
	return "", fmt.Errorf("unknown battery chemistry %q (want lipo or coincell)", s)
}

// Percent applies the chemistry's curve to mv.
func (c Chemistry) Percent(mv int16) uint8 {
	if c == ChemistryCoinCell {
		return CoinCellToPercent(mv)
	}
	return LipoToPercent(mv)
}
