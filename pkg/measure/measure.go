// Package measure converts ingredient quantities between volume and weight
// units using a per-ingredient density table, and formats quantities for
// display. The package is stateless: every function is a pure computation
// over immutable package-level lookup tables, safe for concurrent use.
//
// The conversion contract is permissive by design. Unknown units fall back
// to a multiplier of 1 mL per unit and unknown ingredients fall back to the
// "default" density of 1.0 g/mL (water-like); no function in this package
// returns an error. Callers that need to surface the imprecision of a
// cross-category conversion can consult IsVolumeUnit / IsWeightUnit.
package measure

import (
	"math"
	"strconv"
	"strings"
)

// Measurement is an ephemeral amount/unit pair passed through conversions.
// Persistence of the canonical gram amount and the chosen display unit is
// the caller's responsibility.
type Measurement struct {
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

// DefaultIngredient is the density-table key used when an ingredient has no
// entry of its own. Its density is 1.0 g/mL.
const DefaultIngredient = "default"

// densityByIngredient maps a lowercase ingredient name to grams per
// milliliter. The "default" entry always exists and is the fallback for any
// ingredient not tabulated here.
var densityByIngredient = map[string]float64{
	DefaultIngredient: 1.0,
	"water":           1.0,
	"milk":            1.03,
	"heavy cream":     0.99,
	"flour":           0.5,
	"bread flour":     0.55,
	"sugar":           0.85,
	"brown sugar":     0.72,
	"powdered sugar":  0.56,
	"butter":          0.91,
	"oil":             0.92,
	"olive oil":       0.92,
	"honey":           1.42,
	"maple syrup":     1.32,
	"salt":            1.2,
	"rice":            0.85,
	"oats":            0.41,
	"cocoa powder":    0.52,
	"cornstarch":      0.64,
	"yogurt":          1.04,
}

// millilitersByVolumeUnit maps a lowercase volume-unit alias (full word,
// abbreviation, and plural) to its size in milliliters. Every value is
// positive.
var millilitersByVolumeUnit = map[string]float64{
	"ml":           1,
	"milliliter":   1,
	"milliliters":  1,
	"millilitre":   1,
	"millilitres":  1,
	"l":            1000,
	"liter":        1000,
	"liters":       1000,
	"litre":        1000,
	"litres":       1000,
	"tsp":          5,
	"teaspoon":     5,
	"teaspoons":    5,
	"tbsp":         15,
	"tablespoon":   15,
	"tablespoons":  15,
	"cup":          250,
	"cups":         250,
	"fl oz":        29.57,
	"floz":         29.57,
	"fluid ounce":  29.57,
	"fluid ounces": 29.57,
}

// gramsByWeightUnit maps a lowercase weight-unit alias to grams per unit.
var gramsByWeightUnit = map[string]float64{
	"g":         1,
	"gram":      1,
	"grams":     1,
	"kg":        1000,
	"kilogram":  1000,
	"kilograms": 1000,
	"oz":        28.35,
	"ounce":     28.35,
	"ounces":    28.35,
	"lb":        453.592,
	"lbs":       453.592,
	"pound":     453.592,
	"pounds":    453.592,
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Density returns the tabulated grams-per-milliliter density for the named
// ingredient, falling back to the "default" entry (1.0) when the ingredient
// is not tabulated. Lookup is case-insensitive.
func Density(ingredient string) float64 {
	if d, ok := densityByIngredient[normalize(ingredient)]; ok {
		return d
	}
	return densityByIngredient[DefaultIngredient]
}

// IsVolumeUnit reports whether unit is a known volume-unit alias.
func IsVolumeUnit(unit string) bool {
	_, ok := millilitersByVolumeUnit[normalize(unit)]
	return ok
}

// IsWeightUnit reports whether unit is a known weight-unit alias.
func IsWeightUnit(unit string) bool {
	_, ok := gramsByWeightUnit[normalize(unit)]
	return ok
}

// milliliters returns the mL-per-unit multiplier for a volume unit. Unknown
// units are treated as 1 mL per unit rather than failing.
func milliliters(unit string) float64 {
	if ml, ok := millilitersByVolumeUnit[normalize(unit)]; ok {
		return ml
	}
	return 1
}

// VolumeToWeight converts an amount expressed in a volume unit into grams
// for the named ingredient. Unknown units and ingredients degrade to the
// neutral fallbacks documented on the package.
func VolumeToWeight(amount float64, volumeUnit, ingredient string) float64 {
	return amount * milliliters(volumeUnit) * Density(ingredient)
}

// WeightToVolume converts grams into the target volume unit for the named
// ingredient. Inverse of VolumeToWeight under a consistent density lookup.
func WeightToVolume(grams float64, targetUnit, ingredient string) float64 {
	return grams / Density(ingredient) / milliliters(targetUnit)
}

// Convert converts an amount between two arbitrary units for the named
// ingredient. Same-category conversions use direct ratio arithmetic;
// cross-category conversions route through grams via the ingredient
// density. When either unit cannot be classified as volume or weight the
// original amount is returned unchanged.
func Convert(amount float64, fromUnit, toUnit, ingredient string) float64 {
	from := normalize(fromUnit)
	to := normalize(toUnit)

	fromML, fromVolume := millilitersByVolumeUnit[from]
	fromG, fromWeight := gramsByWeightUnit[from]
	toML, toVolume := millilitersByVolumeUnit[to]
	toG, toWeight := gramsByWeightUnit[to]

	switch {
	case fromVolume && toVolume:
		return amount * fromML / toML
	case fromWeight && toWeight:
		return amount * fromG / toG
	case fromVolume && toWeight:
		return VolumeToWeight(amount, from, ingredient) / toG
	case fromWeight && toVolume:
		return WeightToVolume(amount*fromG, to, ingredient)
	default:
		return amount
	}
}

// Scale multiplies a measurement by a viewer-chosen factor, leaving the
// unit untouched.
func Scale(m Measurement, factor float64) Measurement {
	return Measurement{Amount: m.Amount * factor, Unit: m.Unit}
}

// Format renders a measurement for display. The amount is rounded to two
// decimal places with trailing zeros dropped, and a plural unit is reduced
// to its singular form when the rounded amount is exactly 1 ("1 cup", not
// "1 cups"). No locale handling; output is plain ASCII.
func Format(amount float64, unit string) string {
	rounded := math.Round(amount*100) / 100
	display := strings.TrimSpace(unit)
	if rounded == 1 && strings.HasSuffix(display, "s") {
		display = strings.TrimSuffix(display, "s")
	}
	text := strconv.FormatFloat(rounded, 'f', -1, 64)
	if display == "" {
		return text
	}
	return text + " " + display
}
