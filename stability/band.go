package stability

import (
	"github.com/shopspring/decimal"

	"dinnerplanner/kitchen"
)

type Outcome string

const (
	Kept               Outcome = "kept"
	Changed            Outcome = "changed"
	ChangedOldExcluded Outcome = "changed_old_excluded"
)

// Existing is the recipe an earlier, still-proposed plan chose for a date.
type Existing struct {
	Slug  string  `json:"slug"`
	Score float64 `json:"score"`
}

// Decision records the band comparison for one date.
type Decision struct {
	Date       kitchen.Date `json:"date"`
	Outcome    Outcome      `json:"outcome"`
	OldSlug    string       `json:"old_slug"`
	NewSlug    string       `json:"new_slug"`
	OldScore   float64      `json:"old_score"`
	NewScore   float64      `json:"new_score"`
	Threshold  float64      `json:"threshold"`
	BandPct    float64      `json:"band_pct"`
	WithinBand bool         `json:"within_band"`
	// ChosenSlug is the recipe the day ends up with.
	ChosenSlug string `json:"chosen_slug"`
}

// Threshold is old * (1 + band/100), computed exactly.
func Threshold(oldScore, bandPct float64) decimal.Decimal {
	factor := decimal.NewFromInt(1).Add(decimal.NewFromFloat(bandPct).Div(decimal.NewFromInt(100)))
	return decimal.NewFromFloat(oldScore).Mul(factor)
}

// Decide compares a freshly computed winner against the existing one. A new
// score at or below the threshold keeps the old recipe; the caller must still
// confirm the old recipe is eligible and call OldExcluded if it is not.
func Decide(date kitchen.Date, old Existing, newSlug string, newScore, bandPct float64) Decision {
	threshold := Threshold(old.Score, bandPct)
	within := !decimal.NewFromFloat(newScore).GreaterThan(threshold)

	d := Decision{
		Date:       date,
		OldSlug:    old.Slug,
		NewSlug:    newSlug,
		OldScore:   old.Score,
		NewScore:   newScore,
		Threshold:  threshold.InexactFloat64(),
		BandPct:    bandPct,
		WithinBand: within,
	}
	switch {
	case newSlug == old.Slug:
		d.Outcome = Kept
		d.ChosenSlug = old.Slug
	case within:
		d.Outcome = Kept
		d.ChosenSlug = old.Slug
	default:
		d.Outcome = Changed
		d.ChosenSlug = newSlug
	}
	return d
}

// NeedsRerun reports whether keeping the old recipe requires re-planning the
// day with it preferred.
func (d Decision) NeedsRerun() bool {
	return d.Outcome == Kept && d.OldSlug != d.NewSlug
}

// OldExcluded turns a keep decision into a change because the old recipe can
// no longer be chosen.
func (d Decision) OldExcluded() Decision {
	d.Outcome = ChangedOldExcluded
	d.ChosenSlug = d.NewSlug
	return d
}
