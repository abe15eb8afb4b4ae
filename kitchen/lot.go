package kitchen

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Confidence describes how trustworthy a lot's recorded quantity is.
type Confidence string

const (
	Exact    Confidence = "exact"
	Estimate Confidence = "estimate"
	Unknown  Confidence = "unknown"
)

func ParseConfidence(s string) (Confidence, error) {
	switch Confidence(CanonicalName(s)) {
	case Exact, "":
		return Exact, nil
	case Estimate:
		return Estimate, nil
	case Unknown:
		return Unknown, nil
	default:
		return "", fmt.Errorf("unknown quantity confidence %q", s)
	}
}

// Amount is a lot quantity together with its confidence. An Unknown amount
// carries no number at all; use Quantity to read it.
type Amount struct {
	confidence Confidence
	qty        decimal.Decimal
}

func ExactAmount(q decimal.Decimal) Amount    { return Amount{confidence: Exact, qty: q} }
func EstimateAmount(q decimal.Decimal) Amount { return Amount{confidence: Estimate, qty: q} }
func UnknownAmount() Amount                   { return Amount{confidence: Unknown} }

func (a Amount) Confidence() Confidence {
	if a.confidence == "" {
		return Exact
	}
	return a.confidence
}

func (a Amount) IsUnknown() bool { return a.confidence == Unknown }

// Quantity returns the known quantity, or false for an Unknown amount.
func (a Amount) Quantity() (decimal.Decimal, bool) {
	if a.IsUnknown() {
		return decimal.Zero, false
	}
	return a.qty, true
}

// WithQuantity returns a copy holding q at the same confidence. Unknown
// amounts are returned unchanged.
func (a Amount) WithQuantity(q decimal.Decimal) Amount {
	if a.IsUnknown() {
		return a
	}
	return Amount{confidence: a.Confidence(), qty: q}
}

func (a Amount) String() string {
	if a.IsUnknown() {
		return "unknown"
	}
	return fmt.Sprintf("%s (%s)", a.qty.String(), a.Confidence())
}

// Lot is one inventory record for an ingredient.
type Lot struct {
	ID        string
	Name      string
	Amount    Amount
	Unit      string
	ExpiresOn *Date
	CreatedAt time.Time
}

type lotJSON struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Quantity   *decimal.Decimal `json:"quantity"`
	Confidence string           `json:"quantity_confidence"`
	Unit       string           `json:"unit"`
	ExpiresOn  *Date            `json:"expiration_date"`
	CreatedAt  time.Time        `json:"created_at"`
}

func (l Lot) MarshalJSON() ([]byte, error) {
	out := lotJSON{
		ID:         l.ID,
		Name:       l.Name,
		Confidence: string(l.Amount.Confidence()),
		Unit:       l.Unit,
		ExpiresOn:  l.ExpiresOn,
		CreatedAt:  l.CreatedAt,
	}
	if q, ok := l.Amount.Quantity(); ok {
		out.Quantity = &q
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the flat lot shape. A null quantity or an "unknown"
// confidence both decode to an Unknown amount.
func (l *Lot) UnmarshalJSON(b []byte) error {
	var in lotJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	conf, err := ParseConfidence(in.Confidence)
	if err != nil {
		return fmt.Errorf("lot %s: %w", in.ID, err)
	}

	var amount Amount
	switch {
	case conf == Unknown || in.Quantity == nil:
		amount = UnknownAmount()
	case in.Quantity.IsNegative():
		return fmt.Errorf("lot %s: negative quantity %s", in.ID, in.Quantity)
	case conf == Estimate:
		amount = EstimateAmount(*in.Quantity)
	default:
		amount = ExactAmount(*in.Quantity)
	}

	*l = Lot{
		ID:        in.ID,
		Name:      CanonicalName(in.Name),
		Amount:    amount,
		Unit:      CanonicalName(in.Unit),
		ExpiresOn: in.ExpiresOn,
		CreatedAt: in.CreatedAt,
	}
	return nil
}

// DaysToExpiry returns whole days from ref to the lot's expiry, or nil when the
// lot never expires.
func (l Lot) DaysToExpiry(ref Date) *int {
	if l.ExpiresOn == nil {
		return nil
	}
	d := ref.DaysUntil(*l.ExpiresOn)
	return &d
}

// Expired reports whether the lot's expiry is before ref.
func (l Lot) Expired(ref Date) bool {
	d := l.DaysToExpiry(ref)
	return d != nil && *d < 0
}
