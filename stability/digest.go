// Package stability provides the idempotency key for a planning request and
// the banding rule that keeps an already-proposed recipe unless a new one is
// clearly better.
//
// Canonical strings are pipe-delimited, never JSON, so hashes do not depend on
// encoder details. Pattern: "PREFIX|v1|field|field|...".
package stability

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"dinnerplanner/kitchen"
)

func hashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// InventoryDigest hashes lots independent of their order. Every field that can
// change a plan is included, so a one-unit quantity change changes the digest.
func InventoryDigest(lots []kitchen.Lot) string {
	sorted := make([]kitchen.Lot, len(lots))
	copy(sorted, lots)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var b strings.Builder
	b.WriteString("INVENTORY|v2")
	for _, l := range sorted {
		b.WriteString("|")
		b.WriteString(lotCanonical(l))
	}
	return hashString(b.String())
}

func lotCanonical(l kitchen.Lot) string {
	qty := "unknown"
	if q, ok := l.Amount.Quantity(); ok {
		qty = q.String()
	}
	expires := "none"
	if l.ExpiresOn != nil {
		expires = l.ExpiresOn.String()
	}
	return strings.Join([]string{
		escape(l.ID),
		escape(l.Name),
		qty,
		string(l.Amount.Confidence()),
		escape(l.Unit),
		expires,
		l.CreatedAt.UTC().Format(time.RFC3339Nano),
	}, ";")
}

// CalendarDigest hashes busy blocks independent of their order.
func CalendarDigest(blocks []kitchen.CalendarBlock) string {
	sorted := make([]kitchen.CalendarBlock, len(blocks))
	copy(sorted, blocks)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		if !a.End.Equal(b.End) {
			return a.End.Before(b.End)
		}
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		return a.Title < b.Title
	})

	var b strings.Builder
	b.WriteString("CALENDAR|v1")
	for _, blk := range sorted {
		b.WriteString("|")
		b.WriteString(blk.Start.UTC().Format(time.RFC3339Nano))
		b.WriteString(";")
		b.WriteString(blk.End.UTC().Format(time.RFC3339Nano))
		b.WriteString(";")
		b.WriteString(escape(blk.Source))
		b.WriteString(";")
		b.WriteString(escape(blk.Title))
	}
	return hashString(b.String())
}

var escaper = strings.NewReplacer(`\`, `\\`, `|`, `\|`, `;`, `\;`, `=`, `\=`, `,`, `\,`)

// escape keeps free-text fields from forging delimiters.
func escape(s string) string { return escaper.Replace(s) }
