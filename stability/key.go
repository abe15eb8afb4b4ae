package stability

import (
	"sort"
	"strconv"
	"strings"
)

// Horizon is the canonical form of a planning horizon.
type Horizon struct {
	Mode     string
	NDinners int
	Start    string
	End      string
}

// KeyInput is everything the stable key covers.
type KeyInput struct {
	HouseholdID     string
	Horizon         Horizon
	Overrides       map[string]string
	Options         map[string]string
	InventoryDigest string
	CalendarDigest  string
}

// CanonicalString returns the pipe-delimited canonical representation.
// Format: PLAN_KEY|v1|household|mode;n;start;end|overrides|options|inventory|calendar
func (in KeyInput) CanonicalString() string {
	var b strings.Builder
	b.WriteString("PLAN_KEY|v1|")
	b.WriteString(escape(in.HouseholdID))
	b.WriteString("|")
	b.WriteString(escape(in.Horizon.Mode))
	b.WriteString(";")
	b.WriteString(strconv.Itoa(in.Horizon.NDinners))
	b.WriteString(";")
	b.WriteString(in.Horizon.Start)
	b.WriteString(";")
	b.WriteString(in.Horizon.End)
	b.WriteString("|")
	b.WriteString(canonicalMap(in.Overrides))
	b.WriteString("|")
	b.WriteString(canonicalMap(in.Options))
	b.WriteString("|")
	b.WriteString(in.InventoryDigest)
	b.WriteString("|")
	b.WriteString(in.CalendarDigest)
	return b.String()
}

// StableKey hashes the canonical input. Identical inputs always give the same key.
func StableKey(in KeyInput) string {
	return hashString(in.CanonicalString())
}

func canonicalMap(m map[string]string) string {
	if len(m) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, escape(k)+"="+escape(m[k]))
	}
	return strings.Join(parts, ",")
}
