package planner

import (
	"strings"

	"dinnerplanner/kitchen"
)

// Gate returns the required tools the household lacks, in recipe order. An
// empty result means the recipe passes.
func Gate(required []string, eq kitchen.Equipment) []string {
	var missing []string
	seen := make(map[string]bool)
	for _, tool := range required {
		tool = kitchen.CanonicalName(tool)
		if tool == "" || seen[tool] {
			continue
		}
		seen[tool] = true
		if !eq.Has(tool) {
			missing = append(missing, tool)
		}
	}
	return missing
}

func missingEquipmentReason(missing []string) string {
	return ReasonMissingEquipment + ":" + strings.Join(missing, ",")
}
