package validate

import (
	"fmt"

	"feedcheck/pkg/feed"
)

// variantAttributes are the fields that legitimately differentiate variants
// within an item group.
var variantAttributes = []string{"color", "size", "pattern", "material", "age_group", "gender"}

// checkVariantGroups flags item groups whose members are indistinguishable:
// two or more rows share an item_group_id but no variant attribute differs.
// One warning per degenerate group, anchored on the group's first row.
func checkVariantGroups(records []feed.Record) []Issue {
	groups := make(map[string][]*feed.Record)
	var order []string // first-seen group order keeps output deterministic

	for i := range records {
		record := &records[i]
		groupID := record.Get("item_group_id")
		if groupID == "" {
			continue
		}
		if _, ok := groups[groupID]; !ok {
			order = append(order, groupID)
		}
		groups[groupID] = append(groups[groupID], record)
	}

	var issues []Issue
	for _, groupID := range order {
		members := groups[groupID]
		if len(members) < 2 {
			continue
		}

		base := members[0]
		differing := false
		for _, member := range members[1:] {
			for _, attr := range variantAttributes {
				if member.Get(attr) != base.Get(attr) {
					differing = true
					break
				}
			}
			if differing {
				break
			}
		}

		if !differing {
			issues = append(issues, Issue{
				RowIndex:  base.Row,
				ItemID:    base.Get("id"),
				ItemTitle: base.Get("title"),
				Field:     "item_group_id",
				Severity:  SeverityWarning,
				Message: fmt.Sprintf("All variants in group '%s' appear identical; ensure variant attributes differ (e.g. color or size).",
					groupID),
				SampleValue: groupID,
			})
		}
	}
	return issues
}
