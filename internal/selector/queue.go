package selector

// ComposeQueue builds the full session item queue: encounter items, then
// the analysis plan, then return items, deduplicated preserving first
// occurrence. Quick sessions use exactly one encounter item and one
// reflection (return) item regardless of how many are supplied.
func ComposeQueue(encounterItems []string, plan AdaptiveSessionPlan, returnItems []string, sessionType string) []string {
	if sessionType == "quick" {
		if len(encounterItems) > 1 {
			encounterItems = encounterItems[:1]
		}
		if len(returnItems) > 1 {
			returnItems = returnItems[:1]
		}
	}

	seen := make(map[string]bool)
	queue := make([]string, 0, len(encounterItems)+len(plan.SelectedItems)+len(returnItems))

	add := func(id string) {
		if seen[id] {
			return
		}
		seen[id] = true
		queue = append(queue, id)
	}

	for _, id := range encounterItems {
		add(id)
	}
	for _, item := range plan.SelectedItems {
		add(item.ItemID)
	}
	for _, id := range returnItems {
		add(id)
	}
	return queue
}
