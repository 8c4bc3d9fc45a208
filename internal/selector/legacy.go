package selector

// PlanLegacy is the simplified small-scale selector for levels 1-2, kept
// alongside the full engine for test fidelity. It shares scoreItem's
// scoring scheme but applies a fixed slot budget instead of the full
// pipeline.
func PlanLegacy(input PlanInput) AdaptiveSessionPlan {
	level := input.CurrentLevel
	if level < 1 {
		level = 1
	}
	if level > 2 {
		level = 2
	}

	primaryTags := primaryTagSet(input)
	var primary []scored
	for _, topic := range input.AvailableTopics {
		if topic.TopicID != input.PrimaryTopicID {
			continue
		}
		for _, item := range topic.Items {
			if item.DifficultyLevel > level {
				continue
			}
			ms, tracked := input.MemoryStates[item.ItemID]
			primary = append(primary, scoreItem(item, ms, tracked, input.PrimaryTopicID, primaryTags))
		}
	}
	sortByScoreDesc(primary)

	const maxTotal = 5
	var selected []SelectedItem

	switch level {
	case 1:
		learning := 0
		for _, c := range primary {
			if len(selected) >= maxTotal {
				break
			}
			if c.isNew {
				if learning >= 3 {
					continue
				}
				learning++
				selected = append(selected, pick(c, ReasonNewPrimary))
				continue
			}
			selected = append(selected, pick(c, ReasonDue))
		}
	default: // level 2: 60/40 review/new split, new capped at 5.
		reviewBudget := round(maxTotal * 0.6)
		newBudget := maxTotal - reviewBudget
		reviewCount, newCount := 0, 0
		for _, c := range primary {
			if len(selected) >= maxTotal {
				break
			}
			if c.isNew {
				if newCount >= newBudget {
					continue
				}
				newCount++
				selected = append(selected, pick(c, ReasonNewPrimary))
				continue
			}
			if reviewCount >= reviewBudget {
				continue
			}
			reviewCount++
			selected = append(selected, pick(c, ReasonDue))
		}
	}

	return AdaptiveSessionPlan{
		Level:         level,
		NextLevel:     promote(level, primary),
		StageBalance:  stageBalance(input.SessionType, input.HemisphereBalanceScore),
		SelectedItems: selected,
		Rationale:     "legacy small-scale selector",
	}
}
