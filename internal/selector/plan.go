package selector

import "sort"

// Plan builds the analysis-stage item selection for one session.
func Plan(input PlanInput) AdaptiveSessionPlan {
	level := input.CurrentLevel
	if level < 1 {
		level = 1
	}
	if level > 4 {
		level = 4
	}

	balance := stageBalance(input.SessionType, input.HemisphereBalanceScore)
	b := budget(input.SessionType, input.AnalysisItemBudget)
	ratios := resolveRatios(level, input.SessionType)

	primaryTags := primaryTagSet(input)

	var all []scored
	for _, topic := range input.AvailableTopics {
		for _, item := range topic.Items {
			if item.DifficultyLevel > level {
				continue
			}
			ms, tracked := input.MemoryStates[item.ItemID]
			all = append(all, scoreItem(item, ms, tracked, input.PrimaryTopicID, primaryTags))
		}
	}

	sortByScoreDesc(all)

	reviewTarget := round(float64(b) * ratios.reviewRatio)
	interleaveTarget := round(float64(b) * ratios.interleaveBase)
	overdueCap := round(float64(b) * 0.25)

	selected := make([]SelectedItem, 0, b)
	used := make(map[string]bool)

	// Pool 1: overdue (primary topic), capped.
	overdueCount := 0
	for _, c := range all {
		if len(selected) >= b || overdueCount >= overdueCap {
			break
		}
		if !c.isPrimary || !c.isOverdue || used[c.item.ItemID] {
			continue
		}
		selected = append(selected, pick(c, ReasonOverdue))
		used[c.item.ItemID] = true
		overdueCount++
	}

	// Pool 2: due, not overdue (primary topic), up to reviewTarget total
	// selected-so-far.
	for _, c := range all {
		if len(selected) >= b || len(selected) >= reviewTarget {
			break
		}
		if !c.isPrimary || !c.isDue || c.isOverdue || used[c.item.ItemID] {
			continue
		}
		selected = append(selected, pick(c, ReasonDue))
		used[c.item.ItemID] = true
	}

	// Pool 3: new primary items, filling to budget − interleaveTarget.
	newCeiling := b - interleaveTarget
	for _, c := range all {
		if len(selected) >= b || len(selected) >= newCeiling {
			break
		}
		if !c.isPrimary || !c.isNew || used[c.item.ItemID] {
			continue
		}
		selected = append(selected, pick(c, ReasonNewPrimary))
		used[c.item.ItemID] = true
	}

	// Pool 4: related interleave — non-primary, interleave-eligible,
	// similarity >= 0.5, not new.
	for _, c := range all {
		if len(selected) >= b {
			break
		}
		if c.isPrimary || used[c.item.ItemID] {
			continue
		}
		if !c.item.InterleaveEligible || c.sim < 0.5 || c.isNew {
			continue
		}
		selected = append(selected, pick(c, ReasonInterleaved))
		used[c.item.ItemID] = true
	}

	// Pool 5: fill — whatever remains, non-overdue, non-due, any topic.
	for _, c := range all {
		if len(selected) >= b {
			break
		}
		if used[c.item.ItemID] || c.isOverdue || c.isDue {
			continue
		}
		selected = append(selected, pick(c, ReasonFill))
		used[c.item.ItemID] = true
	}

	if len(selected) > b {
		selected = selected[:b]
	}

	ordered := interleaveOrder(selected)

	nextLevel := promote(level, all)

	return AdaptiveSessionPlan{
		Level:         level,
		NextLevel:     nextLevel,
		StageBalance:  balance,
		SelectedItems: ordered,
		Rationale:     rationale(len(ordered), b, level, nextLevel),
	}
}

func pick(c scored, reason SelectionReason) SelectedItem {
	return SelectedItem{ItemID: c.item.ItemID, TopicID: c.item.TopicID, Score: c.score, Reason: reason}
}

func primaryTagSet(input PlanInput) map[string]struct{} {
	set := make(map[string]struct{})
	for _, topic := range input.AvailableTopics {
		if topic.TopicID != input.PrimaryTopicID {
			continue
		}
		for _, item := range topic.Items {
			for _, tag := range item.SimilarityTags {
				set[tag] = struct{}{}
			}
		}
	}
	return set
}

func sortByScoreDesc(items []scored) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].score != items[j].score {
			return items[i].score > items[j].score
		}
		return items[i].item.ItemID < items[j].item.ItemID
	})
}

// interleaveOrder emits selected items by descending score when none are
// interleaved; otherwise it places interleaved items at regular intervals
// among the core (non-interleaved) items.
func interleaveOrder(selected []SelectedItem) []SelectedItem {
	sorted := append([]SelectedItem(nil), selected...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })

	var core, interleaved []SelectedItem
	for _, s := range sorted {
		if s.Reason == ReasonInterleaved {
			interleaved = append(interleaved, s)
		} else {
			core = append(core, s)
		}
	}
	if len(interleaved) == 0 {
		return sorted
	}

	stride := len(core) / len(interleaved)
	if stride < 1 {
		stride = 1
	}

	out := make([]SelectedItem, 0, len(selected))
	ci, ii := 0, 0
	for ci < len(core) || ii < len(interleaved) {
		for n := 0; n < stride && ci < len(core); n++ {
			out = append(out, core[ci])
			ci++
		}
		if ii < len(interleaved) {
			out = append(out, interleaved[ii])
			ii++
		}
	}
	return out
}

// promote computes the next level from the promotion thresholds, based
// on average retrievability among primary, non-new, previously-reviewed
// items.
func promote(level int, all []scored) int {
	var sum float64
	var count int
	for _, c := range all {
		if !c.isPrimary || c.isNew {
			continue
		}
		sum += c.retrieve
		count++
	}
	if count == 0 {
		return level
	}
	avg := sum / float64(count)

	switch level {
	case 1:
		if avg >= 0.72 {
			return 2
		}
	case 2:
		if avg >= 0.80 {
			return 3
		}
	case 3:
		if avg >= 0.86 {
			return 4
		}
	}
	return level
}

func rationale(selectedCount, b, level, nextLevel int) string {
	if nextLevel > level {
		return "selected within budget; retrievability trend supports promotion"
	}
	return "selected within budget; level unchanged"
}
