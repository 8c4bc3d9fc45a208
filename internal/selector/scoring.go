package selector

// tagSet builds a set from a tag slice for fast intersection counting.
func tagSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	return set
}

// similarity returns |tags ∩ primaryTags| / max(|tags|, |primaryTags|), or 0
// if either side is empty.
func similarity(tags []string, primaryTags map[string]struct{}) float64 {
	if len(tags) == 0 || len(primaryTags) == 0 {
		return 0
	}
	overlap := 0
	for _, t := range tags {
		if _, ok := primaryTags[t]; ok {
			overlap++
		}
	}
	denom := len(tags)
	if len(primaryTags) > denom {
		denom = len(primaryTags)
	}
	return float64(overlap) / float64(denom)
}

// scored is an AnalysisItem annotated with its selection score and the
// memory-derived flags the pipeline needs.
type scored struct {
	item       AnalysisItem
	score      float64
	sim        float64
	isNew      bool
	isDue      bool
	isOverdue  bool
	retrieve   float64
	isPrimary  bool
}

// scoreItem computes a candidate's selection score against the primary
// topic's tag set.
func scoreItem(item AnalysisItem, ms MemoryState, tracked bool, primaryTopicID string, primaryTags map[string]struct{}) scored {
	n := isNew(ms, tracked)
	d := isDue(ms, tracked)
	o := isOverdue(ms, tracked)
	r := retrievabilityOf(ms, tracked)
	sim := similarity(item.SimilarityTags, primaryTags)

	var overdueBoost, dueBoost, interleaveBoost, noveltyPenalty float64
	if o {
		overdueBoost = (0.7 - r) * 100
	}
	if d {
		dueBoost = (1 - r) * 20
	}
	if item.TopicID != primaryTopicID {
		interleaveBoost = sim * 8
	}
	if n {
		noveltyPenalty = -2
	}

	return scored{
		item:      item,
		score:     overdueBoost + dueBoost + interleaveBoost + noveltyPenalty,
		sim:       sim,
		isNew:     n,
		isDue:     d,
		isOverdue: o,
		retrieve:  r,
		isPrimary: item.TopicID == primaryTopicID,
	}
}
