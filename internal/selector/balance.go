package selector

import "math"

// stageBalance resolves the stage-balance table. Quick sessions always use
// the fixed split; standard/extended pick from the 5-bin HBS table.
func stageBalance(sessionType string, hbs float64) StageBalance {
	if sessionType == "quick" {
		return StageBalance{Encounter: 0.1, Analysis: 0.7, Return: 0.2}
	}
	switch {
	case hbs < -0.3:
		return StageBalance{Encounter: 0.30, Analysis: 0.40, Return: 0.30}
	case hbs < -0.1:
		return StageBalance{Encounter: 0.27, Analysis: 0.46, Return: 0.27}
	case hbs <= 0.1:
		return StageBalance{Encounter: 0.25, Analysis: 0.50, Return: 0.25}
	case hbs <= 0.3:
		return StageBalance{Encounter: 0.22, Analysis: 0.56, Return: 0.22}
	default:
		return StageBalance{Encounter: 0.20, Analysis: 0.60, Return: 0.20}
	}
}

// budget resolves the analysis-item budget.
func budget(sessionType string, requested int) int {
	if requested > 0 {
		return int(math.Floor(float64(requested)))
	}
	switch sessionType {
	case "quick":
		return 8
	case "extended":
		return 28
	default:
		return 16
	}
}

type levelRatios struct {
	reviewRatio    float64
	interleaveBase float64
}

var ratiosByLevel = map[int]levelRatios{
	1: {reviewRatio: 0.70, interleaveBase: 0.10},
	2: {reviewRatio: 0.60, interleaveBase: 0.20},
	3: {reviewRatio: 0.55, interleaveBase: 0.25},
	4: {reviewRatio: 0.50, interleaveBase: 0.35},
}

// resolveRatios applies the session-type interleave cap/bonus on top of the
// level's base ratios.
func resolveRatios(level int, sessionType string) levelRatios {
	r, ok := ratiosByLevel[level]
	if !ok {
		r = ratiosByLevel[1]
	}
	switch sessionType {
	case "quick":
		if r.interleaveBase > 0.15 {
			r.interleaveBase = 0.15
		}
	case "extended":
		r.interleaveBase += 0.05
		if r.interleaveBase > 0.40 {
			r.interleaveBase = 0.40
		}
	}
	return r
}

func round(f float64) int {
	return int(math.Round(f))
}
