package pipeline

import (
	"sort"

	"equitycli/pkg/contracts/domain"
)

var gradeScale = []domain.Grade{
	domain.GradeA, domain.GradeB, domain.GradeC, domain.GradeD, domain.GradeE,
}

// assignGrades ranks successful results by final value, best first, and
// splits the ranking into five even bands. Failed and insufficient-data
// results stay ungraded. Ties keep report order, so grading is deterministic.
func assignGrades(results []domain.AnalysisResult) {
	var ranked []int
	for i, r := range results {
		if r.OK() {
			ranked = append(ranked, i)
		}
	}
	if len(ranked) == 0 {
		return
	}

	sort.SliceStable(ranked, func(a, b int) bool {
		return results[ranked[a]].FinalValue > results[ranked[b]].FinalValue
	})

	n := len(ranked)
	for pos, idx := range ranked {
		band := pos * len(gradeScale) / n
		results[idx].Grade = gradeScale[band]
	}
}
