package agent

import (
	"sort"
	"strings"

	"todoassist/internal/task"
)

// matchThreshold is the minimum score for a task to count as referenced;
// tieEpsilon is how close two scores must be to count as equally
// plausible (and therefore ambiguous).
const (
	matchThreshold = 0.5
	tieEpsilon     = 0.05
)

// matchScore rates how strongly a query fragment points at a title.
// Exact > containment > word overlap; everything is compared lowercase
// with punctuation and filler words stripped.
func matchScore(query, title string) float64 {
	qn := stripStopwords(normalize(query))
	tn := stripStopwords(normalize(title))
	if qn == "" || tn == "" {
		return 0
	}
	if qn == tn {
		return 1
	}
	if strings.Contains(tn, qn) || strings.Contains(qn, tn) {
		return 0.9
	}
	qWords := strings.Fields(qn)
	tWords := strings.Fields(tn)
	tSet := make(map[string]struct{}, len(tWords))
	for _, w := range tWords {
		tSet[w] = struct{}{}
	}
	shared := 0
	for _, w := range qWords {
		if _, ok := tSet[w]; ok {
			shared++
		}
	}
	if shared == 0 {
		return 0
	}
	denom := len(qWords)
	if len(tWords) > denom {
		denom = len(tWords)
	}
	// scaled below containment so partial overlap never beats it
	return 0.8 * float64(shared) / float64(denom)
}

// resolveCandidates returns the tasks plausibly referenced by the query.
// Zero results means no match; more than one means the reference is
// ambiguous and must be handed back to the user, never guessed.
func resolveCandidates(tasks []task.Task, query string) []task.Task {
	type scored struct {
		t     task.Task
		score float64
	}
	var hits []scored
	for _, t := range tasks {
		if s := matchScore(query, t.Title); s >= matchThreshold {
			hits = append(hits, scored{t: t, score: s})
		}
	}
	if len(hits) == 0 {
		return nil
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	top := hits[0].score
	out := []task.Task{hits[0].t}
	for _, h := range hits[1:] {
		if top-h.score <= tieEpsilon {
			out = append(out, h.t)
		}
	}
	return out
}
