// Package rank orders a snapshot for leaderboard display: finished
// attempts first, fastest time taken on top within each group.
package rank

import (
	"math"
	"regexp"
	"sort"
	"strconv"

	"examboard-api/internal/models"
)

const (
	stateKey     = "State"
	timeTakenKey = "Time taken"

	finished = "Finished"
)

var (
	hoursRe = regexp.MustCompile(`(?i)(\d+)\s*hour`)
	minsRe  = regexp.MustCompile(`(?i)(\d+)\s*min`)
	secsRe  = regexp.MustCompile(`(?i)(\d+)\s*sec`)
)

// Minutes parses a free-text duration like "1 hour 2 mins" into elapsed
// minutes. Attempts still running report "-" or "Not yet graded" there;
// those, and anything that parses to zero, rank last.
func Minutes(timeTaken string) float64 {
	if timeTaken == "" || timeTaken == "-" || timeTaken == "Not yet graded" {
		return math.Inf(1)
	}

	var total float64
	if m := hoursRe.FindStringSubmatch(timeTaken); m != nil {
		h, _ := strconv.Atoi(m[1])
		total += float64(h) * 60
	}
	if m := minsRe.FindStringSubmatch(timeTaken); m != nil {
		mins, _ := strconv.Atoi(m[1])
		total += float64(mins)
	}
	if m := secsRe.FindStringSubmatch(timeTaken); m != nil {
		s, _ := strconv.Atoi(m[1])
		total += float64(s) / 60
	}

	if total == 0 {
		return math.Inf(1)
	}
	return total
}

// Sort orders snap in place. The sort is stable, so ties keep the source
// order of the incoming snapshot.
func Sort(snap models.Snapshot) {
	sort.SliceStable(snap, func(i, j int) bool {
		a, b := snap[i], snap[j]
		finA := a.Value(stateKey) == finished
		finB := b.Value(stateKey) == finished
		if finA != finB {
			return finA
		}
		return Minutes(a.Value(timeTakenKey)) < Minutes(b.Value(timeTakenKey))
	})
}

// Sorted returns a ranked copy, leaving the published snapshot untouched.
func Sorted(snap models.Snapshot) models.Snapshot {
	out := snap.Clone()
	Sort(out)
	return out
}
