package teetime

import "sort"

// Rank orders candidates by distance from the preferred minute, nearest
// first. Equal distances keep the earlier clock time first. The input slice
// is not modified.
func Rank(candidates []Candidate, preferredMinutes int) []Candidate {
	out := make([]Candidate, len(candidates))
	copy(out, candidates)
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := abs(out[i].Minutes()-preferredMinutes), abs(out[j].Minutes()-preferredMinutes)
		if di != dj {
			return di < dj
		}
		return out[i].Minutes() < out[j].Minutes()
	})
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
