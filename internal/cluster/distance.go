package cluster

// Distance returns the Levenshtein distance between two token sequences,
// counting whole-token insertions, deletions and substitutions.
//
// Only two rows of length len(b)+1 are kept, so memory is O(len(b)).
func Distance(a, b []string) int {
	m := len(b)

	prev := make([]int, m+1)
	curr := make([]int, m+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= m; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j-1]+cost, prev[j]+1, curr[j-1]+1)
		}
		prev, curr = curr, prev
	}

	return prev[m]
}

// Similarity converts a distance against an incoming sequence of length n
// into a score of 1 - d/n. An empty incoming sequence scores 0.
//
// The score can go negative when the distance exceeds n; such values sit
// below any usable threshold.
func Similarity(distance, n int) float64 {
	if n == 0 {
		return 0
	}
	return 1 - float64(distance)/float64(n)
}
