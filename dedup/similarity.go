// ABOUTME: This file computes title similarity as a matching-subsequence ratio
// ABOUTME: Operates on code points so Devanagari, Tamil, and other scripts compare correctly
package dedup

// SimilarityRatio returns 2*M/T where M is the total length of matching
// blocks between the two rune sequences and T the combined length. The
// ratio is symmetric and equals 1 for identical inputs.
func SimilarityRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}
	matched := matchingTotal(ra, rb)
	return 2.0 * float64(matched) / float64(total)
}

// matchingTotal sums matching block lengths: find the longest common
// block, then recurse into the unmatched regions on both sides.
func matchingTotal(a, b []rune) int {
	aStart, bStart, size := longestMatch(a, b)
	if size == 0 {
		return 0
	}
	total := size
	total += matchingTotal(a[:aStart], b[:bStart])
	total += matchingTotal(a[aStart+size:], b[bStart+size:])
	return total
}

// longestMatch finds the longest common contiguous block via dynamic
// programming over suffix lengths. Ties resolve to the earliest block in
// a, then in b.
func longestMatch(a, b []rune) (aStart, bStart, size int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
				if curr[j] > size {
					size = curr[j]
					aStart = i - size
					bStart = j - size
				}
			} else {
				curr[j] = 0
			}
		}
		prev, curr = curr, prev
	}
	return aStart, bStart, size
}
