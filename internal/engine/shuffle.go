package engine

import "math/rand"

// Shuffle permutes s in place with Fisher-Yates: for i from the last index down to 1,
// swap s[i] with s[j] where j is uniform in [0, i].
func Shuffle[T any](r *rand.Rand, s []T) {
	for i := len(s) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}
