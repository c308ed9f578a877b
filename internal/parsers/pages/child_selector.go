package pages

import "sort"

// SelectChild picks the child of an internal node that covers target.
// keys must be sorted ascending by cmp. The child with the smallest key >= target wins; when no key
// qualifies the child keyed zero is the catch-all. ok is false when neither exists.
func SelectChild[K any](keys []K, target K, cmp func(a, b K) int, isZero func(K) bool) (index int, ok bool) {
	i := sort.Search(len(keys), func(i int) bool {
		return cmp(keys[i], target) >= 0
	})
	if i < len(keys) {
		return i, true
	}

	for i, k := range keys {
		if isZero(k) {
			return i, true
		}
	}
	return -1, false
}
