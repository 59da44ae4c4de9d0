package utils

import "sort"

func SliceContains[K comparable](l []K, key K) bool {
	for _, k := range l {
		if k == key {
			return true
		}
	}
	return false
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
