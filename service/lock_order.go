package service

import "sort"

// LockOrder returns the distinct account numbers in ascending order. Every
// unit of work that touches more than one account fetches and locks them in
// this order, so two operations sharing accounts always contend for the same
// first row and can never wait on each other in a cycle.
func LockOrder(numbers ...string) []string {
	seen := make(map[string]struct{}, len(numbers))
	ordered := make([]string, 0, len(numbers))
	for _, n := range numbers {
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		ordered = append(ordered, n)
	}
	sort.Strings(ordered)
	return ordered
}
