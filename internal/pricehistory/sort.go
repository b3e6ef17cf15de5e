package pricehistory

import "sort"

// SortChronologically returns a copy of s ordered by Date ascending. The sort
// is stable: points with equal dates keep their input order, and duplicates
// are kept as distinct points.
func SortChronologically(s Series) Series {
	sorted := s.Clone()
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return sorted
}
