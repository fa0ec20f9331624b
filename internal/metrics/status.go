package metrics

import "sort"

// StatusCount is one row of the status-code histogram.
type StatusCount struct {
	Code  string
	Count int64
}

// SortStatusCounts converts a status-code map into rows sorted by
// descending count, then by code for stability.
func SortStatusCounts(codes map[string]int64) []StatusCount {
	if len(codes) == 0 {
		return nil
	}
	rows := make([]StatusCount, 0, len(codes))
	for code, count := range codes {
		rows = append(rows, StatusCount{Code: code, Count: count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count == rows[j].Count {
			return rows[i].Code < rows[j].Code
		}
		return rows[i].Count > rows[j].Count
	})
	return rows
}

// ErrorCount is one row of the error-classification breakdown.
type ErrorCount struct {
	Class string
	Count int64
}

// SortErrorCounts converts an error-class map into rows sorted by
// descending count, then by class name.
func SortErrorCounts(errors map[string]int64) []ErrorCount {
	if len(errors) == 0 {
		return nil
	}
	rows := make([]ErrorCount, 0, len(errors))
	for class, count := range errors {
		rows = append(rows, ErrorCount{Class: class, Count: count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count == rows[j].Count {
			return rows[i].Class < rows[j].Class
		}
		return rows[i].Count > rows[j].Count
	})
	return rows
}
