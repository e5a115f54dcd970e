// ABOUTME: Shared CLI helpers for parsing input and formatting output.
// ABOUTME: Includes ID prefix resolution, time parsing and column padding.
package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/harperreed/lift/internal/models"
	"github.com/harperreed/lift/internal/storage"
)

func parseTime(s string) (time.Time, error) {
	formats := []string{
		"2006-01-02 15:04",
		"2006-01-02T15:04",
		"2006-01-02",
		time.RFC3339,
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time format")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}

// resolve finds the one item whose id equals or starts with prefix.
func resolve[T storage.Record](items []T, prefix, kind string) (T, error) {
	var zero T
	if prefix == "" {
		return zero, fmt.Errorf("%s id is required", kind)
	}
	var matches []T
	for _, it := range items {
		id := it.RecordID()
		if id == prefix {
			return it, nil
		}
		if strings.HasPrefix(id, prefix) {
			matches = append(matches, it)
		}
	}
	switch len(matches) {
	case 0:
		return zero, fmt.Errorf("%s not found: %s", kind, prefix)
	case 1:
		return matches[0], nil
	default:
		return zero, fmt.Errorf("%s prefix %s is ambiguous (%d matches)", kind, prefix, len(matches))
	}
}

// position parses a 1-based position argument into a 0-based index.
func position(arg, what string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid %s number: %s", what, arg)
	}
	return n - 1, nil
}

// formatSet renders weight x reps with dashes for missing values.
func formatSet(weight *float64, reps *int) string {
	w, r := "-", "-"
	if weight != nil {
		w = strconv.FormatFloat(*weight, 'f', -1, 64)
	}
	if reps != nil {
		r = strconv.Itoa(*reps)
	}
	return w + " x " + r
}

func shortID(id string) string {
	return models.ShortID(id)
}
