package util

import (
	"strings"
	"time"

	"github.com/nakachan-ing/dtl-cli/internal/model"
)

// FilterBuckets keeps the buckets whose submission date lies within
// [fromDate, toDate]. Empty bounds are open; unparsable bounds are
// ignored.
func FilterBuckets(buckets []model.DailyTaskBucket, fromDate, toDate string) []model.DailyTaskBucket {
	if fromDate == "" && toDate == "" {
		return buckets
	}
	var filtered []model.DailyTaskBucket
	for _, b := range buckets {
		if IsWithinDateRange(b.SubmissionDate.String(), fromDate, toDate) {
			filtered = append(filtered, b)
		}
	}
	return filtered
}

// IsWithinDateRange reports whether the date part of dateTime lies
// within the bounds.
func IsWithinDateRange(dateTime string, fromDate, toDate string) bool {
	if fromDate == "" && toDate == "" {
		return true
	}

	date := strings.Split(strings.Split(dateTime, " ")[0], "T")[0]
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return false
	}

	if fromDate != "" {
		fromTime, err := time.Parse("2006-01-02", fromDate)
		if err == nil && t.Before(fromTime) {
			return false
		}
	}

	if toDate != "" {
		toTime, err := time.Parse("2006-01-02", toDate)
		if err == nil && t.After(toTime) {
			return false
		}
	}

	return true
}

// FilterPending keeps the buckets that have not been submitted yet.
func FilterPending(buckets []model.DailyTaskBucket) []model.DailyTaskBucket {
	var filtered []model.DailyTaskBucket
	for _, b := range buckets {
		if !b.Submitted {
			filtered = append(filtered, b)
		}
	}
	return filtered
}
