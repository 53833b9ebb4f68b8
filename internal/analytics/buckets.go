package analytics

import (
	"strconv"
	"time"

	"github.com/glowhaus/storefront-backend/pkg/enums"
)

type bucket struct {
	label string
	start time.Time
	end   time.Time
}

const (
	weeklyBuckets  = 7
	monthlyBuckets = 12
	yearlyBuckets  = 5
)

// bucketsFor returns contiguous UTC buckets, oldest first, the last one containing now.
func bucketsFor(period enums.AnalyticsPeriod, now time.Time) []bucket {
	now = now.UTC()
	switch period {
	case enums.AnalyticsPeriodMonthly:
		current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		out := make([]bucket, 0, monthlyBuckets)
		for i := monthlyBuckets - 1; i >= 0; i-- {
			start := current.AddDate(0, -i, 0)
			out = append(out, bucket{
				label: start.Month().String()[:3],
				start: start,
				end:   start.AddDate(0, 1, 0),
			})
		}
		return out
	case enums.AnalyticsPeriodYearly:
		out := make([]bucket, 0, yearlyBuckets)
		for i := yearlyBuckets - 1; i >= 0; i-- {
			start := time.Date(now.Year()-i, time.January, 1, 0, 0, 0, 0, time.UTC)
			out = append(out, bucket{
				label: strconv.Itoa(start.Year()),
				start: start,
				end:   start.AddDate(1, 0, 0),
			})
		}
		return out
	default:
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		out := make([]bucket, 0, weeklyBuckets)
		for i := weeklyBuckets - 1; i >= 0; i-- {
			start := today.AddDate(0, 0, -i)
			out = append(out, bucket{
				label: start.Weekday().String()[:3],
				start: start,
				end:   start.AddDate(0, 0, 1),
			})
		}
		return out
	}
}

// indexOf returns the bucket containing t, or -1.
func indexOf(buckets []bucket, t time.Time) int {
	for i, b := range buckets {
		if !t.Before(b.start) && t.Before(b.end) {
			return i
		}
	}
	return -1
}
