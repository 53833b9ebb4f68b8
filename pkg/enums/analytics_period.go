package enums

import "fmt"

// AnalyticsPeriod selects the bucketing of dashboard series.
type AnalyticsPeriod string

const (
	AnalyticsPeriodWeekly  AnalyticsPeriod = "weekly"
	AnalyticsPeriodMonthly AnalyticsPeriod = "monthly"
	AnalyticsPeriodYearly  AnalyticsPeriod = "yearly"
)

var validAnalyticsPeriods = []AnalyticsPeriod{
	AnalyticsPeriodWeekly,
	AnalyticsPeriodMonthly,
	AnalyticsPeriodYearly,
}

// String implements fmt.Stringer.
func (p AnalyticsPeriod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known AnalyticsPeriod.
func (p AnalyticsPeriod) IsValid() bool {
	for _, candidate := range validAnalyticsPeriods {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseAnalyticsPeriod converts raw input into an AnalyticsPeriod.
func ParseAnalyticsPeriod(value string) (AnalyticsPeriod, error) {
	for _, candidate := range validAnalyticsPeriods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid analytics period %q", value)
}
