// Package report is the read-only aggregation engine. The arithmetic lives
// in pure helpers; the service only reads through repositories and never
// mutates entity state.
package report

import (
	"math"
	"time"

	"github.com/trezcool/shule/core"
)

// Performance bands.
const (
	BandExcellent        = "Excellent"
	BandGood             = "Good"
	BandNeedsImprovement = "Needs Improvement"
)

const MonthLayout = "2006-01"

// Round2 rounds half away from zero to 2 decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// AttendancePercent is present/total*100 rounded to 2 decimal places; 0 when
// there is nothing to count.
func AttendancePercent(present, total int) float64 {
	if total == 0 {
		return 0
	}
	return Round2(float64(present) / float64(total) * 100)
}

// GradeAverage is the mean of the given grades, 0 when there are none.
func GradeAverage(grades []float64) float64 {
	if len(grades) == 0 {
		return 0
	}
	var sum float64
	for _, g := range grades {
		sum += g
	}
	return Round2(sum / float64(len(grades)))
}

// Band buckets an average grade: >=80 Excellent, >=60 Good, else Needs
// Improvement.
func Band(avg float64) string {
	switch {
	case avg >= 80:
		return BandExcellent
	case avg >= 60:
		return BandGood
	default:
		return BandNeedsImprovement
	}
}

// Month is a reporting period; its Range is [first day, first day of next
// month) in UTC.
type Month struct {
	Year  int
	Month time.Month
}

func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(MonthLayout, core.CleanString(s))
	if err != nil {
		return Month{}, err
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

func CurrentMonth() Month {
	now := time.Now().UTC()
	return Month{Year: now.Year(), Month: now.Month()}
}

func (m Month) Range() (from, to time.Time) {
	from = time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}

func (m Month) String() string {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).Format(MonthLayout)
}
