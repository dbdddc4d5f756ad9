package report

import (
	"reflect"
	"testing"
	"time"

	"github.com/trezcool/shule/core/assignment"
)

func TestAttendancePercent(t *testing.T) {
	tests := []struct {
		name           string
		present, total int
		want           float64
	}{
		{name: "nothing to count", want: 0},
		{name: "all present", present: 4, total: 4, want: 100},
		{name: "three quarters", present: 3, total: 4, want: 75},
		{name: "rounded to 2 places", present: 2, total: 3, want: 66.67},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AttendancePercent(tt.present, tt.total); got != tt.want {
				t.Errorf("AttendancePercent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGradeAverage(t *testing.T) {
	tests := []struct {
		name   string
		grades []float64
		want   float64
	}{
		{name: "no grades"},
		{name: "single", grades: []float64{80}, want: 80},
		{name: "mean", grades: []float64{90, 80, 70}, want: 80},
		{name: "rounded", grades: []float64{85.5, 90.2}, want: 87.85},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GradeAverage(tt.grades); got != tt.want {
				t.Errorf("GradeAverage() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBand(t *testing.T) {
	tests := []struct {
		avg  float64
		want string
	}{
		{avg: 100, want: BandExcellent},
		{avg: 80, want: BandExcellent},
		{avg: 79.99, want: BandGood},
		{avg: 60, want: BandGood},
		{avg: 59.99, want: BandNeedsImprovement},
		{avg: 0, want: BandNeedsImprovement},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := Band(tt.avg); got != tt.want {
				t.Errorf("Band(%v) = %v, want %v", tt.avg, got, tt.want)
			}
		})
	}
}

func TestMonth(t *testing.T) {
	t.Run("parsed", func(t *testing.T) {
		m, err := ParseMonth(" 2026-03 ")
		if err != nil {
			t.Fatalf("ParseMonth() error = %v", err)
		}
		if m.Year != 2026 || m.Month != time.March {
			t.Errorf("ParseMonth() = %v, want 2026-03", m)
		}
		if got := m.String(); got != "2026-03" {
			t.Errorf("String() = %v, want 2026-03", got)
		}
	})

	t.Run("rejected", func(t *testing.T) {
		for _, s := range []string{"", "lol", "2026-13", "03-2026"} {
			if _, err := ParseMonth(s); err == nil {
				t.Errorf("ParseMonth(%q) expected error", s)
			}
		}
	})

	t.Run("range is the whole month in UTC", func(t *testing.T) {
		from, to := Month{Year: 2026, Month: time.December}.Range()
		wantFrom := time.Date(2026, time.December, 1, 0, 0, 0, 0, time.UTC)
		wantTo := time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC)
		if !from.Equal(wantFrom) || !to.Equal(wantTo) {
			t.Errorf("Range() = [%v, %v), want [%v, %v)", from, to, wantFrom, wantTo)
		}
	})
}

func Test_classBreakdown(t *testing.T) {
	gradeOf := func(g float64) *float64 { return &g }

	assignments := []assignment.Assignment{
		{ID: 1, ClassName: "Grade 6"},
		{ID: 2, ClassName: "Grade 5A"},
		{ID: 3, ClassName: "Grade 5A"},
	}
	submissions := []assignment.Submission{
		{ID: 10, AssignmentID: 2, Status: assignment.SubmissionGraded, Grade: gradeOf(90)},
		{ID: 11, AssignmentID: 3, Status: assignment.SubmissionGraded, Grade: gradeOf(50)},
		{ID: 12, AssignmentID: 3, Status: assignment.SubmissionSubmitted},
		{ID: 13, AssignmentID: 1, Status: assignment.SubmissionGraded}, // graded but no grade recorded
		{ID: 14, AssignmentID: 99, Status: assignment.SubmissionGraded, Grade: gradeOf(100)}, // unknown assignment
	}

	want := []ClassPerformance{
		{
			ClassName:   "Grade 5A",
			Assignments: 2,
			Submissions: 3,
			Graded:      2,
			Average:     70,
			Band:        BandGood,
		},
		{
			ClassName:   "Grade 6",
			Assignments: 1,
			Submissions: 1,
			Graded:      1,
			Average:     0,
			Band:        BandNeedsImprovement,
		},
	}
	if got := classBreakdown(assignments, submissions); !reflect.DeepEqual(got, want) {
		t.Errorf("classBreakdown() = %+v, want %+v", got, want)
	}
}

func Test_classBreakdown_empty(t *testing.T) {
	if got := classBreakdown(nil, nil); len(got) != 0 {
		t.Errorf("classBreakdown() = %+v, want empty", got)
	}
}
