package report

import (
	"github.com/trezcool/shule/core/assignment"
	"github.com/trezcool/shule/core/student"
	"github.com/trezcool/shule/core/teacher"
)

type (
	// AttendanceReport is one class's attendance for one month.
	AttendanceReport struct {
		ClassName string              `json:"class_name"`
		Month     string              `json:"month"`
		Students  []StudentAttendance `json:"students"`
		Present   int                 `json:"present"`
		Total     int                 `json:"total"`
		Percent   float64             `json:"percent"`
	}

	StudentAttendance struct {
		StudentID   int     `json:"student_id"`
		StudentName string  `json:"student_name"`
		RollNumber  string  `json:"roll_number"`
		Present     int     `json:"present"`
		Total       int     `json:"total"`
		Percent     float64 `json:"percent"`
	}

	// FeeTotals: pending counts both pending and overdue records.
	FeeTotals struct {
		Pending float64 `json:"pending"`
		Paid    float64 `json:"paid"`
	}

	FeeReport struct {
		ClassName string       `json:"class_name,omitempty"`
		Students  []StudentFee `json:"students"`
		Totals    FeeTotals    `json:"totals"`
	}

	StudentFee struct {
		StudentID   int    `json:"student_id"`
		StudentName string `json:"student_name"`
		RollNumber  string `json:"roll_number"`
		ClassName   string `json:"class_name"`
		FeeTotals
	}

	// ClassPerformance is one class's standing across a teacher's
	// assignments.
	ClassPerformance struct {
		ClassName   string  `json:"class_name"`
		Assignments int     `json:"assignments"`
		Submissions int     `json:"submissions"`
		Graded      int     `json:"graded"`
		Average     float64 `json:"average"`
		Band        string  `json:"band"`
	}

	// TeacherSummary rolls the whole submission set up with the per-class
	// breakdown.
	TeacherSummary struct {
		Assignments int                `json:"assignments"`
		Submissions int                `json:"submissions"`
		Graded      int                `json:"graded"`
		Average     float64            `json:"average"`
		Band        string             `json:"band"`
		Classes     []ClassPerformance `json:"classes"`
	}

	PlatformStats struct {
		Schools  int `json:"schools"`
		Admins   int `json:"admins"`
		Students int `json:"students"`
		Teachers int `json:"teachers"`
	}

	SchoolStats struct {
		Students       int               `json:"students"`
		Teachers       int               `json:"teachers"`
		Classes        int               `json:"classes"`
		RecentStudents []student.Student `json:"recent_students"`
		RecentTeachers []teacher.Teacher `json:"recent_teachers"`
	}

	TeacherStats struct {
		Assignments        int                     `json:"assignments"`
		Classes            int                     `json:"classes"`
		PendingSubmissions int                     `json:"pending_submissions"`
		RecentAssignments  []assignment.Assignment `json:"recent_assignments"`
	}
)
