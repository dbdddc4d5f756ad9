package report

import (
	"context"
	"sort"

	"github.com/trezcool/shule/core/assignment"
	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/fee"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/student"
	"github.com/trezcool/shule/core/teacher"
	"github.com/trezcool/shule/core/user"
)

// recentLimit caps the "most recent" lists on the dashboards.
const recentLimit = 5

type Service struct {
	usrRepo user.Repository
	schRepo school.Repository
	stdRepo student.Repository
	tcrRepo teacher.Repository
	attRepo attendance.Repository
	feeRepo fee.Repository
	asgRepo assignment.Repository
}

func NewService(
	usrRepo user.Repository,
	schRepo school.Repository,
	stdRepo student.Repository,
	tcrRepo teacher.Repository,
	attRepo attendance.Repository,
	feeRepo fee.Repository,
	asgRepo assignment.Repository,
) *Service {
	return &Service{
		usrRepo: usrRepo,
		schRepo: schRepo,
		stdRepo: stdRepo,
		tcrRepo: tcrRepo,
		attRepo: attRepo,
		feeRepo: feeRepo,
		asgRepo: asgRepo,
	}
}

// AttendanceReport aggregates one class's records for the given month only;
// days outside the month never count.
func (svc *Service) AttendanceReport(ctx context.Context, schoolID int, className string, month Month) (AttendanceReport, error) {
	students, err := svc.stdRepo.QueryStudents(ctx, student.QueryFilter{SchoolID: schoolID, ClassName: className})
	if err != nil {
		return AttendanceReport{}, err
	}

	from, to := month.Range()
	rep := AttendanceReport{
		ClassName: className,
		Month:     month.String(),
		Students:  make([]StudentAttendance, 0, len(students)),
	}
	for _, std := range students {
		records, err := svc.attRepo.QueryRecordsByStudent(ctx, std.ID, from, to)
		if err != nil {
			return AttendanceReport{}, err
		}
		var present int
		for _, rec := range records {
			if rec.Status == attendance.StatusPresent {
				present++
			}
		}
		rep.Students = append(rep.Students, StudentAttendance{
			StudentID:   std.ID,
			StudentName: std.FullName(),
			RollNumber:  std.RollNumber,
			Present:     present,
			Total:       len(records),
			Percent:     AttendancePercent(present, len(records)),
		})
		rep.Present += present
		rep.Total += len(records)
	}
	rep.Percent = AttendancePercent(rep.Present, rep.Total)
	return rep, nil
}

// FeeReport rolls fees up per student with grand totals; className narrows
// to one class when non-empty.
func (svc *Service) FeeReport(ctx context.Context, schoolID int, className string) (FeeReport, error) {
	fees, err := svc.feeRepo.QueryFeesBySchool(ctx, schoolID, className)
	if err != nil {
		return FeeReport{}, err
	}

	rep := FeeReport{ClassName: className, Students: []StudentFee{}}
	idx := make(map[int]int) // student id -> row index
	for _, f := range fees {
		i, ok := idx[f.StudentID]
		if !ok {
			i = len(rep.Students)
			idx[f.StudentID] = i
			rep.Students = append(rep.Students, StudentFee{
				StudentID:   f.StudentID,
				StudentName: f.StudentName,
				RollNumber:  f.RollNumber,
				ClassName:   f.ClassName,
			})
		}
		switch f.Status {
		case fee.StatusPaid:
			rep.Students[i].Paid = Round2(rep.Students[i].Paid + f.Amount)
			rep.Totals.Paid = Round2(rep.Totals.Paid + f.Amount)
		default: // pending and overdue both count as owed
			rep.Students[i].Pending = Round2(rep.Students[i].Pending + f.Amount)
			rep.Totals.Pending = Round2(rep.Totals.Pending + f.Amount)
		}
	}
	return rep, nil
}

// StudentFeeTotals sums one student's obligations.
func (svc *Service) StudentFeeTotals(ctx context.Context, studentID int) (FeeTotals, error) {
	fees, err := svc.feeRepo.QueryFeesByStudents(ctx, []int{studentID})
	if err != nil {
		return FeeTotals{}, err
	}
	var totals FeeTotals
	for _, f := range fees {
		switch f.Status {
		case fee.StatusPaid:
			totals.Paid = Round2(totals.Paid + f.Amount)
		default:
			totals.Pending = Round2(totals.Pending + f.Amount)
		}
	}
	return totals, nil
}

// ClassPerformance breaks a teacher's full submission set down per class.
func (svc *Service) ClassPerformance(ctx context.Context, teacherID int) ([]ClassPerformance, error) {
	assignments, err := svc.asgRepo.QueryAssignmentsByTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	submissions, err := svc.asgRepo.QuerySubmissionsByTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	return classBreakdown(assignments, submissions), nil
}

func classBreakdown(assignments []assignment.Assignment, submissions []assignment.Submission) []ClassPerformance {
	asgClass := make(map[int]string, len(assignments))
	perClass := make(map[string]*ClassPerformance)
	grades := make(map[string][]float64)

	classFor := func(name string) *ClassPerformance {
		cp, ok := perClass[name]
		if !ok {
			cp = &ClassPerformance{ClassName: name}
			perClass[name] = cp
		}
		return cp
	}

	for _, asg := range assignments {
		asgClass[asg.ID] = asg.ClassName
		classFor(asg.ClassName).Assignments++
	}
	for _, sub := range submissions {
		name, ok := asgClass[sub.AssignmentID]
		if !ok {
			continue
		}
		cp := classFor(name)
		cp.Submissions++
		if sub.Status == assignment.SubmissionGraded {
			cp.Graded++
			if sub.Grade != nil {
				grades[name] = append(grades[name], *sub.Grade)
			}
		}
	}

	names := make([]string, 0, len(perClass))
	for name := range perClass {
		names = append(names, name)
	}
	sort.Strings(names)

	breakdown := make([]ClassPerformance, 0, len(names))
	for _, name := range names {
		cp := perClass[name]
		cp.Average = GradeAverage(grades[name])
		cp.Band = Band(cp.Average)
		breakdown = append(breakdown, *cp)
	}
	return breakdown
}

// TeacherSummary is the class breakdown plus overall totals and average.
func (svc *Service) TeacherSummary(ctx context.Context, teacherID int) (TeacherSummary, error) {
	assignments, err := svc.asgRepo.QueryAssignmentsByTeacher(ctx, teacherID)
	if err != nil {
		return TeacherSummary{}, err
	}
	submissions, err := svc.asgRepo.QuerySubmissionsByTeacher(ctx, teacherID)
	if err != nil {
		return TeacherSummary{}, err
	}

	sum := TeacherSummary{
		Assignments: len(assignments),
		Submissions: len(submissions),
		Classes:     classBreakdown(assignments, submissions),
	}
	var grades []float64
	for _, sub := range submissions {
		if sub.Status == assignment.SubmissionGraded {
			sum.Graded++
			if sub.Grade != nil {
				grades = append(grades, *sub.Grade)
			}
		}
	}
	sum.Average = GradeAverage(grades)
	sum.Band = Band(sum.Average)
	return sum, nil
}

// PlatformStats counts the whole deployment for the super_admin dashboard.
func (svc *Service) PlatformStats(ctx context.Context) (PlatformStats, error) {
	schools, err := svc.schRepo.QueryAllSchools(ctx)
	if err != nil {
		return PlatformStats{}, err
	}
	admins, err := svc.usrRepo.CountUsersByRole(ctx, user.RoleSchoolAdmin)
	if err != nil {
		return PlatformStats{}, err
	}
	students, err := svc.usrRepo.CountUsersByRole(ctx, user.RoleStudent)
	if err != nil {
		return PlatformStats{}, err
	}
	teachers, err := svc.usrRepo.CountUsersByRole(ctx, user.RoleTeacher)
	if err != nil {
		return PlatformStats{}, err
	}
	return PlatformStats{
		Schools:  len(schools),
		Admins:   admins,
		Students: students,
		Teachers: teachers,
	}, nil
}

// SchoolStats is the school_admin dashboard: head counts plus the most
// recent arrivals.
func (svc *Service) SchoolStats(ctx context.Context, schoolID int) (SchoolStats, error) {
	students, err := svc.stdRepo.CountStudents(ctx, schoolID)
	if err != nil {
		return SchoolStats{}, err
	}
	teachers, err := svc.tcrRepo.CountTeachers(ctx, schoolID)
	if err != nil {
		return SchoolStats{}, err
	}
	classes, err := svc.stdRepo.QueryClassNames(ctx, schoolID)
	if err != nil {
		return SchoolStats{}, err
	}
	recentStds, err := svc.stdRepo.QueryRecentStudents(ctx, schoolID, recentLimit)
	if err != nil {
		return SchoolStats{}, err
	}
	recentTcrs, err := svc.tcrRepo.QueryRecentTeachers(ctx, schoolID, recentLimit)
	if err != nil {
		return SchoolStats{}, err
	}
	return SchoolStats{
		Students:       students,
		Teachers:       teachers,
		Classes:        len(classes),
		RecentStudents: recentStds,
		RecentTeachers: recentTcrs,
	}, nil
}

// TeacherStats is the teacher dashboard.
func (svc *Service) TeacherStats(ctx context.Context, teacherID int) (TeacherStats, error) {
	count, err := svc.asgRepo.CountAssignments(ctx, teacherID)
	if err != nil {
		return TeacherStats{}, err
	}
	assignments, err := svc.asgRepo.QueryAssignmentsByTeacher(ctx, teacherID)
	if err != nil {
		return TeacherStats{}, err
	}
	classes := make(map[string]struct{}, len(assignments))
	for _, asg := range assignments {
		classes[asg.ClassName] = struct{}{}
	}
	submissions, err := svc.asgRepo.QuerySubmissionsByTeacher(ctx, teacherID)
	if err != nil {
		return TeacherStats{}, err
	}
	var pending int
	for _, sub := range submissions {
		if sub.Status == assignment.SubmissionSubmitted {
			pending++
		}
	}
	recent, err := svc.asgRepo.QueryRecentAssignments(ctx, teacherID, recentLimit)
	if err != nil {
		return TeacherStats{}, err
	}
	return TeacherStats{
		Assignments:        count,
		Classes:            len(classes),
		PendingSubmissions: pending,
		RecentAssignments:  recent,
	}, nil
}
