package assignment

import (
	"context"
	"errors"
	"time"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/student"
	"github.com/trezcool/shule/core/teacher"
)

var (
	// errors
	ErrNotFound           = errors.New("assignment not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrAlreadyGraded      = errors.New("submission has already been graded")
)

type (
	Repository interface {
		CreateAssignment(ctx context.Context, asg Assignment, exec ...core.DBExecutor) (Assignment, error)
		GetAssignment(ctx context.Context, id int, exec ...core.DBExecutor) (Assignment, error)
		QueryAssignmentsByTeacher(ctx context.Context, teacherID int, exec ...core.DBExecutor) ([]Assignment, error)
		QueryAssignmentsByClass(ctx context.Context, schoolID int, className string, exec ...core.DBExecutor) ([]Assignment, error)
		QueryRecentAssignments(ctx context.Context, teacherID, limit int, exec ...core.DBExecutor) ([]Assignment, error)
		CountAssignments(ctx context.Context, teacherID int, exec ...core.DBExecutor) (int, error)
		UpdateAssignment(ctx context.Context, asg Assignment, exec ...core.DBExecutor) (Assignment, error)
		DeleteAssignmentsByID(ctx context.Context, ids []int, exec ...core.DBExecutor) error

		CreateSubmission(ctx context.Context, sub Submission, exec ...core.DBExecutor) (Submission, error)
		GetSubmission(ctx context.Context, id int, exec ...core.DBExecutor) (Submission, error)
		GetStudentSubmission(ctx context.Context, assignmentID, studentID int, exec ...core.DBExecutor) (Submission, error)
		// QuerySubmissionsByAssignment joins student name and roll number.
		QuerySubmissionsByAssignment(ctx context.Context, assignmentID int, exec ...core.DBExecutor) ([]Submission, error)
		QuerySubmissionsByTeacher(ctx context.Context, teacherID int, exec ...core.DBExecutor) ([]Submission, error)
		UpdateSubmission(ctx context.Context, sub Submission, exec ...core.DBExecutor) (Submission, error)
		DeleteSubmissionsByAssignment(ctx context.Context, assignmentIDs []int, exec ...core.DBExecutor) error
	}

	Service struct {
		db   core.DB
		repo Repository
	}
)

func NewService(db core.DB, repo Repository) *Service {
	return &Service{db: db, repo: repo}
}

// Create issues an assignment for one of the teacher's classes; the subject
// comes from the teacher profile, not the payload.
func (svc *Service) Create(ctx context.Context, tcr teacher.Teacher, na NewAssignment) (Assignment, error) {
	due, err := time.Parse(DateLayout, na.DueDate)
	if err != nil {
		return Assignment{}, err
	}
	return svc.repo.CreateAssignment(ctx, Assignment{
		TeacherID:   tcr.ID,
		SchoolID:    tcr.SchoolID,
		ClassName:   na.ClassName,
		Subject:     tcr.Subject,
		Title:       na.Title,
		Description: na.Description,
		DueDate:     due,
		CreatedAt:   time.Now().UTC(),
	})
}

func (svc *Service) GetByID(ctx context.Context, id int) (Assignment, error) {
	return svc.repo.GetAssignment(ctx, id)
}

func (svc *Service) ListByTeacher(ctx context.Context, teacherID int) ([]Assignment, error) {
	return svc.repo.QueryAssignmentsByTeacher(ctx, teacherID)
}

func (svc *Service) ListByClass(ctx context.Context, schoolID int, className string) ([]Assignment, error) {
	return svc.repo.QueryAssignmentsByClass(ctx, schoolID, core.CleanString(className))
}

func (svc *Service) Recent(ctx context.Context, teacherID, limit int) ([]Assignment, error) {
	return svc.repo.QueryRecentAssignments(ctx, teacherID, limit)
}

func (svc *Service) Count(ctx context.Context, teacherID int) (int, error) {
	return svc.repo.CountAssignments(ctx, teacherID)
}

func (svc *Service) Update(ctx context.Context, id int, ua UpdateAssignment) (Assignment, error) {
	due, err := time.Parse(DateLayout, ua.DueDate)
	if err != nil {
		return Assignment{}, err
	}
	return svc.repo.UpdateAssignment(ctx, Assignment{
		ID:          id,
		Title:       ua.Title,
		Description: ua.Description,
		DueDate:     due,
	})
}

// Delete removes the assignment and all its submissions in one transaction.
func (svc *Service) Delete(ctx context.Context, id int) error {
	tx, err := svc.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err = svc.repo.DeleteSubmissionsByAssignment(ctx, []int{id}, tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err = svc.repo.DeleteAssignmentsByID(ctx, []int{id}, tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (svc *Service) GetSubmission(ctx context.Context, id int) (Submission, error) {
	return svc.repo.GetSubmission(ctx, id)
}

// GetStudentSubmission resolves one student's submission for one assignment.
func (svc *Service) GetStudentSubmission(ctx context.Context, assignmentID, studentID int) (Submission, error) {
	return svc.repo.GetStudentSubmission(ctx, assignmentID, studentID)
}

func (svc *Service) ListSubmissions(ctx context.Context, assignmentID int) ([]Submission, error) {
	return svc.repo.QuerySubmissionsByAssignment(ctx, assignmentID)
}

func (svc *Service) ListSubmissionsByTeacher(ctx context.Context, teacherID int) ([]Submission, error) {
	return svc.repo.QuerySubmissionsByTeacher(ctx, teacherID)
}

// Submit records a student's response. Resubmitting overwrites the timestamp
// until the submission is graded.
func (svc *Service) Submit(ctx context.Context, std student.Student, assignmentID int) (Submission, error) {
	now := time.Now().UTC()

	sub, err := svc.repo.GetStudentSubmission(ctx, assignmentID, std.ID)
	switch err {
	case nil:
		if sub.Status == SubmissionGraded {
			return Submission{}, core.NewConflictError(ErrAlreadyGraded)
		}
		sub.SubmittedAt = &now
		sub.Status = SubmissionSubmitted
		sub, err = svc.repo.UpdateSubmission(ctx, sub)
	case ErrSubmissionNotFound:
		sub, err = svc.repo.CreateSubmission(ctx, Submission{
			AssignmentID: assignmentID,
			StudentID:    std.ID,
			SubmittedAt:  &now,
			Status:       SubmissionSubmitted,
		})
	default:
		return Submission{}, err
	}
	if err != nil {
		return Submission{}, err
	}
	sub.StudentName = std.FullName()
	sub.RollNumber = std.RollNumber
	return sub, nil
}

// Grade sets grade and feedback and moves the submission to graded. Ownership
// is checked by the caller through the access gate.
func (svc *Service) Grade(ctx context.Context, id int, gs GradeSubmission) (Submission, error) {
	sub, err := svc.repo.GetSubmission(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	sub.Grade = gs.Grade
	sub.Feedback = gs.Feedback
	sub.Status = SubmissionGraded
	return svc.repo.UpdateSubmission(ctx, sub)
}
