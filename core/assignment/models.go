package assignment

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

const DateLayout = "2006-01-02"

// Assignment is a task a teacher issues to one of their classes. Subject is
// copied from the teacher profile at creation.
type Assignment struct {
	ID          int       `json:"id" db:"id"`
	TeacherID   int       `json:"teacher_id" db:"teacher_id"`
	SchoolID    int       `json:"school_id" db:"school_id"`
	ClassName   string    `json:"class_name" db:"class_name"`
	Subject     string    `json:"subject" db:"subject"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	DueDate     time.Time `json:"due_date" db:"due_date"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"` // UTC
}

// SubmissionStatus is the closed set of submission states.
type SubmissionStatus string

const (
	SubmissionPending   SubmissionStatus = "pending"
	SubmissionSubmitted SubmissionStatus = "submitted"
	SubmissionGraded    SubmissionStatus = "graded"
)

// Submission is one student's response to an Assignment. Grade and feedback
// are set only through the grading operation.
type Submission struct {
	ID           int              `json:"id" db:"id"`
	AssignmentID int              `json:"assignment_id" db:"assignment_id"`
	StudentID    int              `json:"student_id" db:"student_id"`
	SubmittedAt  *time.Time       `json:"submitted_at,omitempty" db:"submitted_at"`
	Status       SubmissionStatus `json:"status" db:"status"`
	Grade        *float64         `json:"grade,omitempty" db:"grade"`
	Feedback     string           `json:"feedback" db:"feedback"`

	// joined
	StudentName string `json:"student_name,omitempty" db:"student_name"`
	RollNumber  string `json:"roll_number,omitempty" db:"roll_number"`
}

// NewAssignment contains information needed to issue an Assignment.
type NewAssignment struct {
	ClassName   string `json:"class_name" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	DueDate     string `json:"due_date" validate:"required,datetime=2006-01-02"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.ClassName = core.CleanString(na.ClassName)
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	na.DueDate = core.CleanString(na.DueDate)
	return validate.Struct(na)
}

// UpdateAssignment defines what information may be provided to modify an
// existing Assignment; absent fields are left untouched. Class and subject
// are fixed at creation.
type UpdateAssignment struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
}

func (ua *UpdateAssignment) Validate(origAsg Assignment, validate *validator.Validate) error {
	title := core.CleanString(ua.Title)
	if title != "" {
		ua.Title = title
	} else {
		ua.Title = origAsg.Title
	}

	desc := core.CleanString(ua.Description)
	if desc != "" {
		ua.Description = desc
	} else {
		ua.Description = origAsg.Description
	}

	ua.DueDate = core.CleanString(ua.DueDate)
	if ua.DueDate == "" {
		ua.DueDate = origAsg.DueDate.Format(DateLayout)
	}

	return validate.Struct(ua)
}

// GradeSubmission carries a grade (0-100) and optional feedback.
type GradeSubmission struct {
	Grade    *float64 `json:"grade" validate:"required,gte=0,lte=100"`
	Feedback string   `json:"feedback"`
}

func (gs *GradeSubmission) Validate(validate *validator.Validate) error {
	gs.Feedback = core.CleanString(gs.Feedback)
	return validate.Struct(gs)
}
