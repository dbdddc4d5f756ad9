package fee

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

// Status is the closed set of billing states. Overdue is a data-entry state;
// reports count it with pending.
type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
	StatusOverdue Status = "overdue"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusOverdue:
		return true
	}
	return false
}

const DateLayout = "2006-01-02"

// Fee is one billing obligation of one student.
type Fee struct {
	ID        int        `json:"id" db:"id"`
	StudentID int        `json:"student_id" db:"student_id"`
	SchoolID  int        `json:"school_id" db:"school_id"`
	FeeType   string     `json:"fee_type" db:"fee_type"`
	Amount    float64    `json:"amount" db:"amount"`
	DueDate   time.Time  `json:"due_date" db:"due_date"`
	PaidDate  *time.Time `json:"paid_date,omitempty" db:"paid_date"`
	Status    Status     `json:"status" db:"status"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"` // UTC

	// joined
	StudentName string `json:"student_name,omitempty" db:"student_name"`
	RollNumber  string `json:"roll_number,omitempty" db:"roll_number"`
	ClassName   string `json:"class_name,omitempty" db:"class_name"`
}

// NewFee contains information needed to bill a student. Status defaults to
// pending; overdue may be set directly by data entry.
type NewFee struct {
	StudentID int     `json:"student_id" validate:"required"`
	FeeType   string  `json:"fee_type" validate:"required"`
	Amount    float64 `json:"amount" validate:"required,gt=0"`
	DueDate   string  `json:"due_date" validate:"required,datetime=2006-01-02"`
	Status    Status  `json:"status" validate:"omitempty,oneof=pending overdue"`
}

func (nf *NewFee) Validate(validate *validator.Validate) error {
	nf.FeeType = core.CleanString(nf.FeeType)
	nf.DueDate = core.CleanString(nf.DueDate)
	return validate.Struct(nf)
}
