package attendance

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

// Status is the closed set of attendance states.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
	StatusExcused Status = "excused"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate, StatusExcused:
		return true
	}
	return false
}

// DateLayout is the wire format for attendance dates.
const DateLayout = "2006-01-02"

func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, core.CleanString(s))
}

// Record is one student's status on one date; (student_id, date) is unique
// and re-recording overwrites.
type Record struct {
	ID        int       `json:"id" db:"id"`
	StudentID int       `json:"student_id" db:"student_id"`
	Date      time.Time `json:"date" db:"date"`
	Status    Status    `json:"status" db:"status"`
	Remarks   string    `json:"remarks" db:"remarks"`

	// joined
	StudentName string `json:"student_name,omitempty" db:"student_name"`
	RollNumber  string `json:"roll_number,omitempty" db:"roll_number"`
}

// ClassAttendance is a batch upsert for one class on one date. Students of
// the class missing from Entries are recorded absent.
type ClassAttendance struct {
	ClassName string  `json:"class_name" validate:"required"`
	Date      string  `json:"date" validate:"required,datetime=2006-01-02"`
	Entries   []Entry `json:"entries" validate:"dive"`
}

type Entry struct {
	StudentID int    `json:"student_id" validate:"required"`
	Status    Status `json:"status" validate:"required,oneof=present absent late excused"`
	Remarks   string `json:"remarks"`
}

func (ca *ClassAttendance) Validate(validate *validator.Validate) error {
	ca.ClassName = core.CleanString(ca.ClassName)
	ca.Date = core.CleanString(ca.Date)
	return validate.Struct(ca)
}
