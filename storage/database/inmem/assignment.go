package inmem

import (
	"context"
	"sort"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/assignment"
)

type assignmentRepository struct {
	db *DB
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *DB) *assignmentRepository {
	return &assignmentRepository{db: db}
}

func (repo *assignmentRepository) resolveSub(sub assignment.Submission) assignment.Submission {
	if std, ok := repo.db.students[sub.StudentID]; ok {
		sub.StudentName = std.FullName()
		sub.RollNumber = std.RollNumber
	}
	return sub
}

func (repo *assignmentRepository) queryAssignments(match func(*assignment.Assignment) bool) []assignment.Assignment {
	asgs := make([]assignment.Assignment, 0)
	for _, asg := range repo.db.assignments {
		if match(asg) {
			asgs = append(asgs, *asg)
		}
	}
	sort.Slice(asgs, func(i, j int) bool { return asgs[i].ID < asgs[j].ID })
	return asgs
}

func (repo *assignmentRepository) CreateAssignment(ctx context.Context, asg assignment.Assignment, _ ...core.DBExecutor) (assignment.Assignment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	asg.ID = repo.db.nextPK()
	stored := asg
	repo.db.assignments[asg.ID] = &stored
	return asg, nil
}

func (repo *assignmentRepository) GetAssignment(ctx context.Context, id int, _ ...core.DBExecutor) (assignment.Assignment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if asg, ok := repo.db.assignments[id]; ok {
		return *asg, nil
	}
	return assignment.Assignment{}, assignment.ErrNotFound
}

func (repo *assignmentRepository) QueryAssignmentsByTeacher(ctx context.Context, teacherID int, _ ...core.DBExecutor) ([]assignment.Assignment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.queryAssignments(func(asg *assignment.Assignment) bool { return asg.TeacherID == teacherID }), nil
}

func (repo *assignmentRepository) QueryAssignmentsByClass(ctx context.Context, schoolID int, className string, _ ...core.DBExecutor) ([]assignment.Assignment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.queryAssignments(func(asg *assignment.Assignment) bool {
		return asg.SchoolID == schoolID && asg.ClassName == className
	}), nil
}

func (repo *assignmentRepository) QueryRecentAssignments(ctx context.Context, teacherID, limit int, _ ...core.DBExecutor) ([]assignment.Assignment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	asgs := repo.queryAssignments(func(asg *assignment.Assignment) bool { return asg.TeacherID == teacherID })
	sort.Slice(asgs, func(i, j int) bool {
		if asgs[i].CreatedAt.Equal(asgs[j].CreatedAt) {
			return asgs[i].ID > asgs[j].ID
		}
		return asgs[i].CreatedAt.After(asgs[j].CreatedAt)
	})
	if len(asgs) > limit {
		asgs = asgs[:limit]
	}
	return asgs, nil
}

func (repo *assignmentRepository) CountAssignments(ctx context.Context, teacherID int, _ ...core.DBExecutor) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var count int
	for _, asg := range repo.db.assignments {
		if asg.TeacherID == teacherID {
			count++
		}
	}
	return count, nil
}

func (repo *assignmentRepository) UpdateAssignment(ctx context.Context, asg assignment.Assignment, _ ...core.DBExecutor) (assignment.Assignment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.assignments[asg.ID]
	if !ok {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	orig.Title = asg.Title
	orig.Description = asg.Description
	orig.DueDate = asg.DueDate
	return *orig, nil
}

func (repo *assignmentRepository) DeleteAssignmentsByID(ctx context.Context, ids []int, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, id := range ids {
		delete(repo.db.assignments, id)
	}
	return nil
}

func (repo *assignmentRepository) CreateSubmission(ctx context.Context, sub assignment.Submission, _ ...core.DBExecutor) (assignment.Submission, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	sub.ID = repo.db.nextPK()
	stored := sub
	stored.StudentName, stored.RollNumber = "", ""
	repo.db.submissions[sub.ID] = &stored
	return repo.resolveSub(sub), nil
}

func (repo *assignmentRepository) GetSubmission(ctx context.Context, id int, _ ...core.DBExecutor) (assignment.Submission, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if sub, ok := repo.db.submissions[id]; ok {
		return repo.resolveSub(*sub), nil
	}
	return assignment.Submission{}, assignment.ErrSubmissionNotFound
}

func (repo *assignmentRepository) GetStudentSubmission(ctx context.Context, assignmentID, studentID int, _ ...core.DBExecutor) (assignment.Submission, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, sub := range repo.db.submissions {
		if sub.AssignmentID == assignmentID && sub.StudentID == studentID {
			return repo.resolveSub(*sub), nil
		}
	}
	return assignment.Submission{}, assignment.ErrSubmissionNotFound
}

func (repo *assignmentRepository) querySubmissions(match func(*assignment.Submission) bool) []assignment.Submission {
	subs := make([]assignment.Submission, 0)
	for _, sub := range repo.db.submissions {
		if match(sub) {
			subs = append(subs, repo.resolveSub(*sub))
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].ID < subs[j].ID })
	return subs
}

func (repo *assignmentRepository) QuerySubmissionsByAssignment(ctx context.Context, assignmentID int, _ ...core.DBExecutor) ([]assignment.Submission, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.querySubmissions(func(sub *assignment.Submission) bool { return sub.AssignmentID == assignmentID }), nil
}

func (repo *assignmentRepository) QuerySubmissionsByTeacher(ctx context.Context, teacherID int, _ ...core.DBExecutor) ([]assignment.Submission, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	owned := make(map[int]struct{})
	for _, asg := range repo.db.assignments {
		if asg.TeacherID == teacherID {
			owned[asg.ID] = struct{}{}
		}
	}
	return repo.querySubmissions(func(sub *assignment.Submission) bool {
		_, ok := owned[sub.AssignmentID]
		return ok
	}), nil
}

func (repo *assignmentRepository) UpdateSubmission(ctx context.Context, sub assignment.Submission, _ ...core.DBExecutor) (assignment.Submission, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.submissions[sub.ID]
	if !ok {
		return assignment.Submission{}, assignment.ErrSubmissionNotFound
	}
	orig.SubmittedAt = sub.SubmittedAt
	orig.Status = sub.Status
	orig.Grade = sub.Grade
	orig.Feedback = sub.Feedback
	return repo.resolveSub(*orig), nil
}

func (repo *assignmentRepository) DeleteSubmissionsByAssignment(ctx context.Context, assignmentIDs []int, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	ids := make(map[int]struct{}, len(assignmentIDs))
	for _, id := range assignmentIDs {
		ids[id] = struct{}{}
	}
	for id, sub := range repo.db.submissions {
		if _, ok := ids[sub.AssignmentID]; ok {
			delete(repo.db.submissions, id)
		}
	}
	return nil
}
