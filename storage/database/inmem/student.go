package inmem

import (
	"context"
	"sort"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/student"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) *studentRepository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) resolve(std student.Student) student.Student {
	if usr, ok := repo.db.users[std.UserID]; ok {
		std.Username = usr.Username
		std.Email = usr.Email
	}
	return std
}

func (repo *studentRepository) query() []student.Student {
	students := make([]student.Student, 0, len(repo.db.students))
	for _, std := range repo.db.students {
		students = append(students, repo.resolve(*std))
	}
	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })
	return students
}

func (repo *studentRepository) CreateStudent(ctx context.Context, std student.Student, _ ...core.DBExecutor) (student.Student, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	std.ID = repo.db.nextPK()
	stored := std
	stored.Username, stored.Email = "", ""
	repo.db.students[std.ID] = &stored
	return repo.resolve(std), nil
}

func (repo *studentRepository) GetStudent(ctx context.Context, filter student.GetFilter, _ ...core.DBExecutor) (student.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, std := range repo.query() {
		if (filter.ID != 0 && std.ID == filter.ID) ||
			(filter.UserID != 0 && std.UserID == filter.UserID) {
			return std, nil
		}
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) QueryStudents(ctx context.Context, filter student.QueryFilter, _ ...core.DBExecutor) ([]student.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	ids := make(map[int]struct{}, len(filter.IDs))
	for _, id := range filter.IDs {
		ids[id] = struct{}{}
	}

	students := make([]student.Student, 0)
	for _, std := range repo.query() {
		if filter.SchoolID != 0 && std.SchoolID != filter.SchoolID {
			continue
		}
		if filter.ClassName != "" && std.ClassName != filter.ClassName {
			continue
		}
		if len(ids) > 0 {
			if _, ok := ids[std.ID]; !ok {
				continue
			}
		}
		students = append(students, std)
	}
	return students, nil
}

func (repo *studentRepository) QueryClassNames(ctx context.Context, schoolID int, _ ...core.DBExecutor) ([]string, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	seen := make(map[string]struct{})
	classes := make([]string, 0)
	for _, std := range repo.db.students {
		if std.SchoolID != schoolID {
			continue
		}
		if _, ok := seen[std.ClassName]; ok {
			continue
		}
		seen[std.ClassName] = struct{}{}
		classes = append(classes, std.ClassName)
	}
	sort.Strings(classes)
	return classes, nil
}

func (repo *studentRepository) QueryRecentStudents(ctx context.Context, schoolID, limit int, _ ...core.DBExecutor) ([]student.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	students := make([]student.Student, 0)
	for _, std := range repo.query() {
		if std.SchoolID == schoolID {
			students = append(students, std)
		}
	}
	sort.Slice(students, func(i, j int) bool {
		if students[i].CreatedAt.Equal(students[j].CreatedAt) {
			return students[i].ID > students[j].ID
		}
		return students[i].CreatedAt.After(students[j].CreatedAt)
	})
	if len(students) > limit {
		students = students[:limit]
	}
	return students, nil
}

func (repo *studentRepository) CountStudents(ctx context.Context, schoolID int, _ ...core.DBExecutor) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var count int
	for _, std := range repo.db.students {
		if std.SchoolID == schoolID {
			count++
		}
	}
	return count, nil
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, std student.Student, _ ...core.DBExecutor) (student.Student, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.students[std.ID]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	orig.RollNumber = std.RollNumber
	orig.ClassName = std.ClassName
	orig.DateOfBirth = std.DateOfBirth
	orig.ParentPhone = std.ParentPhone
	return repo.resolve(*orig), nil
}

func (repo *studentRepository) DeleteStudentsByID(ctx context.Context, ids []int, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, id := range ids {
		delete(repo.db.students, id)
	}
	return nil
}
