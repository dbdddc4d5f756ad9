package inmem

import (
	"context"
	"sort"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/teacher"
)

type teacherRepository struct {
	db *DB
}

var _ teacher.Repository = (*teacherRepository)(nil) // interface compliance check

func NewTeacherRepository(db *DB) *teacherRepository {
	return &teacherRepository{db: db}
}

func (repo *teacherRepository) resolve(tcr teacher.Teacher) teacher.Teacher {
	if usr, ok := repo.db.users[tcr.UserID]; ok {
		tcr.Username = usr.Username
		tcr.Email = usr.Email
	}
	return tcr
}

func (repo *teacherRepository) query() []teacher.Teacher {
	teachers := make([]teacher.Teacher, 0, len(repo.db.teachers))
	for _, tcr := range repo.db.teachers {
		teachers = append(teachers, repo.resolve(*tcr))
	}
	sort.Slice(teachers, func(i, j int) bool { return teachers[i].ID < teachers[j].ID })
	return teachers
}

func (repo *teacherRepository) CreateTeacher(ctx context.Context, tcr teacher.Teacher, _ ...core.DBExecutor) (teacher.Teacher, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	tcr.ID = repo.db.nextPK()
	stored := tcr
	stored.Username, stored.Email = "", ""
	repo.db.teachers[tcr.ID] = &stored
	return repo.resolve(tcr), nil
}

func (repo *teacherRepository) GetTeacher(ctx context.Context, filter teacher.GetFilter, _ ...core.DBExecutor) (teacher.Teacher, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, tcr := range repo.query() {
		if (filter.ID != 0 && tcr.ID == filter.ID) ||
			(filter.UserID != 0 && tcr.UserID == filter.UserID) {
			return tcr, nil
		}
	}
	return teacher.Teacher{}, teacher.ErrNotFound
}

func (repo *teacherRepository) QueryTeachersBySchool(ctx context.Context, schoolID int, _ ...core.DBExecutor) ([]teacher.Teacher, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	teachers := make([]teacher.Teacher, 0)
	for _, tcr := range repo.query() {
		if tcr.SchoolID == schoolID {
			teachers = append(teachers, tcr)
		}
	}
	return teachers, nil
}

func (repo *teacherRepository) QueryRecentTeachers(ctx context.Context, schoolID, limit int, _ ...core.DBExecutor) ([]teacher.Teacher, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	teachers := make([]teacher.Teacher, 0)
	for _, tcr := range repo.query() {
		if tcr.SchoolID == schoolID {
			teachers = append(teachers, tcr)
		}
	}
	sort.Slice(teachers, func(i, j int) bool {
		if teachers[i].CreatedAt.Equal(teachers[j].CreatedAt) {
			return teachers[i].ID > teachers[j].ID
		}
		return teachers[i].CreatedAt.After(teachers[j].CreatedAt)
	})
	if len(teachers) > limit {
		teachers = teachers[:limit]
	}
	return teachers, nil
}

func (repo *teacherRepository) CountTeachers(ctx context.Context, schoolID int, _ ...core.DBExecutor) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var count int
	for _, tcr := range repo.db.teachers {
		if tcr.SchoolID == schoolID {
			count++
		}
	}
	return count, nil
}

func (repo *teacherRepository) UpdateTeacher(ctx context.Context, tcr teacher.Teacher, _ ...core.DBExecutor) (teacher.Teacher, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.teachers[tcr.ID]
	if !ok {
		return teacher.Teacher{}, teacher.ErrNotFound
	}
	orig.Subject = tcr.Subject
	orig.Qualification = tcr.Qualification
	return repo.resolve(*orig), nil
}

func (repo *teacherRepository) DeleteTeachersByID(ctx context.Context, ids []int, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, id := range ids {
		delete(repo.db.teachers, id)
	}
	return nil
}
