package inmem

import (
	"context"
	"sort"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

type schoolRepository struct {
	db *DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *DB) *schoolRepository {
	return &schoolRepository{db: db}
}

func (repo *schoolRepository) resolve(sch school.School) school.School {
	if usr, ok := repo.db.users[sch.AdminID]; ok {
		sch.AdminUsername = usr.Username
	}
	return sch
}

func (repo *schoolRepository) query() []school.School {
	schools := make([]school.School, 0, len(repo.db.schools))
	for _, sch := range repo.db.schools {
		schools = append(schools, repo.resolve(*sch))
	}
	sort.Slice(schools, func(i, j int) bool { return schools[i].ID < schools[j].ID })
	return schools
}

func (repo *schoolRepository) CreateSchool(ctx context.Context, sch school.School, _ ...core.DBExecutor) (school.School, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	sch.ID = repo.db.nextPK()
	stored := sch
	repo.db.schools[sch.ID] = &stored
	return repo.resolve(sch), nil
}

func (repo *schoolRepository) QueryAllSchools(ctx context.Context, _ ...core.DBExecutor) ([]school.School, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.query(), nil
}

func (repo *schoolRepository) GetSchool(ctx context.Context, filter school.GetFilter, _ ...core.DBExecutor) (school.School, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, sch := range repo.query() {
		if (filter.ID != 0 && sch.ID == filter.ID) ||
			(filter.AdminID != 0 && sch.AdminID == filter.AdminID) {
			return sch, nil
		}
	}
	return school.School{}, school.ErrNotFound
}

func (repo *schoolRepository) QueryAdmins(ctx context.Context, _ ...core.DBExecutor) ([]school.Admin, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	schoolByAdmin := make(map[int]string, len(repo.db.schools))
	for _, sch := range repo.db.schools {
		schoolByAdmin[sch.AdminID] = sch.Name
	}

	admins := make([]school.Admin, 0)
	for _, usr := range repo.db.users {
		if usr.Role != user.RoleSchoolAdmin {
			continue
		}
		admins = append(admins, school.Admin{User: *usr, SchoolName: schoolByAdmin[usr.ID]})
	}
	sort.Slice(admins, func(i, j int) bool { return admins[i].ID < admins[j].ID })
	return admins, nil
}

func (repo *schoolRepository) UpdateSchool(ctx context.Context, sch school.School, isActive *bool, _ ...core.DBExecutor) (school.School, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.schools[sch.ID]
	if !ok {
		return school.School{}, school.ErrNotFound
	}
	if sch.Name != "" {
		orig.Name = sch.Name
	}
	if sch.Address != "" {
		orig.Address = sch.Address
	}
	if sch.Phone != "" {
		orig.Phone = sch.Phone
	}
	if sch.Email != "" {
		orig.Email = sch.Email
	}
	if isActive != nil {
		orig.IsActive = *isActive
	}
	return repo.resolve(*orig), nil
}

func (repo *schoolRepository) DeleteSchoolsByID(ctx context.Context, ids []int, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, id := range ids {
		delete(repo.db.schools, id)
	}
	return nil
}
