package pgrepos

import (
	"context"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
)

const schoolCols = `s.id, s.name, s.address, s.phone, s.email, s.admin_id, s.is_active, s.created_at,
	u.username AS admin_username`

type schoolRepository struct {
	exec core.DBExecutor
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(exec core.DBExecutor) *schoolRepository {
	return &schoolRepository{exec: exec}
}

func (repo schoolRepository) CreateSchool(ctx context.Context, sch school.School, exec ...core.DBExecutor) (school.School, error) {
	q := `
		INSERT INTO school (name, address, phone, email, admin_id, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	err := getExec(repo.exec, exec).
		QueryRowContext(ctx, q, sch.Name, sch.Address, sch.Phone, sch.Email, sch.AdminID, sch.IsActive, sch.CreatedAt).
		Scan(&sch.ID)
	if err != nil {
		return school.School{}, errors.Wrap(err, "inserting school")
	}
	return sch, nil
}

func (repo schoolRepository) QueryAllSchools(ctx context.Context, exec ...core.DBExecutor) ([]school.School, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM school s
		JOIN "user" u ON u.id = s.admin_id
		ORDER BY s.id`, schoolCols)
	rows, err := getExec(repo.exec, exec).QueryContext(ctx, q)
	if err != nil {
		return nil, errors.Wrap(err, "querying schools")
	}
	schools := make([]school.School, 0)
	if err = structScan(rows, &schools, "querying schools"); err != nil {
		return nil, err
	}
	return schools, nil
}

func (repo schoolRepository) GetSchool(ctx context.Context, filter school.GetFilter, exec ...core.DBExecutor) (school.School, error) {
	var (
		where string
		arg   interface{}
	)
	switch {
	case filter.ID != 0:
		where, arg = "s.id = $1", filter.ID
	case filter.AdminID != 0:
		where, arg = "s.admin_id = $1", filter.AdminID
	default:
		return school.School{}, school.ErrNotFound
	}

	q := fmt.Sprintf(`
		SELECT %s FROM school s
		JOIN "user" u ON u.id = s.admin_id
		WHERE %s`, schoolCols, where)
	rows, err := getExec(repo.exec, exec).QueryContext(ctx, q, arg)
	if err != nil {
		return school.School{}, errors.Wrap(err, "getting school")
	}
	var schools []school.School
	if err = structScan(rows, &schools, "getting school"); err != nil {
		return school.School{}, err
	}
	if len(schools) == 0 {
		return school.School{}, school.ErrNotFound
	}
	return schools[0], nil
}

func (repo schoolRepository) QueryAdmins(ctx context.Context, exec ...core.DBExecutor) ([]school.Admin, error) {
	q := `
		SELECT u.id, u.username, u.email, u.role, u.is_active, u.password_hash, u.created_at,
			COALESCE(s.name, '') AS school_name
		FROM "user" u
		LEFT JOIN school s ON s.admin_id = u.id
		WHERE u.role = $1
		ORDER BY u.id`
	rows, err := getExec(repo.exec, exec).QueryContext(ctx, q, "school_admin")
	if err != nil {
		return nil, errors.Wrap(err, "querying school admins")
	}
	admins := make([]school.Admin, 0)
	if err = structScan(rows, &admins, "querying school admins"); err != nil {
		return nil, err
	}
	return admins, nil
}

func (repo schoolRepository) UpdateSchool(ctx context.Context, sch school.School, isActive *bool, exec ...core.DBExecutor) (school.School, error) {
	var (
		sets []string
		args []interface{}
	)
	set := func(col string, val interface{}) {
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if sch.Name != "" {
		set("name", sch.Name)
	}
	if sch.Address != "" {
		set("address", sch.Address)
	}
	if sch.Phone != "" {
		set("phone", sch.Phone)
	}
	if sch.Email != "" {
		set("email", sch.Email)
	}
	if isActive != nil {
		set("is_active", *isActive)
	}
	if len(sets) == 0 {
		return repo.GetSchool(ctx, school.GetFilter{ID: sch.ID}, exec...)
	}

	args = append(args, sch.ID)
	q := fmt.Sprintf(`UPDATE school SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))
	res, err := getExec(repo.exec, exec).ExecContext(ctx, q, args...)
	if err != nil {
		return school.School{}, errors.Wrap(err, "updating school")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return school.School{}, school.ErrNotFound
	}
	return repo.GetSchool(ctx, school.GetFilter{ID: sch.ID}, exec...)
}

func (repo schoolRepository) DeleteSchoolsByID(ctx context.Context, ids []int, exec ...core.DBExecutor) error {
	_, err := getExec(repo.exec, exec).ExecContext(ctx, `DELETE FROM school WHERE id = ANY($1)`, pq.Array(ids))
	return errors.Wrap(err, "deleting schools")
}
