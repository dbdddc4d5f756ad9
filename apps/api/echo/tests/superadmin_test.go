package tests

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core/report"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

func Test_superAdminApi_access(t *testing.T) {
	a := setup(t)

	super := a.createUser(t, "root", "root@test.cd", user.RoleSuperAdmin, true)
	sleepy := a.createUser(t, "sleepy", "sleepy@test.cd", user.RoleSuperAdmin, false)
	sch := a.createSchool(t, "Mlimani Primary", "mlimani.admin", "admin@mlimani.cd")
	std := a.createStudent(t, sch, "Hero", "Mwamba", "hero@test.cd", "Grade 5A")

	tests := []httpTest{
		{name: "auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "student not allowed", token: a.studentToken(t, std), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errPermDenied),
		},
		{
			name: "school admin not allowed", token: a.adminToken(t, sch), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errPermDenied),
		},
		{
			name: "inactive account not allowed", token: getToken(t, sleepy), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account is disabled"}),
		},
		{
			name: "super admin allowed", token: getToken(t, super), wantCode: http.StatusOK,
			wantData: marchallObj(t, report.PlatformStats{Schools: 1, Admins: 1, Students: 1}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/super-admin/stats", tt.token)
			a.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_superAdminApi_schools(t *testing.T) {
	a := setup(t)

	super := a.createUser(t, "root", "root@test.cd", user.RoleSuperAdmin, true)
	token := getToken(t, super)

	var sch school.School
	t.Run("school created with its admin", func(t *testing.T) {
		body := marchallObj(t, map[string]string{
			"name":           "Mlimani Primary",
			"address":        "12 Kinshasa Ave",
			"admin_username": "mlimani.admin",
			"admin_email":    "admin@mlimani.cd",
			"admin_password": "password123",
		})
		req, rec := newAuthRequest(http.MethodPost, "/v1/super-admin/schools", token, body)
		a.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		decode(t, rec, &sch)
		assert.NotZero(t, sch.ID)
		assert.Equal(t, "Mlimani Primary", sch.Name)
		assert.True(t, sch.IsActive)
		assert.Equal(t, "mlimani.admin", sch.AdminUsername)

		admin := a.user(t, sch.AdminID)
		assert.Equal(t, user.RoleSchoolAdmin, admin.Role)
		assert.True(t, admin.IsActive)
	})

	t.Run("admin email must be unique", func(t *testing.T) {
		body := marchallObj(t, map[string]string{
			"name":           "Another School",
			"admin_username": "another.admin",
			"admin_email":    "admin@mlimani.cd",
			"admin_password": "password123",
		})
		req, rec := newAuthRequest(http.MethodPost, "/v1/super-admin/schools", token, body)
		a.app.ServeHTTP(rec, req)
		tt := httpTest{
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, map[string]string{"email": "a user with this email already exists"}),
		}
		checkCodeAndData(t, tt, rec)

		// the failed create left no school behind
		schools, err := a.schSvc.QueryAll(context.Background())
		require.NoError(t, err)
		assert.Len(t, schools, 1)
	})

	t.Run("retrieved", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/super-admin/schools/%d", sch.ID), token)
		a.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got school.School
		decode(t, rec, &got)
		assert.Equal(t, sch.ID, got.ID)
		assert.Equal(t, sch.Name, got.Name)
	})

	t.Run("unknown id", func(t *testing.T) {
		for _, path := range []string{"/v1/super-admin/schools/999", "/v1/super-admin/schools/lol"} {
			req, rec := newAuthRequest(http.MethodGet, path, token)
			a.app.ServeHTTP(rec, req)
			checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)}, rec)
		}
	})

	t.Run("updated", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"name": "Mlimani Primary & Secondary"})
		req, rec := newAuthRequest(http.MethodPut, fmt.Sprintf("/v1/super-admin/schools/%d", sch.ID), token, body)
		a.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got school.School
		decode(t, rec, &got)
		assert.Equal(t, "Mlimani Primary & Secondary", got.Name)
		assert.Equal(t, sch.Address, got.Address) // untouched
	})

	t.Run("deactivated and reactivated", func(t *testing.T) {
		var got school.School

		body := marchallObj(t, map[string]interface{}{"is_active": false})
		req, rec := newAuthRequest(http.MethodPut, fmt.Sprintf("/v1/super-admin/schools/%d", sch.ID), token, body)
		a.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		decode(t, rec, &got)
		assert.False(t, got.IsActive)
		assert.Equal(t, "Mlimani Primary & Secondary", got.Name) // untouched

		body = marchallObj(t, map[string]interface{}{"is_active": true})
		req, rec = newAuthRequest(http.MethodPut, fmt.Sprintf("/v1/super-admin/schools/%d", sch.ID), token, body)
		a.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		decode(t, rec, &got)
		assert.True(t, got.IsActive)
	})

	t.Run("deleted; admin survives under No School", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, fmt.Sprintf("/v1/super-admin/schools/%d", sch.ID), token)
		a.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

		req, rec = newAuthRequest(http.MethodGet, "/v1/super-admin/admins", token)
		a.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var admins []school.Admin
		decode(t, rec, &admins)
		require.Len(t, admins, 1)
		assert.Equal(t, sch.AdminID, admins[0].ID)
		assert.Equal(t, school.NoSchool, admins[0].SchoolName)
	})
}

func Test_superAdminApi_toggleAdmin(t *testing.T) {
	a := setup(t)

	super := a.createUser(t, "root", "root@test.cd", user.RoleSuperAdmin, true)
	token := getToken(t, super)
	sch := a.createSchool(t, "Mlimani Primary", "mlimani.admin", "admin@mlimani.cd")
	std := a.createStudent(t, sch, "Hero", "Mwamba", "hero@test.cd", "Grade 5A")

	t.Run("only school admins can be toggled", func(t *testing.T) {
		for _, id := range []int{std.UserID, 999} {
			req, rec := newAuthRequest(http.MethodPost, fmt.Sprintf("/v1/super-admin/admins/%d/toggle", id), token)
			a.app.ServeHTTP(rec, req)
			checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)}, rec)
		}
	})

	t.Run("toggled off then on", func(t *testing.T) {
		path := fmt.Sprintf("/v1/super-admin/admins/%d/toggle", sch.AdminID)

		req, rec := newAuthRequest(http.MethodPost, path, token)
		a.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got user.User
		decode(t, rec, &got)
		assert.False(t, got.IsActive)

		// a disabled admin fails the gate
		req, rec = newAuthRequest(http.MethodGet, "/v1/school-admin/school", a.adminToken(t, sch))
		a.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account is disabled"}),
		}, rec)

		req, rec = newAuthRequest(http.MethodPost, path, token)
		a.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		decode(t, rec, &got)
		assert.True(t, got.IsActive)
	})
}
