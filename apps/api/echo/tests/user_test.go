package tests

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/shule/apps/api/echo"
	"github.com/trezcool/shule/core/user"
)

func Test_userApi_register(t *testing.T) {
	a := setup(t)

	taken := a.createUser(t, "taken", "taken@test.cd", user.RoleStudent, true)

	tests := []httpTest{
		{
			name: "empty payload", body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"username":         "this field is required",
				"email":            "this field is required",
				"password":         "this field is required",
				"password_confirm": "this field is required",
			}),
		},
		{
			name:     "invalid username",
			body:     marchallObj(t, map[string]string{"username": "l-o-l", "email": "lol@test.cd", "password": "password123", "password_confirm": "password123"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"username": "only lowercase letters, digits, dots and underscores are allowed"}),
		},
		{
			name:     "password mismatch",
			body:     marchallObj(t, map[string]string{"username": "lol", "email": "lol@test.cd", "password": "password123", "password_confirm": "password321"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"password_confirm": "password_confirm must be equal to Password"}),
		},
		{
			name:     "username taken",
			body:     marchallObj(t, map[string]string{"username": taken.Username, "email": "other@test.cd", "password": "password123", "password_confirm": "password123"}),
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, map[string]string{"username": "a user with this username already exists"}),
		},
		{
			name:     "email taken",
			body:     marchallObj(t, map[string]string{"username": "other", "email": taken.Email, "password": "password123", "password_confirm": "password123"}),
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, map[string]string{"email": "a user with this email already exists"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/register", tt.body)
			a.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("registered", func(t *testing.T) {
		body := marchallObj(t, map[string]string{
			"username":         "Hero ", // cleaned & lowered
			"email":            "Hero@Test.CD",
			"password":         "password123",
			"password_confirm": "password123",
		})
		req, rec := newRequest(http.MethodPost, "/v1/users/register", body)
		a.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var usr user.User
		decode(t, rec, &usr)
		assert.NotZero(t, usr.ID)
		assert.Equal(t, "hero", usr.Username)
		assert.Equal(t, "hero@test.cd", usr.Email)
		assert.Equal(t, user.RoleStudent, usr.Role)
		assert.True(t, usr.IsActive)
	})
}

func Test_userApi_login(t *testing.T) {
	a := setup(t)

	usr := a.createUser(t, "hero", "hero@test.cd", user.RoleStudent, true)
	naughty := a.createUser(t, "ndog", "ndog@test.cd", user.RoleStudent, false)

	login := func(uname, pwd string) []byte {
		return marchallObj(t, map[string]string{"username": uname, "password": pwd})
	}

	tests := []httpTest{
		{
			name: "empty payload", body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"username": "this field is required", "password": "this field is required"}),
		},
		{
			name: "unknown user", body: login("lol", "password123"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", body: login(usr.Username, "nope-nope"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "inactive account", body: login(naughty.Username, "password123"), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", tt.body)
			a.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	for _, handle := range []string{usr.Username, usr.Email, "HERO@Test.cd"} {
		t.Run("logged in with "+handle, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", login(handle, "password123"))
			a.app.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var res echoapi.LoginResponse
			decode(t, rec, &res)
			assert.NotEmpty(t, res.Token)
		})
	}
}

func Test_userApi_refreshToken(t *testing.T) {
	a := setup(t)

	usr := a.createUser(t, "hero", "hero@test.cd", user.RoleStudent, true)
	naughty := a.createUser(t, "ndog", "ndog@test.cd", user.RoleStudent, false)

	// refresh window long gone
	staleIat := time.Now().Add(-2 * conf.Server.JWTRefreshExpirationDelta).Unix()
	staleToken, err := echoapi.GenerateToken(echoapi.GetUserClaims(conf, usr, 0, 0, staleIat))
	if err != nil {
		t.Fatalf("GenerateToken(): %v", err)
	}

	tests := []httpTest{
		{name: "auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "inactive account", token: getToken(t, naughty), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name: "refresh period expired", token: staleToken, wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "refresh has expired"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/users/token-refresh", tt.token)
			a.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("token refreshed", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/token-refresh", getToken(t, usr))
		a.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var res echoapi.LoginResponse
		decode(t, rec, &res)
		assert.NotEmpty(t, res.Token)
	})
}

func Test_userApi_me(t *testing.T) {
	a := setup(t)

	sch := a.createSchool(t, "Mlimani Primary", "mlimani.admin", "admin@mlimani.cd")
	std := a.createStudent(t, sch, "Hero", "Mwamba", "hero@test.cd", "Grade 5A")
	stdUsr := a.user(t, std.UserID)

	tests := []httpTest{
		{name: "auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "student me", token: getToken(t, stdUsr), wantCode: http.StatusOK,
			wantData: marchallObj(t, echoapi.MeResponse{User: stdUsr, Role: user.RoleStudent, SchoolID: sch.ID, ProfileID: std.ID}),
		},
		{
			name: "school admin me", token: a.adminToken(t, sch), wantCode: http.StatusOK,
			wantData: marchallObj(t, echoapi.MeResponse{User: a.user(t, sch.AdminID), Role: user.RoleSchoolAdmin, SchoolID: sch.ID}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/users/me", tt.token)
			a.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
