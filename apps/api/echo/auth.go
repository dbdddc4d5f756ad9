package echoapi

import (
	"context"
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/student"
	"github.com/trezcool/shule/core/teacher"
	"github.com/trezcool/shule/core/user"
)

var (
	// appJWTConfig is the default JWT auth middleware config; the signing key
	// is set by NewServer from the app secret.
	appJWTConfig = middleware.JWTConfig{
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    "userToken",
		Claims:        new(Claims),
	}
	contextUserKey = "user"
)

// Claims represents the authorization claims transmitted via a JWT. SchoolID
// and ProfileID are the tenant resolution at issuance time; the role
// middleware re-resolves both on every request.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64     `json:"oriat,omitempty"`
	Username     string    `json:"username,omitempty"`
	Email        string    `json:"email,omitempty"`
	Role         user.Role `json:"role,omitempty"`
	SchoolID     int       `json:"school_id,omitempty"`
	ProfileID    int       `json:"profile_id,omitempty"`
}

func GetUserClaims(conf *core.Config, usr user.User, schoolID, profileID int, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	var oriat int64
	if len(origIat) > 0 {
		oriat = origIat[0]
	} else {
		oriat = nownix
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   strconv.Itoa(usr.ID),
			Audience:  conf.AppName,
			Id:        uuid.New().String(),
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Username:     usr.Username,
		Email:        usr.Email,
		Role:         usr.Role,
		SchoolID:     schoolID,
		ProfileID:    profileID,
	}
}

func authenticate(ctx context.Context, uname, pwd string, deps *ServerDeps) (*Claims, error) {
	usr, err := deps.UserSvc.GetByUsernameOrEmail(ctx, uname)
	if err != nil {
		if err == user.ErrNotFound {
			return nil, errAuthenticationFailed
		}
		return nil, errors.Wrap(err, "finding user by username or email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return nil, errAuthenticationFailed
	}
	if !usr.IsActive {
		return nil, errAccountDeactivated
	}

	schoolID, profileID, err := resolveTenant(ctx, usr, deps)
	if err != nil {
		return nil, errors.Wrap(err, "resolving tenant")
	}
	return GetUserClaims(deps.Conf, usr, schoolID, profileID), nil
}

// resolveTenant looks up the caller's school and profile ids; zero means the
// account has none attached (yet).
func resolveTenant(ctx context.Context, usr user.User, deps *ServerDeps) (schoolID, profileID int, err error) {
	switch usr.Role {
	case user.RoleSchoolAdmin:
		sch, err := deps.SchoolSvc.GetByAdmin(ctx, usr.ID)
		if err != nil {
			if err == school.ErrNotFound {
				return 0, 0, nil
			}
			return 0, 0, err
		}
		return sch.ID, 0, nil
	case user.RoleTeacher:
		tcr, err := deps.TeacherSvc.GetByUser(ctx, usr.ID)
		if err != nil {
			if err == teacher.ErrNotFound {
				return 0, 0, nil
			}
			return 0, 0, err
		}
		return tcr.SchoolID, tcr.ID, nil
	case user.RoleStudent:
		std, err := deps.StudentSvc.GetByUser(ctx, usr.ID)
		if err != nil {
			if err == student.ErrNotFound {
				return 0, 0, nil
			}
			return 0, 0, err
		}
		return std.SchoolID, std.ID, nil
	}
	return 0, 0, nil
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(appJWTConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(appJWTConfig.SigningKey)
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(appJWTConfig.ContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextUser(ctx echo.Context, deps *ServerDeps, clms ...Claims) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}

	var claims Claims
	var err error
	if len(clms) > 0 {
		claims = clms[0]
	} else {
		claims, err = getContextClaims(ctx)
		if err != nil {
			return user.User{}, errors.Wrap(err, "getting context claims")
		}
	}

	id, err := strconv.Atoi(claims.Subject)
	if err != nil {
		return user.User{}, errUnauthorized
	}
	usr, err := deps.UserSvc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		if err == user.ErrNotFound {
			return user.User{}, errUnauthorized
		}
		return user.User{}, errors.Wrap(err, "finding user by ID")
	}
	ctx.Set(contextUserKey, usr)
	return usr, nil
}

func refreshToken(ctx echo.Context, deps *ServerDeps) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}

	usr, err := getContextUser(ctx, deps, claims)
	if err != nil {
		return "", errors.Wrap(err, "getting context user")
	}

	// check if user is still active
	if !usr.IsActive {
		return "", errAccountDeactivated
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(deps.Conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return "", errRefreshExpired
	}

	schoolID, profileID, err := resolveTenant(ctx.Request().Context(), usr, deps)
	if err != nil {
		return "", errors.Wrap(err, "resolving tenant")
	}

	newClaims := GetUserClaims(deps.Conf, usr, schoolID, profileID, claims.OrigIssuedAt)
	token, err := GenerateToken(newClaims)
	return token, errors.Wrap(err, "generating token")
}
