package jwt

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	ClaimEmployeeID = "employee_id"
	ClaimRole       = "role"
	ClaimType       = "type"
	TokenTypeAccess = "access"
)

// Role is the HR role carried in the access token.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleOwner    Role = "owner"
)

var RoleValues = []string{
	string(RoleEmployee),
	string(RoleManager),
	string(RoleOwner),
}

func (r Role) Valid() bool {
	return slices.Contains(RoleValues, string(r))
}

// CanManageAttendance reports whether the role may change groups, shifts and
// memberships.
func (r Role) CanManageAttendance() bool {
	return r == RoleManager || r == RoleOwner
}

// RoleFromClaims reads the role claim. Tokens without a known role are
// treated as plain employees.
func RoleFromClaims(claims map[string]interface{}) Role {
	role, _ := claims[ClaimRole].(string)
	if r := Role(role); r.Valid() {
		return r
	}
	return RoleEmployee
}

var ErrManagerAccessRequired = errors.New("manager access required")

type Service interface {
	GenerateAccessToken(employeeID string, role Role) (token string, expiresAt int64, err error)
	JWTAuth() *jwtauth.JWTAuth
}

// JWTService verifies employee access tokens. Tokens are normally issued by
// the identity service sharing the same secret; GenerateAccessToken exists
// for tooling and tests.
type JWTService struct {
	accessTokenExpirationTime time.Duration
	tokenAuth                 *jwtauth.JWTAuth
	now                       func() time.Time
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func (j *JWTService) GenerateAccessToken(employeeID string, role Role) (token string, expiresAt int64, err error) {
	if employeeID == "" {
		return "", 0, fmt.Errorf("employee id is required")
	}
	if !role.Valid() {
		return "", 0, fmt.Errorf("unknown role %q", role)
	}
	expiresAt = j.now().Add(j.accessTokenExpirationTime).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		ClaimEmployeeID: employeeID,
		ClaimRole:       string(role),
		ClaimType:       TokenTypeAccess,
		"exp":           expiresAt,
	})
	if err != nil {
		return "", 0, fmt.Errorf("failed to encode access token: %w", err)
	}
	return tokenString, expiresAt, nil
}

func NewJWTService(secretKey string, accessTokenExpirationTime string) (Service, error) {
	exp, err := time.ParseDuration(accessTokenExpirationTime)
	if err != nil {
		return nil, fmt.Errorf("invalid access token expiration %q: %w", accessTokenExpirationTime, err)
	}
	return &JWTService{
		accessTokenExpirationTime: exp,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
		now:                       time.Now,
	}, nil
}
