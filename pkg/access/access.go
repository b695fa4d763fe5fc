// Package access resolves caller privilege for the engine's administrative
// surface. Privilege is never ambient: every privileged entry point takes an
// explicit capability token, minted by an Authority and checked at the top
// of the call. A capability binds a role to a single engine instance.
package access

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dropforge/dropforge/pkg/fault"
)

// Role names a privilege level.
type Role string

const (
	// RoleOwner is the collection creator: phase administration,
	// pause/resume, withdrawal, supply reduction, airdrops.
	RoleOwner Role = "owner"
	// RolePlatform is the platform admin: factory-level fee defaults.
	RolePlatform Role = "platform-admin"
)

const issuer = "dropforge/access"

// Claims is the capability payload.
type Claims struct {
	jwt.RegisteredClaims
	Role       Role   `json:"role"`
	InstanceID string `json:"instance_id,omitempty"`
}

// Authority mints and checks capabilities with a shared HMAC key.
type Authority struct {
	key []byte
	now func() time.Time
}

// NewAuthority creates an authority from a signing key.
func NewAuthority(key []byte) (*Authority, error) {
	if len(key) == 0 {
		return nil, fault.Config(fault.CodeZeroAddress, "capability signing key must not be empty")
	}
	return &Authority{key: key, now: time.Now}, nil
}

// NewAuthorityWithClock injects a clock for tests.
func NewAuthorityWithClock(key []byte, now func() time.Time) (*Authority, error) {
	a, err := NewAuthority(key)
	if err != nil {
		return nil, err
	}
	a.now = now
	return a, nil
}

// Mint signs a capability for subject with the given role, scoped to
// instanceID (empty for platform-level capabilities), valid for ttl.
func (a *Authority) Mint(subject string, role Role, instanceID string, ttl time.Duration) (string, error) {
	now := a.now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role:       role,
		InstanceID: instanceID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.key)
}

// Check validates a capability string against the required role and
// instance scope, returning the authenticated subject.
func (a *Authority) Check(capability string, role Role, instanceID string) (string, error) {
	token, err := jwt.ParseWithClaims(capability, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return a.key, nil
	}, jwt.WithTimeFunc(a.now), jwt.WithIssuer(issuer))
	if err != nil {
		return "", fault.Authorization(fault.CodeBadCapability, "capability rejected: %v", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", fault.Authorization(fault.CodeBadCapability, "capability rejected")
	}
	if claims.Role != role {
		code := fault.CodeNotOwner
		if role == RolePlatform {
			code = fault.CodeNotPlatform
		}
		return "", fault.Authorization(code, "capability role %q, need %q", claims.Role, role)
	}
	if claims.InstanceID != instanceID {
		return "", fault.Authorization(fault.CodeBadCapability, "capability scoped to instance %q", claims.InstanceID)
	}
	return claims.Subject, nil
}
