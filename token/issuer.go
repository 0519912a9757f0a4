package token

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/property-portal/internal/errors"
	"github.com/jrsteele09/property-portal/roles"
	"github.com/jrsteele09/property-portal/users"
)

// Claims carried by backend access tokens
type Claims struct {
	Role  roles.Role `json:"role"`
	Email string     `json:"email,omitempty"`
	Name  string     `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Issuer creates and checks the access tokens handed out at login.
type Issuer struct {
	signer   *KeyPairSigner
	issuer   string
	audience string
	ttl      time.Duration
	revoked  RevocationList
	nowTime  func() time.Time
}

// IssuerOption modifies an Issuer.
type IssuerOption func(*Issuer)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.nowTime = nowFunc
	}
}

// WithRevocationList replaces the in-memory revocation list
func WithRevocationList(list RevocationList) IssuerOption {
	return func(i *Issuer) {
		i.revoked = list
	}
}

// NewIssuer creates an issuer that signs with signer. issuer and audience become the
// iss and aud claims.
func NewIssuer(signer *KeyPairSigner, issuer, audience string, ttl time.Duration, options ...IssuerOption) *Issuer {
	i := &Issuer{
		signer:   signer,
		issuer:   strings.TrimRight(issuer, "/"),
		audience: audience,
		ttl:      ttl,
		revoked:  NewMemoryRevocationList(),
		nowTime:  time.Now,
	}
	for _, opt := range options {
		opt(i)
	}
	return i
}

// IssuerURL returns the iss claim value
func (i *Issuer) IssuerURL() string {
	return i.issuer
}

// JWKS returns the public keys verifiers need
func (i *Issuer) JWKS() (*JWKS, error) {
	return i.signer.JWKS()
}

// Issue signs a new access token for u.
func (i *Issuer) Issue(u *users.User) (string, *Claims, error) {
	now := i.nowTime()
	claims := &Claims{
		Role:  u.Role,
		Email: u.Email,
		Name:  u.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,                           // The issuer of the token
			Subject:   u.ID,                               // The user the token represents
			Audience:  jwt.ClaimStrings{i.audience},       // The portal the token is intended for
			IssuedAt:  jwt.NewNumericDate(now),            // Issued At: the time at which the token was issued
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)), // Expiry: when the token will expire
			ID:        uuid.New().String(),                // Unique token ID for revocation
		},
	}

	raw, err := i.signer.Sign(claims)
	if err != nil {
		return "", nil, errors.Wrapf(err, "[Issuer.Issue] sign token for %s", u.Email)
	}
	return raw, claims, nil
}

// Parse verifies raw's signature, issuer, audience, expiry and revocation status.
func (i *Issuer) Parse(raw string) (*Claims, error) {
	claims, err := i.parse(raw)
	if err != nil {
		return nil, err
	}
	if i.revoked.Revoked(claims.ID, i.nowTime()) {
		return nil, errors.ErrTokenRevoked
	}
	return claims, nil
}

// Revoke blocks raw until its expiry. Expired or already revoked tokens are ignored.
func (i *Issuer) Revoke(raw string) error {
	claims, err := i.parse(raw)
	if errors.Is(err, errors.ErrTokenExpired) {
		return nil
	}
	if err != nil {
		return err
	}
	return i.revoked.Revoke(claims.ID, claims.ExpiresAt.Time)
}

// Prune drops revocation entries for tokens that have expired anyway
func (i *Issuer) Prune() int {
	return i.revoked.Prune(i.nowTime())
}

func (i *Issuer) parse(raw string) (*Claims, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errors.ErrInvalidToken
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, i.signer.Keyfunc,
		jwt.WithValidMethods([]string{i.signer.Method().Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithAudience(i.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.nowTime),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", errors.ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidToken, err)
	}
	if !claims.Role.Valid() || claims.ID == "" {
		return nil, errors.ErrInvalidToken
	}
	return claims, nil
}
