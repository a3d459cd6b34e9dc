package token

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strconv"
	"time"

	"shop-service/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	UserID    uint64
	Email     string
	Role      domain.Role
	ID        string
	ExpiresAt time.Time
}

type Pair struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

type ProviderInterface interface {
	Issue(u *domain.User) (*Pair, error)
	ParseAccess(tok string) (*Claims, error)
	ParseRefresh(tok string) (*Claims, error)
}

type HSProvider struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	now           func() time.Time
}

var _ ProviderInterface = (*HSProvider)(nil)

func NewHSProvider(accessSecret, refreshSecret, issuer string, accessTTL, refreshTTL time.Duration) *HSProvider {
	return &HSProvider{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		issuer:        issuer,
		now:           time.Now,
	}
}

type customClaims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

func (p *HSProvider) sign(secret []byte, u *domain.User, ttl time.Duration, withProfile bool) (string, time.Time, error) {
	now := p.now()
	exp := now.Add(ttl)

	claims := customClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    p.issuer,
			Subject:   strconv.FormatUint(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	if withProfile {
		claims.Email = u.Email
		claims.Role = string(u.Role)
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	return signed, exp, err
}

// Issue signs a fresh access and refresh token for the user.
func (p *HSProvider) Issue(u *domain.User) (*Pair, error) {
	access, accessExp, err := p.sign(p.accessSecret, u, p.accessTTL, true)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := p.sign(p.refreshSecret, u, p.refreshTTL, false)
	if err != nil {
		return nil, err
	}
	return &Pair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (p *HSProvider) ParseAccess(tok string) (*Claims, error) {
	return p.parse(tok, p.accessSecret)
}

func (p *HSProvider) ParseRefresh(tok string) (*Claims, error) {
	return p.parse(tok, p.refreshSecret)
}

func (p *HSProvider) parse(tok string, secret []byte) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tok, &customClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	}, jwt.WithIssuer(p.issuer), jwt.WithTimeFunc(p.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	cc, ok := parsed.Claims.(*customClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	uid, err := strconv.ParseUint(cc.Subject, 10, 64)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	return &Claims{
		UserID:    uid,
		Email:     cc.Email,
		Role:      domain.Role(cc.Role),
		ID:        cc.ID,
		ExpiresAt: cc.ExpiresAt.Time,
	}, nil
}

// Hash is the at-rest form of a refresh token: base64url(sha256(token)).
func Hash(tok string) string {
	sum := sha256.Sum256([]byte(tok))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
