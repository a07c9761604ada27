package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const MinSecretLen = 32

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrWeakSecret   = fmt.Errorf("signing secret must be at least %d bytes", MinSecretLen)
)

var signingMethod = jwt.SigningMethodHS256

type Options struct {
	Secret   []byte
	Issuer   string
	Audience string

	// Now defaults to time.Now.
	Now func() time.Time
}

// Codec signs and verifies access tokens with a single HMAC secret.
type Codec struct {
	secret   []byte
	issuer   string
	audience string
	now      func() time.Time
}

type Issued struct {
	Token     string
	JTI       string
	ExpiresAt time.Time
}

func NewCodec(opts Options) (*Codec, error) {
	if len(opts.Secret) < MinSecretLen {
		return nil, ErrWeakSecret
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	secret := make([]byte, len(opts.Secret))
	copy(secret, opts.Secret)
	return &Codec{
		secret:   secret,
		issuer:   opts.Issuer,
		audience: opts.Audience,
		now:      now,
	}, nil
}

// Issue signs a new access token for s valid for ttl, with a fresh jti.
func (c *Codec) Issue(s Subject, ttl time.Duration) (*Issued, error) {
	if s.ID == "" {
		return nil, errors.New("issue token: empty subject")
	}
	if ttl <= 0 {
		return nil, errors.New("issue token: non-positive ttl")
	}

	now := c.now().UTC()
	exp := now.Add(ttl)
	jti := uuid.NewString()

	claims := AccessClaims{
		Email:     s.Email,
		Name:      displayName(s.FirstName, s.LastName),
		FirstName: s.FirstName,
		LastName:  s.LastName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.ID,
			ID:        jti,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	if c.audience != "" {
		claims.Audience = jwt.ClaimStrings{c.audience}
	}

	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(c.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	// exp is encoded at second precision
	return &Issued{Token: signed, JTI: jti, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// ValidateExpired verifies signature and algorithm but ignores exp, nbf, iat,
// iss and aud. It only serves to recover the identity of a token presented
// together with a refresh token.
func (c *Codec) ValidateExpired(token string) (*AccessClaims, error) {
	return c.parse(token, jwt.WithoutClaimsValidation())
}

// Parse is the strict variant used to authenticate requests.
func (c *Codec) Parse(token string) (*AccessClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}
	if c.audience != "" {
		opts = append(opts, jwt.WithAudience(c.audience))
	}
	return c.parse(token, opts...)
}

func (c *Codec) parse(token string, opts ...jwt.ParserOption) (claims *AccessClaims, err error) {
	defer func() {
		if r := recover(); r != nil {
			claims, err = nil, ErrInvalidToken
		}
	}()

	if token == "" {
		return nil, ErrInvalidToken
	}

	opts = append(opts, jwt.WithValidMethods([]string{signingMethod.Alg()}))
	parsed := &AccessClaims{}
	tkn, err := jwt.ParseWithClaims(token, parsed, c.keyFunc, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !tkn.Valid {
		return nil, ErrInvalidToken
	}
	return parsed, nil
}

func (c *Codec) keyFunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok || t.Method.Alg() != signingMethod.Alg() {
		return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
	}
	return c.secret, nil
}
