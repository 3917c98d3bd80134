package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TokenIssuer implements the TokenService interface using HMAC-SHA256
type TokenIssuer struct {
	signingKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	audience   jwt.ClaimStrings
	logger     Logger
	now        func() time.Time
}

// NewTokenIssuer creates a new TokenService instance
func NewTokenIssuer(cfg Config, logger Logger) *TokenIssuer {
	if logger == nil {
		logger = defLogger{}
	}

	var aud jwt.ClaimStrings
	if len(cfg.GetAudience()) > 0 {
		aud = make(jwt.ClaimStrings, len(cfg.GetAudience()))
		copy(aud, cfg.GetAudience())
	}

	return &TokenIssuer{
		signingKey: []byte(cfg.GetSigningKey()),
		accessTTL:  cfg.GetTokenExpiration(),
		refreshTTL: cfg.GetRefreshExpiration(),
		issuer:     cfg.GetIssuer(),
		audience:   aud,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock overrides the time source, mostly for tests
func (ts *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	if now != nil {
		ts.now = now
	}
	return ts
}

var _ TokenService = (*TokenIssuer)(nil)

// IssueOption customizes a single issued token
type IssueOption func(*SessionClaims)

// WithExpiry overrides the default token lifetime
func WithExpiry(ttl time.Duration) IssueOption {
	return func(c *SessionClaims) {
		c.ExpiresAt = jwt.NewNumericDate(c.IssuedAt.Time.Add(ttl))
	}
}

// WithTokenType stamps the typ claim
func WithTokenType(typ string) IssueOption {
	return func(c *SessionClaims) {
		c.TokenType = typ
	}
}

// WithIssuedAt overrides the iat claim and shifts expiry to match
func WithIssuedAt(at time.Time) IssueOption {
	return func(c *SessionClaims) {
		ttl := c.ExpiresAt.Time.Sub(c.IssuedAt.Time)
		c.IssuedAt = jwt.NewNumericDate(at)
		c.ExpiresAt = jwt.NewNumericDate(at.Add(ttl))
	}
}

// Issue creates a signed access token for the given identity
func (ts *TokenIssuer) Issue(identity Identity, opts ...IssueOption) (string, error) {
	if identity == nil {
		return "", errors.New("identity must not be nil", errors.CategoryInternal)
	}

	claims := ts.newSessionClaims(identity.ID())
	claims.UserEmail = identity.Email()
	claims.UserRole = identity.Role()

	for _, opt := range opts {
		opt(claims)
	}

	return ts.signClaims(claims)
}

// IssueRefresh creates a long-lived refresh token carrying only the user ID
func (ts *TokenIssuer) IssueRefresh(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("user ID must not be empty", errors.CategoryBadInput)
	}

	claims := ts.newSessionClaims(userID)
	claims.TokenType = TokenTypeRefresh
	claims.ExpiresAt = jwt.NewNumericDate(claims.IssuedAt.Time.Add(ts.refreshTTL))

	return ts.signClaims(claims)
}

func (ts *TokenIssuer) newSessionClaims(subject string) *SessionClaims {
	now := ts.now()

	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   subject,
			Audience:  ts.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.accessTTL)),
		},
		UID: subject,
	}

	ensureTokenID(&claims.RegisteredClaims)

	return claims
}

// signClaims signs session claims using the configured signing key
func (ts *TokenIssuer) signClaims(claims *SessionClaims) (string, error) {
	if len(ts.signingKey) == 0 {
		return "", ErrSigningKeyMissing
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// Verify parses and validates a token string, returning structured claims
func (ts *TokenIssuer) Verify(tokenString string) (*SessionClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenIssuer verify encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).WithTextCode(ErrTokenMalformed.TextCode)
	}

	if claims, ok := token.Claims.(*SessionClaims); ok && token.Valid {
		return claims, nil
	}

	ts.logger.Error("TokenIssuer verify could not decode claims")
	return nil, ErrTokenMalformed
}

// Decode parses claims without verifying the signature. Never trust the
// output for authorization decisions.
func (ts *TokenIssuer) Decode(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).WithTextCode(ErrTokenMalformed.TextCode)
	}
	return claims, nil
}

// ensureTokenID stamps a jti claim when the caller has not set one
func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
}
