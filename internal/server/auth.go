package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
)

var (
	ErrMissingToken     = errors.New("missing bearer token")
	ErrInvalidToken     = errors.New("invalid token format")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrTokenExpired     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token not yet valid")
	ErrInvalidIssuer    = errors.New("invalid issuer")
	ErrWeakSecret       = errors.New("auth secret must be at least 32 bytes")
)

// MinSecretLen is the shortest HS256 key accepted (the SHA-256 output size).
const MinSecretLen = 32

// subjectKey is the gin context key holding the verified "sub" claim.
const subjectKey = "auth.subject"

// Authenticator verifies HS256-signed JWT bearer tokens.
type Authenticator struct {
	secret []byte
	issuer string
	leeway time.Duration
	now    func() time.Time
}

// NewAuthenticator returns an Authenticator for secret. A non-empty issuer
// must match the token's "iss" claim.
func NewAuthenticator(secret []byte, issuer string) (*Authenticator, error) {
	if len(secret) < MinSecretLen {
		return nil, ErrWeakSecret
	}
	return &Authenticator{
		secret: secret,
		issuer: issuer,
		leeway: jwt.DefaultLeeway,
		now:    time.Now,
	}, nil
}

// Verify checks the signature and the time and issuer claims of token.
func (a *Authenticator) Verify(token string) (*jwt.Claims, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	tok, err := jwt.ParseSigned(token, []jose.SignatureAlgorithm{jose.HS256})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims := &jwt.Claims{}
	if err := tok.Claims(a.secret, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	err = claims.ValidateWithLeeway(jwt.Expected{Issuer: a.issuer, Time: a.now()}, a.leeway)
	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, jwt.ErrExpired):
		return nil, ErrTokenExpired
	case errors.Is(err, jwt.ErrNotValidYet), errors.Is(err, jwt.ErrIssuedInTheFuture):
		return nil, ErrTokenNotYetValid
	case errors.Is(err, jwt.ErrInvalidIssuer):
		return nil, fmt.Errorf("%w: expected '%s', got '%s'", ErrInvalidIssuer, a.issuer, claims.Issuer)
	default:
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
}

// Issue signs a token for subject valid for ttl. Used by operators to mint
// client tokens and by tests.
func (a *Authenticator) Issue(subject string, ttl time.Duration) (string, error) {
	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.HS256, Key: a.secret}, (&jose.SignerOptions{}).WithType("JWT"))
	if err != nil {
		return "", fmt.Errorf("failed to create signer: %w", err)
	}
	now := a.now()
	claims := jwt.Claims{
		Subject:   subject,
		Issuer:    a.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Expiry:    jwt.NewNumericDate(now.Add(ttl)),
	}
	token, err := jwt.Signed(signer).Claims(claims).Serialize()
	if err != nil {
		return "", fmt.Errorf("failed to create JWT: %w", err)
	}
	return token, nil
}

// Middleware rejects requests without a valid "Authorization: Bearer"
// header with 401.
func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := a.Verify(bearerToken(c.GetHeader("Authorization")))
		if err != nil {
			c.Header("WWW-Authenticate", `Bearer realm="pdf-compressor"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Set(subjectKey, claims.Subject)
		c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
