package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/you/qnaforum/domain"
)

// JWTServiceImpl implements domain.SessionSigner. Session tokens are
// HS256-signed with a server-held secret; expiry is fixed at issuance and
// tokens are not renewable without re-authentication.
type JWTServiceImpl struct {
	secretKey  []byte
	issuer     string
	sessionTTL time.Duration
}

// NewJWTService creates a new JWT session signer
func NewJWTService(secretKey, issuer string, sessionTTL time.Duration) domain.SessionSigner {
	return &JWTServiceImpl{
		secretKey:  []byte(secretKey),
		issuer:     issuer,
		sessionTTL: sessionTTL,
	}
}

// generateJTI creates a unique JWT ID
func (j *JWTServiceImpl) generateJTI() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// Mint implements domain.SessionSigner
func (j *JWTServiceImpl) Mint(account *domain.Account) (string, int64, error) {
	jti, err := j.generateJTI()
	if err != nil {
		return "", 0, err
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":            account.ID,
		"role":           string(account.Role),
		"provider":       string(account.Provider),
		"email_verified": account.IsEmailVerified,
		"iss":            j.issuer,
		"iat":            now.Unix(),
		"exp":            now.Add(j.sessionTTL).Unix(),
		"jti":            jti,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secretKey)
	if err != nil {
		return "", 0, err
	}
	return token, int64(j.sessionTTL.Seconds()), nil
}

// Verify implements domain.SessionSigner. Expiry is reported distinctly
// from a malformed or wrongly signed token so the token service can
// surface token_expired to callers.
func (j *JWTServiceImpl) Verify(tokenString string) (*domain.TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidToken
		}
		return j.secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrInvalidToken
	}
	if !token.Valid {
		return nil, domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, domain.ErrInvalidToken
	}

	sub, ok := claims["sub"].(float64)
	if !ok {
		return nil, domain.ErrInvalidToken
	}
	role, ok := claims["role"].(string)
	if !ok {
		return nil, domain.ErrInvalidToken
	}
	iat, _ := claims["iat"].(float64)
	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, domain.ErrInvalidToken
	}
	if time.Unix(int64(exp), 0).Before(time.Now()) {
		return nil, domain.ErrTokenExpired
	}

	tokenClaims := &domain.TokenClaims{
		AccountID: uint(sub),
		Role:      domain.Role(role),
		IssuedAt:  int64(iat),
		ExpiresAt: int64(exp),
	}
	if provider, ok := claims["provider"].(string); ok {
		tokenClaims.Provider = domain.Provider(provider)
	}
	if verified, ok := claims["email_verified"].(bool); ok {
		tokenClaims.EmailVerified = verified
	}

	return tokenClaims, nil
}
