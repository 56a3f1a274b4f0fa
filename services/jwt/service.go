package jwt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tech-arch1tect/recipemanager/config"
	"github.com/tech-arch1tect/recipemanager/services/logging"
	"go.uber.org/zap"
)

type TokenType string

const (
	TypeAuth          TokenType = "auth"
	TypeVerifyEmail   TokenType = "verify-email"
	TypePasswordReset TokenType = "password-reset"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrMalformedToken   = errors.New("malformed token")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrWrongTokenType   = fmt.Errorf("%w: unexpected token type", ErrInvalidToken)
	ErrSecretTooShort   = fmt.Errorf("token secret must be at least %d bytes", config.MinTokenSecretLength)
)

type Claims struct {
	Type   TokenType `json:"type"`
	UserID uint      `json:"uid"`
	jwt.RegisteredClaims
}

type Service struct {
	secret   []byte
	issuer   string
	validity time.Duration
	now      func() time.Time
	logger   *logging.Service
}

func NewService(cfg config.TokenConfig, logger *logging.Service) (*Service, error) {
	if len(cfg.Secret) < config.MinTokenSecretLength {
		return nil, ErrSecretTooShort
	}
	validity := cfg.Validity
	if validity <= 0 {
		validity = time.Hour
	}
	return &Service{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		validity: validity,
		now:      time.Now,
		logger:   logger,
	}, nil
}

func ProvideService(cfg *config.Config, logger *logging.Service) (*Service, error) {
	return NewService(cfg.Token, logger)
}

// WithClock returns a copy of the service that reads the time from now.
func (s *Service) WithClock(now func() time.Time) *Service {
	clone := *s
	clone.now = now
	return &clone
}

func (s *Service) Validity() time.Duration {
	return s.validity
}

func (s *Service) Issue(userID uint, tokenType TokenType) (string, error) {
	now := s.now()
	claims := Claims{
		Type:   tokenType,
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.validity)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		s.logger.Error("failed to sign token", zap.Error(err), zap.String("token_type", string(tokenType)))
		return "", fmt.Errorf("failed to generate %s token: %w", tokenType, err)
	}

	return tokenString, nil
}

// Parse verifies the signature, expiry and type of a token. An expired token
// yields ErrExpiredToken. Every other failure, including a type mismatch,
// matches ErrInvalidToken.
func (s *Service) Parse(tokenString string, expected TokenType) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			s.logger.Debug("token expired", zap.String("expected_type", string(expected)))
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenMalformed):
			s.logger.Warn("malformed token", zap.Error(err))
			return nil, fmt.Errorf("%w: %w", ErrInvalidToken, ErrMalformedToken)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			s.logger.Warn("token signature rejected", zap.Error(err))
			return nil, fmt.Errorf("%w: %w", ErrInvalidToken, ErrInvalidSignature)
		default:
			s.logger.Warn("token validation failed", zap.Error(err))
			return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
		}
	}

	if claims.IssuedAt != nil && s.now().Sub(claims.IssuedAt.Time) > s.validity {
		return nil, ErrExpiredToken
	}

	if claims.UserID == 0 || claims.Type == "" {
		s.logger.Warn("token payload has unexpected shape")
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, ErrMalformedToken)
	}

	if claims.Type != expected {
		s.logger.Warn("token type mismatch",
			zap.String("expected_type", string(expected)),
			zap.String("actual_type", string(claims.Type)),
			zap.Uint("user_id", claims.UserID))
		return nil, ErrWrongTokenType
	}

	return claims, nil
}

func (s *Service) keyFunc(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return s.secret, nil
}

var (
	ErrMissingHeader   = errors.New("authorization header is missing")
	ErrMalformedHeader = errors.New("authorization header is not in the form 'Bearer <token>'")
	ErrEmptyToken      = errors.New("authorization token is empty")
)

// ExtractBearer returns the token from an "Authorization: Bearer <token>"
// header value. The scheme is matched case-insensitively.
func ExtractBearer(header string) (string, error) {
	if header == "" {
		return "", ErrMissingHeader
	}

	parts := strings.Split(header, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", ErrMalformedHeader
	}

	if parts[1] == "" {
		return "", ErrEmptyToken
	}

	return parts[1], nil
}
