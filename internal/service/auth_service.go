package service

import (
	"crypto/subtle"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"devscreen/internal/config"
	"devscreen/internal/model"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// AuthService handles clinician authentication
type AuthService struct {
	clinicianID string
	username    string
	password    string
	jwtSecret   []byte
	tokenTTL    time.Duration
	now         func() time.Time
}

// ClinicianIDFor returns the id a login with cfg receives. Without an explicit
// ClinicianID it is derived from the username, so it survives re-login and
// token expiry.
func ClinicianIDFor(cfg config.AuthConfig) string {
	if cfg.ClinicianID != "" {
		return cfg.ClinicianID
	}
	return "clin_" + uuid.NewSHA1(uuid.NameSpaceOID, []byte(cfg.Username)).String()[:8]
}

// NewAuthService creates a new auth service
func NewAuthService(cfg config.AuthConfig) *AuthService {
	return &AuthService{
		clinicianID: ClinicianIDFor(cfg),
		username:    cfg.Username,
		password:    cfg.Password,
		jwtSecret:   []byte(cfg.Secret),
		tokenTTL:    cfg.TokenTTL,
		now:         time.Now,
	}
}

// Login validates credentials and returns a signed token
func (s *AuthService) Login(username, password string) (*model.LoginResponse, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) == 1
	if !userOK || !passOK {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.IssueToken(s.clinicianID)
	if err != nil {
		return nil, err
	}

	return &model.LoginResponse{
		Token:       token,
		ClinicianID: s.clinicianID,
		ExpiresAt:   expiresAt.Unix(),
	}, nil
}

// IssueToken signs a clinician token valid for the configured TTL
func (s *AuthService) IssueToken(clinicianID string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.tokenTTL)
	claims := &model.ClinicianClaims{
		ClinicianID: clinicianID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateToken validates a clinician JWT and returns claims
func (s *AuthService) ValidateToken(tokenString string) (*model.ClinicianClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.ClinicianClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.ClinicianClaims)
	if !ok || !token.Valid || claims.ClinicianID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
