package jwt

//go:generate go run go.uber.org/mock/mockgen -source=./jwt.go -destination=./mocks/jwt_mock.go -package=mocks

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"teleconsult/config"
	"teleconsult/shared/timezone"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("token has expired")
	ErrInvalidClaim  = errors.New("invalid token claim")
	ErrMissingHeader = errors.New("authorization header is required")
	ErrHeaderFormat  = errors.New("authorization header must start with 'Bearer '")
)

// AccessClaims identify a staff caller of the management API.
type AccessClaims struct {
	Email        string `json:"email"`
	Role         string `json:"role"`
	OrgID        string `json:"org_id,omitempty"`
	DepartmentID string `json:"department_id,omitempty"`
	jwt.RegisteredClaims
}

// MeetingClaims bind a join token to one appointment and one invitee. They never expire;
// admission timing is enforced when the token is redeemed.
type MeetingClaims struct {
	Email         string `json:"email"`
	AppointmentID string `json:"appointment_id"`
	jwt.RegisteredClaims
}

// JWT validates staff access tokens issued by the identity provider and issues
// meeting join tokens.
type JWT interface {
	ValidateAccessToken(tokenString string) (*AccessClaims, error)
	IssueMeetingToken(email, appointmentID string) (string, error)
	ValidateMeetingToken(tokenString string) (*MeetingClaims, error)
}

type Service struct {
	config *config.Config
}

func New(cfg *config.Config) JWT {
	return &Service{
		config: cfg,
	}
}

func (s *Service) ValidateAccessToken(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}

	if err := parse(tokenString, claims, s.config.JWT.AccessSecret); err != nil {
		return nil, err
	}

	if claims.Email == "" || claims.Role == "" {
		return nil, ErrInvalidClaim
	}

	return claims, nil
}

func (s *Service) IssueMeetingToken(email, appointmentID string) (string, error) {
	claims := &MeetingClaims{
		Email:         email,
		AppointmentID: appointmentID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(timezone.Now()),
			Issuer:   s.config.JWT.Issuer,
			Subject:  email,
			ID:       uuid.NewString(),
		},
	}

	return sign(claims, s.config.JWT.MeetingSecret)
}

func (s *Service) ValidateMeetingToken(tokenString string) (*MeetingClaims, error) {
	claims := &MeetingClaims{}

	if err := parse(tokenString, claims, s.config.JWT.MeetingSecret); err != nil {
		return nil, err
	}

	if claims.Email == "" || claims.AppointmentID == "" {
		return nil, ErrInvalidClaim
	}

	return claims, nil
}

func sign(claims jwt.Claims, secret string) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

func parse(tokenString string, claims jwt.Claims, secret string) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrExpiredToken
		}

		return ErrInvalidToken
	}

	if !token.Valid {
		return ErrInvalidToken
	}

	return nil
}

func ExtractTokenFromHeader(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrMissingHeader
	}

	token, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok || token == "" {
		return "", ErrHeaderFormat
	}

	return token, nil
}
