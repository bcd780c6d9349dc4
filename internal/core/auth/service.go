package auth

import (
	"crypto/subtle"
	"errors"
)

// ErrInvalidCredentials is returned for a wrong username or password.
var ErrInvalidCredentials = errors.New("invalid username or password")

const RoleAdmin = "admin"

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Service authenticates the single configured administrator.
type Service struct {
	username     string
	passwordHash string
	jwt          *JWTService
}

func NewService(username, passwordHash string, jwtService *JWTService) *Service {
	return &Service{
		username:     username,
		passwordHash: passwordHash,
		jwt:          jwtService,
	}
}

// Login checks credentials and issues an access token.
func (s *Service) Login(req *LoginRequest) (*LoginResponse, error) {
	if subtle.ConstantTimeCompare([]byte(req.Username), []byte(s.username)) != 1 {
		return nil, ErrInvalidCredentials
	}
	if !PasswordMatches(s.passwordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}

	token, expiresIn, err := s.jwt.GenerateAccessToken(&TokenClaims{Username: s.username, Role: RoleAdmin})
	if err != nil {
		return nil, err
	}

	return &LoginResponse{AccessToken: token, TokenType: "Bearer", ExpiresIn: expiresIn}, nil
}

// ValidateToken returns the claims of a valid token.
func (s *Service) ValidateToken(token string) (*TokenClaims, error) {
	return s.jwt.ValidateAccessToken(token)
}
