package services

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/vrdialip/Peminjaman-App/internal/auth"
	"github.com/vrdialip/Peminjaman-App/internal/domain"
	"github.com/vrdialip/Peminjaman-App/internal/repos"
)

var ErrBadCreds = errors.New("invalid email or password")
var ErrSuspended = errors.New("account is suspended")

type AuthService struct {
	Users  *repos.UserRepo
	Secret string
}

func NewAuthService(users *repos.UserRepo, secret string) *AuthService {
	return &AuthService{Users: users, Secret: secret}
}

// Login verifies credentials and issues a signed API token.
func (s *AuthService) Login(email, password string) (string, *domain.User, error) {
	u, err := s.Users.ByEmail(email)
	if err != nil {
		return "", nil, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return "", nil, ErrBadCreds
	}
	if u.Status != "active" {
		return "", nil, ErrSuspended
	}
	token, err := auth.GenerateToken(s.Secret, u.ID, u.OrganizationID, u.Role, u.Name)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// Verify validates a bearer token and returns the acting identity.
func (s *AuthService) Verify(token string) (domain.Actor, error) {
	claims, err := auth.ValidateToken(s.Secret, token)
	if err != nil {
		return domain.Actor{}, err
	}
	return domain.Actor{
		UserID:         claims.UserID,
		OrganizationID: claims.OrganizationID,
		Role:           claims.Role,
		Name:           claims.Name,
	}, nil
}

// ChangePassword verifies the current password before setting a new one.
func (s *AuthService) ChangePassword(userID int64, current, next string) error {
	u, err := s.Users.ByID(userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(current)) != nil {
		return ErrBadCreds
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), 12)
	if err != nil {
		return err
	}
	return s.Users.SetPassword(userID, string(hash))
}

// HashPassword is used when the master admin creates or resets accounts.
func HashPassword(raw string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(raw), 12)
	return string(h), err
}
