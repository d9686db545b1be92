package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	domainuser "stayloop/internal/domain/user"
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrPasswordTooShort   = errors.New("auth: password must be at least 8 characters")
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

type TokenIssuer interface {
	Issue(userID, role string, now time.Time) (string, error)
}

type Service struct {
	Users     domainuser.Repository
	Passwords PasswordHasher
	Tokens    TokenIssuer
	Logger    *slog.Logger
}

type RegisterParams struct {
	Email      string
	FirstName  string
	LastName   string
	Phone      string
	Password   string
	WantToHost bool
}

type LoginParams struct {
	Email    string
	Password string
}

type AuthResult struct {
	User  *domainuser.User
	Token string
}

func (s *Service) Register(ctx context.Context, params RegisterParams) (*AuthResult, error) {
	if err := s.validatePassword(params.Password); err != nil {
		return nil, err
	}
	hash, err := s.Passwords.Hash(params.Password)
	if err != nil {
		return nil, err
	}
	role := domainuser.RoleGuest
	if params.WantToHost {
		role = domainuser.RoleHost
	}
	u, err := domainuser.NewUser(domainuser.CreateParams{
		ID:           domainuser.ID(uuid.NewString()),
		Email:        params.Email,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		Phone:        params.Phone,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		return nil, err
	}
	if _, err := s.Users.ByEmail(ctx, u.Email); err == nil {
		return nil, domainuser.ErrEmailAlreadyUsed
	} else if !errors.Is(err, domainuser.ErrNotFound) {
		return nil, err
	}
	if err := s.Users.Save(ctx, u); err != nil {
		return nil, err
	}
	token, err := s.Tokens.Issue(string(u.ID), string(u.Role), time.Now())
	if err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("user registered", "user_id", u.ID, "email", u.Email, "role", u.Role)
	}
	return &AuthResult{User: u, Token: token}, nil
}

func (s *Service) Login(ctx context.Context, params LoginParams) (*AuthResult, error) {
	email := strings.TrimSpace(strings.ToLower(params.Email))
	if email == "" {
		return nil, ErrInvalidCredentials
	}
	u, err := s.Users.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domainuser.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := s.Passwords.Compare(u.PasswordHash, params.Password); err != nil {
		return nil, ErrInvalidCredentials
	}
	token, err := s.Tokens.Issue(string(u.ID), string(u.Role), time.Now())
	if err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("user authenticated", "user_id", u.ID)
	}
	return &AuthResult{User: u, Token: token}, nil
}

func (s *Service) Profile(ctx context.Context, userID string) (*domainuser.User, error) {
	return s.Users.ByID(ctx, domainuser.ID(userID))
}

type UpdateProfileParams struct {
	FirstName *string
	LastName  *string
	Phone     *string
	AvatarURL *string
	Bio       *string
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, params UpdateProfileParams) (*domainuser.User, error) {
	u, err := s.Users.ByID(ctx, domainuser.ID(userID))
	if err != nil {
		return nil, err
	}
	err = u.UpdateProfile(domainuser.ProfileUpdate{
		FirstName: params.FirstName,
		LastName:  params.LastName,
		Phone:     params.Phone,
		AvatarURL: params.AvatarURL,
		Bio:       params.Bio,
	}, time.Now())
	if err != nil {
		return nil, err
	}
	if err := s.Users.Save(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// BecomeHost upgrades a guest account and reissues a token carrying the new
// role, so the client does not keep sending guest-scoped credentials.
func (s *Service) BecomeHost(ctx context.Context, userID string) (*AuthResult, error) {
	u, err := s.Users.ByID(ctx, domainuser.ID(userID))
	if err != nil {
		return nil, err
	}
	if err := u.BecomeHost(time.Now()); err != nil {
		return nil, err
	}
	if err := s.Users.Save(ctx, u); err != nil {
		return nil, err
	}
	token, err := s.Tokens.Issue(string(u.ID), string(u.Role), time.Now())
	if err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("user became host", "user_id", u.ID)
	}
	return &AuthResult{User: u, Token: token}, nil
}

// ToggleFavorite flips the listing's presence in the user's favorites and
// reports the resulting state.
func (s *Service) ToggleFavorite(ctx context.Context, userID, listingID string) (bool, error) {
	u, err := s.Users.ByID(ctx, domainuser.ID(userID))
	if err != nil {
		return false, err
	}
	fav := u.ToggleFavorite(listingID, time.Now())
	if err := s.Users.Save(ctx, u); err != nil {
		return false, err
	}
	return fav, nil
}

func (s *Service) Favorites(ctx context.Context, userID string) ([]string, error) {
	u, err := s.Users.ByID(ctx, domainuser.ID(userID))
	if err != nil {
		return nil, err
	}
	return append([]string(nil), u.Favorites...), nil
}

func (s *Service) validatePassword(password string) error {
	if len(password) < 8 {
		return ErrPasswordTooShort
	}
	return nil
}
