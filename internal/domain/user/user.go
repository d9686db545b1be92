package user

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrIDRequired          = errors.New("user: id is required")
	ErrEmailRequired       = errors.New("user: email is required")
	ErrEmailInvalid        = errors.New("user: email is invalid")
	ErrPasswordHashMissing = errors.New("user: password hash is required")
	ErrNameRequired        = errors.New("user: name is required")
	ErrInvalidRole         = errors.New("user: invalid role")
	ErrEmailAlreadyUsed    = errors.New("user: email already used")
	ErrNotFound            = errors.New("user: not found")
	ErrAlreadyHost         = errors.New("user: already a host")
	ErrBioTooLong          = errors.New("user: bio exceeds 500 characters")
)

type ID string

// Role is the single account role. A guest becomes a host through
// BecomeHost, which installs the host profile in the same transition.
type Role string

const (
	RoleGuest Role = "guest"
	RoleHost  Role = "host"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleGuest, RoleHost, RoleAdmin:
		return true
	}
	return false
}

// HostProfile exists only for accounts with RoleHost or RoleAdmin.
type HostProfile struct {
	HostSince    time.Time
	ResponseRate int
	ResponseTime string
	Superhost    bool
}

type Profile struct {
	FirstName string
	LastName  string
	Phone     string
	AvatarURL string
	Bio       string
}

type User struct {
	ID           ID
	Email        string
	Profile      Profile
	PasswordHash string
	Role         Role
	Host         *HostProfile
	Favorites    []string
	Verified     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*User, error)
	ByEmail(ctx context.Context, email string) (*User, error)
	Save(ctx context.Context, user *User) error
}

type CreateParams struct {
	ID           ID
	Email        string
	FirstName    string
	LastName     string
	Phone        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

func NewUser(params CreateParams) (*User, error) {
	id := strings.TrimSpace(string(params.ID))
	if id == "" {
		return nil, ErrIDRequired
	}
	email := normalizeEmail(params.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	if !strings.Contains(email, "@") {
		return nil, ErrEmailInvalid
	}
	if strings.TrimSpace(params.PasswordHash) == "" {
		return nil, ErrPasswordHashMissing
	}
	first := strings.TrimSpace(params.FirstName)
	last := strings.TrimSpace(params.LastName)
	if first == "" || last == "" {
		return nil, ErrNameRequired
	}

	now := params.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	role := params.Role
	if role == "" {
		role = RoleGuest
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	u := &User{
		ID:    ID(id),
		Email: email,
		Profile: Profile{
			FirstName: first,
			LastName:  last,
			Phone:     strings.TrimSpace(params.Phone),
		},
		PasswordHash: params.PasswordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if role == RoleHost || role == RoleAdmin {
		u.Host = &HostProfile{HostSince: now}
	}
	return u, nil
}

// CanHost reports whether the account may own listings and manage bookings
// on the host side.
func (u *User) CanHost() bool {
	return u.Role == RoleHost || u.Role == RoleAdmin
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// BecomeHost upgrades a guest account. The role change and the host
// profile are installed together so a host never exists without one.
func (u *User) BecomeHost(now time.Time) error {
	if u.CanHost() {
		return ErrAlreadyHost
	}
	u.Role = RoleHost
	u.Host = &HostProfile{HostSince: nowOrCurrent(now)}
	u.touch(now)
	return nil
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.Profile.FirstName + " " + u.Profile.LastName)
}

type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Phone     *string
	AvatarURL *string
	Bio       *string
}

func (u *User) UpdateProfile(update ProfileUpdate, now time.Time) error {
	if update.FirstName != nil {
		trimmed := strings.TrimSpace(*update.FirstName)
		if trimmed == "" {
			return ErrNameRequired
		}
		u.Profile.FirstName = trimmed
	}
	if update.LastName != nil {
		trimmed := strings.TrimSpace(*update.LastName)
		if trimmed == "" {
			return ErrNameRequired
		}
		u.Profile.LastName = trimmed
	}
	if update.Phone != nil {
		u.Profile.Phone = strings.TrimSpace(*update.Phone)
	}
	if update.AvatarURL != nil {
		u.Profile.AvatarURL = strings.TrimSpace(*update.AvatarURL)
	}
	if update.Bio != nil {
		bio := strings.TrimSpace(*update.Bio)
		if len(bio) > 500 {
			return ErrBioTooLong
		}
		u.Profile.Bio = bio
	}
	u.touch(now)
	return nil
}

func (u *User) SetPasswordHash(hash string, now time.Time) error {
	if strings.TrimSpace(hash) == "" {
		return ErrPasswordHashMissing
	}
	u.PasswordHash = hash
	u.touch(now)
	return nil
}

// ToggleFavorite adds the listing to the favorites list, or removes it if
// already present. Reports whether the listing is a favorite afterwards.
func (u *User) ToggleFavorite(listingID string, now time.Time) bool {
	listingID = strings.TrimSpace(listingID)
	for i, fav := range u.Favorites {
		if fav == listingID {
			u.Favorites = append(u.Favorites[:i], u.Favorites[i+1:]...)
			u.touch(now)
			return false
		}
	}
	u.Favorites = append(u.Favorites, listingID)
	u.touch(now)
	return true
}

func (u *User) IsFavorite(listingID string) bool {
	for _, fav := range u.Favorites {
		if fav == listingID {
			return true
		}
	}
	return false
}

func (u *User) MarkVerified(now time.Time) {
	u.Verified = true
	u.touch(now)
}

func (u *User) touch(now time.Time) {
	u.UpdatedAt = nowOrCurrent(now)
}

func nowOrCurrent(now time.Time) time.Time {
	if now.IsZero() {
		now = time.Now()
	}
	return now.UTC()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
