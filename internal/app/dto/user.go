package dto

import (
	"time"

	domainuser "stayloop/internal/domain/user"
)

type HostProfileDTO struct {
	HostSince    time.Time `json:"host_since"`
	ResponseRate int       `json:"response_rate"`
	ResponseTime string    `json:"response_time,omitempty"`
	Superhost    bool      `json:"superhost"`
}

type UserProfile struct {
	ID        string          `json:"id"`
	Email     string          `json:"email"`
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	Phone     string          `json:"phone,omitempty"`
	AvatarURL string          `json:"avatar_url,omitempty"`
	Bio       string          `json:"bio,omitempty"`
	Role      string          `json:"role"`
	Host      *HostProfileDTO `json:"host,omitempty"`
	Favorites []string        `json:"favorites,omitempty"`
	Verified  bool            `json:"verified"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type AuthResponse struct {
	User  UserProfile `json:"user"`
	Token string      `json:"token"`
}

func MapUserProfile(u *domainuser.User) UserProfile {
	if u == nil {
		return UserProfile{}
	}
	profile := UserProfile{
		ID:        string(u.ID),
		Email:     u.Email,
		FirstName: u.Profile.FirstName,
		LastName:  u.Profile.LastName,
		Phone:     u.Profile.Phone,
		AvatarURL: u.Profile.AvatarURL,
		Bio:       u.Profile.Bio,
		Role:      string(u.Role),
		Favorites: u.Favorites,
		Verified:  u.Verified,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if u.Host != nil {
		profile.Host = &HostProfileDTO{
			HostSince:    u.Host.HostSince,
			ResponseRate: u.Host.ResponseRate,
			ResponseTime: u.Host.ResponseTime,
			Superhost:    u.Host.Superhost,
		}
	}
	return profile
}

func NewAuthResponse(u *domainuser.User, token string) AuthResponse {
	return AuthResponse{
		User:  MapUserProfile(u),
		Token: token,
	}
}
