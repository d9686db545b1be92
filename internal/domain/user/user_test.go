package user

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userNow = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func newTestUser(t *testing.T) *User {
	t.Helper()
	u, err := NewUser(CreateParams{
		ID:           "usr-1",
		Email:        "Ana.Silva@Example.com",
		FirstName:    "Ana",
		LastName:     "Silva",
		PasswordHash: "$2a$10$hash",
		CreatedAt:    userNow,
	})
	require.NoError(t, err)
	return u
}

func TestNewUser(t *testing.T) {
	u := newTestUser(t)

	assert.Equal(t, "ana.silva@example.com", u.Email)
	assert.Equal(t, RoleGuest, u.Role)
	assert.Nil(t, u.Host)
	assert.Equal(t, "Ana Silva", u.FullName())
	assert.False(t, u.CanHost())
}

func TestNewUserHostGetsProfile(t *testing.T) {
	u, err := NewUser(CreateParams{
		ID:           "usr-2",
		Email:        "host@example.com",
		FirstName:    "Rui",
		LastName:     "Costa",
		PasswordHash: "$2a$10$hash",
		Role:         RoleHost,
		CreatedAt:    userNow,
	})
	require.NoError(t, err)
	require.NotNil(t, u.Host)
	assert.Equal(t, userNow, u.Host.HostSince)
	assert.True(t, u.CanHost())
}

func TestNewUserValidation(t *testing.T) {
	base := CreateParams{
		ID:           "usr-1",
		Email:        "ana@example.com",
		FirstName:    "Ana",
		LastName:     "Silva",
		PasswordHash: "$2a$10$hash",
	}

	noID := base
	noID.ID = "  "
	_, err := NewUser(noID)
	assert.ErrorIs(t, err, ErrIDRequired)

	noEmail := base
	noEmail.Email = ""
	_, err = NewUser(noEmail)
	assert.ErrorIs(t, err, ErrEmailRequired)

	badEmail := base
	badEmail.Email = "not-an-email"
	_, err = NewUser(badEmail)
	assert.ErrorIs(t, err, ErrEmailInvalid)

	noHash := base
	noHash.PasswordHash = ""
	_, err = NewUser(noHash)
	assert.ErrorIs(t, err, ErrPasswordHashMissing)

	noName := base
	noName.LastName = " "
	_, err = NewUser(noName)
	assert.ErrorIs(t, err, ErrNameRequired)

	badRole := base
	badRole.Role = "superuser"
	_, err = NewUser(badRole)
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestBecomeHost(t *testing.T) {
	u := newTestUser(t)

	require.NoError(t, u.BecomeHost(userNow))
	assert.Equal(t, RoleHost, u.Role)
	require.NotNil(t, u.Host)
	assert.Equal(t, userNow, u.Host.HostSince)

	assert.ErrorIs(t, u.BecomeHost(userNow), ErrAlreadyHost)
}

func TestUpdateProfile(t *testing.T) {
	u := newTestUser(t)

	phone := " +351 912 345 678 "
	bio := "Traveller and amateur cook."
	require.NoError(t, u.UpdateProfile(ProfileUpdate{Phone: &phone, Bio: &bio}, userNow))
	assert.Equal(t, "+351 912 345 678", u.Profile.Phone)
	assert.Equal(t, bio, u.Profile.Bio)
	// Untouched fields stay as they were.
	assert.Equal(t, "Ana", u.Profile.FirstName)

	empty := "  "
	assert.ErrorIs(t, u.UpdateProfile(ProfileUpdate{FirstName: &empty}, userNow), ErrNameRequired)

	long := strings.Repeat("x", 501)
	assert.ErrorIs(t, u.UpdateProfile(ProfileUpdate{Bio: &long}, userNow), ErrBioTooLong)
}

func TestToggleFavorite(t *testing.T) {
	u := newTestUser(t)

	assert.True(t, u.ToggleFavorite("lst-1", userNow))
	assert.True(t, u.IsFavorite("lst-1"))

	assert.True(t, u.ToggleFavorite("lst-2", userNow))
	assert.Len(t, u.Favorites, 2)

	// Toggling again removes it.
	assert.False(t, u.ToggleFavorite("lst-1", userNow))
	assert.False(t, u.IsFavorite("lst-1"))
	assert.Equal(t, []string{"lst-2"}, u.Favorites)
}

func TestSetPasswordHash(t *testing.T) {
	u := newTestUser(t)

	assert.ErrorIs(t, u.SetPasswordHash("  ", userNow), ErrPasswordHashMissing)
	require.NoError(t, u.SetPasswordHash("$2a$10$other", userNow))
	assert.Equal(t, "$2a$10$other", u.PasswordHash)
}

func TestMarkVerified(t *testing.T) {
	u := newTestUser(t)
	u.MarkVerified(userNow)
	assert.True(t, u.Verified)
	assert.Equal(t, userNow, u.UpdatedAt)
}
