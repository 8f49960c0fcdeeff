package users

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const maxNameLength = 100

// Profile is the backend's record of an account as returned by the user and
// auth endpoints. Email is set at registration and read-only afterwards.
type Profile struct {
	ID          string `json:"id,omitempty"`           // Backend identifier
	ProviderUID string `json:"firebase_uid,omitempty"` // Identity provider subject, stable across sessions
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	Bio         string `json:"bio,omitempty"`
	AvatarURL   string `json:"profile_picture_url,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"` // ISO-8601, not always zoned
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// CreatedTime parses the creation timestamp. The backend emits naive ISO-8601
// (no timezone) so RFC3339 alone is not enough.
func (p *Profile) CreatedTime() (time.Time, error) {
	return ParseTimestamp(p.CreatedAt)
}

// ParseTimestamp parses backend timestamps, accepting both RFC3339 and the
// zoneless ISO-8601 the backend produces. Zoneless values are taken as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// ProfileUpdate carries a partial profile mutation. Nil fields are left
// untouched by the backend.
type ProfileUpdate struct {
	Name      *string `json:"name,omitempty"`
	Bio       *string `json:"bio,omitempty"`
	AvatarURL *string `json:"profile_picture_url,omitempty"`
}

func (u ProfileUpdate) Empty() bool {
	return u.Name == nil && u.Bio == nil && u.AvatarURL == nil
}

// Validate rejects updates the backend would refuse, so the failure surfaces
// before a network round trip.
func (u ProfileUpdate) Validate() error {
	if u.Empty() {
		return fmt.Errorf("no fields to update")
	}
	if u.Name != nil {
		if err := ValidateName(*u.Name); err != nil {
			return err
		}
	}
	return nil
}

func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return fmt.Errorf("name cannot exceed %d characters", maxNameLength)
	}
	return nil
}

func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}
