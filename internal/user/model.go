package user

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	RoleUser     = "user"
	RoleEmployer = "employer"
	RoleAdmin    = "admin"
)

const MinPasswordLength = 8

type User struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	PasswordHash       string    `json:"-"`
	Role               string    `json:"role"`
	CreatedAt          time.Time `json:"createdAt"`
	CreatedAtHumanised string    `json:"createdAtHumanised,omitempty"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

func ValidRole(role string) bool {
	return role == RoleUser || role == RoleEmployer || role == RoleAdmin
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (u User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}
