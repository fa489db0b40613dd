package models

import (
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt cost used when hashing new passwords.
var PasswordCost = bcrypt.DefaultCost

// NewUser builds an unsaved user, hashing secret.
func NewUser(email, secret, fullname string) (*User, error) {
	u := &User{Email: email, Fullname: fullname}
	if err := u.SetPassword(secret); err != nil {
		return nil, err
	}
	return u, nil
}

func (u *User) Kind() Kind   { return KindUser }
func (u *User) GetID() int   { return u.ID }
func (u *User) SetID(id int) { u.ID = id }

// BeforeCreate is a no-op; users carry no generated fields besides the ID.
func (u *User) BeforeCreate(_ time.Time) {}

// Validate checks if the user meets all validation requirements
func (u *User) Validate() error {
	return validate.Struct(u)
}

// SetPassword replaces the stored hash with a hash of secret.
func (u *User) SetPassword(secret string) error {
	if secret == "" {
		return errors.New("password cannot be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), PasswordCost)
	if err != nil {
		return errors.Wrap(err, "hashing password")
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword reports whether secret matches the stored hash.
func (u *User) CheckPassword(secret string) bool {
	if u == nil || u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(secret)) == nil
}
