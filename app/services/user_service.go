package services

import (
	"log"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"yabe/app/models"
	"yabe/app/repositories"
)

// UserService handles registration and authentication of users
type UserService struct {
	userRepo repositories.UserRepository

	dummyOnce sync.Once
	dummyHash []byte
}

// NewUserService creates a new UserService
func NewUserService(userRepo repositories.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// Register creates and saves a user. A taken email is reported as
// repositories.ErrConstraintViolation.
func (s *UserService) Register(email, secret, fullname string) (*models.User, error) {
	user, err := models.NewUser(email, secret, fullname)
	if err != nil {
		return nil, err
	}
	return s.userRepo.Save(user)
}

// Connect returns the user identified by email when secret matches, and nil
// otherwise. An unknown email and a wrong secret are indistinguishable to
// the caller, including in how long the check takes.
func (s *UserService) Connect(email, secret string) (*models.User, error) {
	user, err := s.userRepo.Find("byEmail", email).First()
	if err != nil {
		return nil, errors.Wrap(err, "looking up user")
	}

	if user == nil {
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(secret))
		return nil, nil
	}
	if !user.CheckPassword(secret) {
		log.Printf("Failed login for user %d", user.ID)
		return nil, nil
	}
	return user, nil
}

// dummy is a hash compared against when the email is unknown.
func (s *UserService) dummy() []byte {
	s.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("not a real password"), models.PasswordCost)
		if err != nil {
			log.Printf("Failed to build dummy hash: %v", err)
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}
