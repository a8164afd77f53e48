package service

import (
	"context"
	"time"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/logger"
	"github.com/fjod/go_shop/internal/repository"
	"github.com/sirupsen/logrus"
)

type IdentityProvider interface {
	// SignUp returns the subject id of the new account.
	SignUp(ctx context.Context, email, password string) (string, error)
	ConfirmSignUp(ctx context.Context, email, code string) error
	Login(ctx context.Context, email, password string) (*domain.AuthTokens, error)
}

type RegistrationService struct {
	idp   IdentityProvider
	users repository.UserRepository
	log   logrus.FieldLogger
	now   func() time.Time
}

func NewRegistrationService(idp IdentityProvider, users repository.UserRepository, log logrus.FieldLogger) *RegistrationService {
	return &RegistrationService{idp: idp, users: users, log: log, now: time.Now}
}

// Register creates the identity account and stores the profile the email
// worker reads. A profile write failure is logged, the account stays.
func (s *RegistrationService) Register(ctx context.Context, email, password, name string) (string, error) {
	if email == "" || password == "" {
		return "", invalidf("email and password are required")
	}
	log := logger.WithContext(ctx, s.log).WithField("email", email)
	log.Info("registering user")

	sub, err := s.idp.SignUp(ctx, email, password)
	if err != nil {
		log.WithError(err).Error("sign up failed")
		return "", &ProviderError{Op: "sign up", Err: err}
	}

	user := &domain.User{UserID: sub, Email: email, Name: name, CreatedAt: s.now().UTC()}
	if err := s.users.PutUser(ctx, user); err != nil {
		log.WithError(err).WithField("user_id", sub).Error("store user profile failed")
	}

	log.WithField("user_id", sub).Info("user registered")
	return sub, nil
}

func (s *RegistrationService) ConfirmRegistration(ctx context.Context, email, code string) error {
	if email == "" || code == "" {
		return invalidf("email and confirmationCode are required")
	}
	log := logger.WithContext(ctx, s.log).WithField("email", email)

	if err := s.idp.ConfirmSignUp(ctx, email, code); err != nil {
		log.WithError(err).Error("confirm sign up failed")
		return &ProviderError{Op: "confirm sign up", Err: err}
	}
	log.Info("user confirmed")
	return nil
}

func (s *RegistrationService) Login(ctx context.Context, email, password string) (*domain.AuthTokens, error) {
	if email == "" || password == "" {
		return nil, invalidf("email and password are required")
	}
	log := logger.WithContext(ctx, s.log).WithField("email", email)

	tokens, err := s.idp.Login(ctx, email, password)
	if err != nil {
		log.WithError(err).Warn("login failed")
		return nil, &ProviderError{Op: "login", Err: err}
	}
	log.Info("user logged in")
	return tokens, nil
}
