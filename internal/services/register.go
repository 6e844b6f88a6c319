package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/litartclub/gallery/internal/models"
	"github.com/litartclub/gallery/internal/session"
	"github.com/litartclub/gallery/internal/supabase"
)

// Registration failure conditions surfaced to the form.
var (
	ErrEmailNotAllowed = errors.New("this email address is not authorized for registration, please contact the administrator")
	ErrProfileCreate   = errors.New("unable to create profile, please try logging in")
)

// RegistrationService runs the sign-up flow: create the identity, then
// immediately upsert the profile row keyed by the identity id.
type RegistrationService struct {
	store   *session.Store
	backend *supabase.Client
	log     *logrus.Entry
}

func NewRegistrationService(store *session.Store, backend *supabase.Client, log *logrus.Logger) *RegistrationService {
	return &RegistrationService{store: store, backend: backend, log: log.WithField("component", "register")}
}

// Register signs the user up and creates the profile. The returned
// session carries no access token while email confirmation is pending;
// no Profile or Artwork row is queryable by the user until the upsert
// succeeds and the email is confirmed.
func (s *RegistrationService) Register(ctx context.Context, name, email, password, bio string) (*supabase.Session, error) {
	sess, err := s.store.SignUp(ctx, email, password)
	if err != nil {
		if errors.Is(err, supabase.ErrEmailNotAuthorized) {
			return nil, ErrEmailNotAllowed
		}
		return nil, err
	}
	if sess.User == nil {
		return nil, fmt.Errorf("sign up returned no user")
	}

	profile := models.Profile{
		ID:    sess.User.ID,
		Name:  name,
		Email: email,
		Bio:   bio,
	}
	_, err = s.backend.From("profiles").
		Auth(sess.AccessToken).
		Upsert(ctx, profile)
	if err != nil {
		s.log.WithError(err).Warn("profile upsert failed after sign-up")
		if errors.Is(err, supabase.ErrPermissionDenied) {
			return nil, ErrProfileCreate
		}
		return nil, fmt.Errorf("create profile: %w", err)
	}
	return sess, nil
}
