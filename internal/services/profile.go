package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/litartclub/gallery/internal/imaging"
	"github.com/litartclub/gallery/internal/models"
	"github.com/litartclub/gallery/internal/session"
	"github.com/litartclub/gallery/internal/storage"
	"github.com/litartclub/gallery/internal/supabase"
)

// avatarWidth is the ceiling applied to avatars before upload.
const avatarWidth = 512

// ProfileService reads and writes the current user's profile row.
type ProfileService struct {
	backend *supabase.Client
	log     *logrus.Entry
}

func NewProfileService(backend *supabase.Client, log *logrus.Logger) *ProfileService {
	return &ProfileService{backend: backend, log: log.WithField("component", "profile")}
}

// Get fetches the profile matching the identity. A missing row is a
// fetch error, not "no profile yet": registration upserts the row
// before the user can reach the editor.
func (s *ProfileService) Get(ctx context.Context, ident session.Identity) (*models.Profile, error) {
	var profile models.Profile
	err := s.backend.From("profiles").
		Select("*").
		Eq("id", ident.UserID).
		Single().
		Auth(ident.AccessToken).
		Fetch(ctx, &profile)
	if err != nil {
		s.log.WithError(err).Warn("profile fetch failed")
		return nil, ErrProfileFetch
	}
	return &profile, nil
}

// Update commits buffered name/bio edits (update keyed by identity id).
func (s *ProfileService) Update(ctx context.Context, ident session.Identity, name, bio string) error {
	_, err := s.backend.From("profiles").
		Eq("id", ident.UserID).
		Auth(ident.AccessToken).
		Update(ctx, map[string]string{"name": name, "bio": bio})
	if err != nil {
		s.log.WithError(err).Warn("profile update failed")
		if errors.Is(err, supabase.ErrPermissionDenied) {
			return ErrSessionExpired
		}
		return ErrProfileWrite
	}
	return nil
}

// ReplaceAvatar validates the file, uploads it under a randomized name
// scoped by the identity, then points the profile at the new URL. The
// two writes are not atomic: if the profile update fails after the
// upload succeeded, the stored object is orphaned.
func (s *ProfileService) ReplaceAvatar(ctx context.Context, ident session.Identity, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrImageRequired
	}
	if len(data) > storage.MaxObjectSize {
		return "", ErrImageTooLarge
	}
	mimeType := imaging.Sniff(data)
	if !imaging.Allowed(mimeType) {
		return "", ErrImageBadType
	}

	resized, err := imaging.Resize(data, mimeType, avatarWidth)
	if err != nil {
		s.log.WithError(err).Warn("avatar resize failed, uploading original")
		resized = data
	}

	name := fmt.Sprintf("%s-%s%s", ident.UserID, uuid.NewString(), imaging.Extension(mimeType))
	if err := s.backend.Upload(ctx, storage.AvatarBucket, name, resized, mimeType, ident.AccessToken); err != nil {
		s.log.WithError(err).Warn("avatar upload failed")
		return "", fmt.Errorf("upload avatar: %w", err)
	}

	publicURL := s.backend.PublicURL(storage.AvatarBucket, name)
	_, err = s.backend.From("profiles").
		Eq("id", ident.UserID).
		Auth(ident.AccessToken).
		Update(ctx, map[string]string{"avatar_url": publicURL})
	if err != nil {
		s.log.WithError(err).Warn("avatar url update failed after upload")
		if errors.Is(err, supabase.ErrPermissionDenied) {
			return "", ErrSessionExpired
		}
		return "", ErrProfileWrite
	}
	return publicURL, nil
}
