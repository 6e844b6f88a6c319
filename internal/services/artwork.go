package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/litartclub/gallery/internal/imaging"
	"github.com/litartclub/gallery/internal/models"
	"github.com/litartclub/gallery/internal/session"
	"github.com/litartclub/gallery/internal/storage"
	"github.com/litartclub/gallery/internal/supabase"
	"github.com/litartclub/gallery/validation"
)

// ArtworkService uploads artwork and serves the gallery.
type ArtworkService struct {
	backend *supabase.Client
	log     *logrus.Entry
}

func NewArtworkService(backend *supabase.Client, log *logrus.Logger) *ArtworkService {
	return &ArtworkService{backend: backend, log: log.WithField("component", "artwork")}
}

// Validate checks the upload form client-side; no backend call is made
// until it passes.
func (s *ArtworkService) Validate(art models.Artwork, image []byte) validation.Violations {
	v := validation.Violations{}
	validation.Required("title", art.Title, v)
	validation.NonNegativeFloat("price", art.Price, v)
	if !art.Category.Valid() {
		v["category"] = "invalid_category"
	}
	if len(image) == 0 {
		v["image"] = "required"
	}
	return v
}

// Upload stores the image, resolves its public URL, then inserts the
// artwork row referencing the identity. The storage write and the table
// insert have no transactional link: a failure between the two leaves
// an unreferenced stored image.
func (s *ArtworkService) Upload(ctx context.Context, ident session.Identity, art models.Artwork, image []byte) (*models.Artwork, error) {
	if ident.UserID == "" {
		return nil, ErrNotAuthenticated
	}
	if len(image) == 0 {
		return nil, ErrImageRequired
	}
	if len(image) > storage.MaxObjectSize {
		return nil, ErrImageTooLarge
	}
	mimeType := imaging.Sniff(image)
	if !imaging.Allowed(mimeType) {
		return nil, ErrImageBadType
	}

	name := uuid.NewString() + imaging.Extension(mimeType)
	if err := s.backend.Upload(ctx, storage.ArtworkBucket, name, image, mimeType, ident.AccessToken); err != nil {
		s.log.WithError(err).Warn("artwork image upload failed")
		return nil, fmt.Errorf("upload image: %w", err)
	}

	art.ImageURL = s.backend.PublicURL(storage.ArtworkBucket, name)
	art.UserID = ident.UserID

	// The row id and created_at are minted by the backend.
	row := map[string]any{
		"title":       art.Title,
		"artist":      art.Artist,
		"description": art.Description,
		"category":    art.Category,
		"price":       art.Price,
		"image_url":   art.ImageURL,
		"user_id":     art.UserID,
	}

	var inserted []models.Artwork
	resp, err := s.backend.From("artworks").
		Auth(ident.AccessToken).
		Insert(ctx, row)
	if err != nil {
		s.log.WithError(err).Warn("artwork insert failed after upload")
		return nil, fmt.Errorf("insert artwork: %w", err)
	}
	if err := resp.JSON(&inserted); err == nil && len(inserted) > 0 {
		return &inserted[0], nil
	}
	return &art, nil
}

// List fetches all artworks ordered by creation time descending. This
// is the gallery's single server-side query; filtering and sorting
// happen in memory.
func (s *ArtworkService) List(ctx context.Context) ([]models.Artwork, error) {
	var artworks []models.Artwork
	err := s.backend.From("artworks").
		Select("*").
		Order("created_at", false).
		Fetch(ctx, &artworks)
	if err != nil {
		return nil, fmt.Errorf("fetch artworks: %w", err)
	}
	return artworks, nil
}

// FilterByCategory narrows the fetched set. "all" (or empty) returns
// the original slice untouched, so filtering is idempotent and the
// underlying order survives.
func FilterByCategory(artworks []models.Artwork, category string) []models.Artwork {
	if category == "" || category == "all" {
		return artworks
	}
	filtered := make([]models.Artwork, 0, len(artworks))
	for _, a := range artworks {
		if string(a.Category) == category {
			filtered = append(filtered, a)
		}
	}
	return filtered
}

// SortBy orders a copy of the slice. Keys: "title-asc", "title-desc",
// "artist"; anything else ("newest") keeps the fetched order. String
// comparison is locale-aware and consistent: descending is the exact
// reverse of ascending. The collator is per-call because
// collate.Collator carries iterator scratch state and is not safe for
// concurrent use.
func SortBy(artworks []models.Artwork, key string) []models.Artwork {
	sorted := make([]models.Artwork, len(artworks))
	copy(sorted, artworks)
	coll := collate.New(language.English)

	switch key {
	case "title-asc":
		sort.SliceStable(sorted, func(i, j int) bool {
			return coll.CompareString(sorted[i].Title, sorted[j].Title) < 0
		})
	case "title-desc":
		// Exact reverse of the ascending order, duplicates included.
		sorted = SortBy(sorted, "title-asc")
		for i, j := 0, len(sorted)-1; i < j; i, j = i+1, j-1 {
			sorted[i], sorted[j] = sorted[j], sorted[i]
		}
	case "artist":
		sort.SliceStable(sorted, func(i, j int) bool {
			return coll.CompareString(sorted[i].Artist, sorted[j].Artist) < 0
		})
	}
	return sorted
}
