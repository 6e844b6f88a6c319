// Package storage holds the one-time startup routine that makes sure
// the object-storage buckets and their access policies exist.
package storage

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/litartclub/gallery/internal/supabase"
)

const (
	// AvatarBucket holds profile pictures.
	AvatarBucket = "avatars"
	// ArtworkBucket holds uploaded artwork images.
	ArtworkBucket = "artwork-images"

	// MaxObjectSize is the per-object ceiling declared on both buckets.
	MaxObjectSize = 5 * 1024 * 1024
)

type policy struct {
	Name       string
	Definition string
	Operation  string
}

// The avatar bucket's row-level policies: writes restricted to the
// owning identity, reads unrestricted.
var avatarPolicies = []policy{
	{Name: "avatar_insert_policy", Definition: "auth.uid() = owner", Operation: "INSERT"},
	{Name: "avatar_update_policy", Definition: "auth.uid() = owner", Operation: "UPDATE"},
	{Name: "avatar_delete_policy", Definition: "auth.uid() = owner", Operation: "DELETE"},
	{Name: "avatar_read_policy", Definition: "bucket_id = 'avatars'", Operation: "SELECT"},
}

// EnsureReady makes sure the buckets and policies exist. It is
// idempotent and best-effort: every step logs and swallows its own
// failure, and the application starts regardless. It runs exactly once
// per process start, with no retry.
func EnsureReady(ctx context.Context, client *supabase.Client, log *logrus.Logger) {
	l := log.WithField("component", "storage-bootstrap")

	buckets, err := client.ListBuckets(ctx)
	if err != nil {
		l.WithError(err).Error("listing buckets failed")
		return
	}

	existing := make(map[string]bool, len(buckets))
	for _, b := range buckets {
		existing[b.Name] = true
	}

	for _, name := range []string{AvatarBucket, ArtworkBucket} {
		if existing[name] {
			l.WithField("bucket", name).Debug("bucket already exists")
			continue
		}
		if err := client.CreateBucket(ctx, name, true, MaxObjectSize); err != nil {
			l.WithError(err).WithField("bucket", name).Error("creating bucket failed")
			continue
		}
		l.WithField("bucket", name).Info("bucket created")
	}

	declarePolicies(ctx, client, l)
	l.Info("storage setup completed")
}

func declarePolicies(ctx context.Context, client *supabase.Client, l *logrus.Entry) {
	for _, p := range avatarPolicies {
		var check any
		if p.Operation == "INSERT" || p.Operation == "UPDATE" {
			check = p.Definition
		}
		resp, err := client.RPC(ctx, "create_storage_policy", map[string]any{
			"policy_name":      p.Name,
			"table_name":       "objects",
			"definition":       p.Definition,
			"check_expression": check,
			"operation":        p.Operation,
		})
		if err != nil {
			l.WithError(err).WithField("policy", p.Name).Error("declaring policy failed")
			continue
		}
		if err := resp.Err(); err != nil {
			if strings.Contains(err.Error(), "already exists") {
				l.WithField("policy", p.Name).Debug("policy already exists")
				continue
			}
			l.WithError(err).WithField("policy", p.Name).Error("declaring policy failed")
			continue
		}
		l.WithField("policy", p.Name).Info("policy created")
	}
}
