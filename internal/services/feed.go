package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/litartclub/gallery/internal/models"
	"github.com/litartclub/gallery/internal/supabase"
)

// Feed broadcasts newly inserted artworks to gallery viewers over the
// backend's realtime channel.
type Feed struct {
	rt  *supabase.Realtime
	log *logrus.Entry

	mu   sync.Mutex
	subs map[chan models.Artwork]struct{}
}

func NewFeed(rt *supabase.Realtime, log *logrus.Logger) *Feed {
	return &Feed{
		rt:   rt,
		log:  log.WithField("component", "feed"),
		subs: make(map[chan models.Artwork]struct{}),
	}
}

// Start connects and subscribes to artwork inserts. Failure is returned
// so the caller can degrade to a static gallery.
func (f *Feed) Start(ctx context.Context) error {
	if err := f.rt.Connect(ctx); err != nil {
		return err
	}
	return f.rt.Subscribe("artworks", "INSERT", f.onInsert)
}

func (f *Feed) onInsert(event *supabase.ChangeEvent) {
	record := event.Record()
	if record == nil {
		return
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return
	}
	var art models.Artwork
	if err := json.Unmarshal(raw, &art); err != nil {
		f.log.WithError(err).Debug("dropping malformed change record")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subs {
		select {
		case ch <- art:
		default: // slow viewer, drop rather than block the feed
		}
	}
}

// Subscribe registers a viewer and returns its channel with a
// deregistration handle.
func (f *Feed) Subscribe() (<-chan models.Artwork, func()) {
	ch := make(chan models.Artwork, 8)

	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()

	return ch, func() {
		f.mu.Lock()
		delete(f.subs, ch)
		f.mu.Unlock()
	}
}

// Close tears the realtime connection down.
func (f *Feed) Close() error {
	return f.rt.Close()
}
