package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/litartclub/gallery/internal/config"
	"github.com/litartclub/gallery/internal/payments"
	"github.com/litartclub/gallery/internal/services"
	"github.com/litartclub/gallery/internal/session"
	"github.com/litartclub/gallery/internal/storage"
	"github.com/litartclub/gallery/internal/supabase"
)

func withLogging(log *logrus.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start).String(),
		}).Info("request")
	})
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if cfg.App.Dev {
		log.SetLevel(logrus.DebugLevel)
	}

	backend, err := supabase.New(supabase.Config{
		URL:    cfg.Backend.URL,
		APIKey: cfg.Backend.AnonKey,
	})
	if err != nil {
		log.WithError(err).Fatal("backend client")
	}

	// Bucket setup is best effort: a gallery pointed at a project that
	// already has its buckets should still come up when the service
	// role is missing.
	bootCtx, cancelBoot := context.WithTimeout(context.Background(), 30*time.Second)
	storage.EnsureReady(bootCtx, backend, log)
	cancelBoot()

	session.SetSecret(cfg.App.SessionSecret)

	redirectTo := cfg.App.PublicBaseURL + "/auth/callback"
	store := session.NewStore(backend, redirectTo, log)
	store.Init(context.Background())
	defer store.Close()

	tokenizer := payments.NewStripeTokenizer(cfg.Payment.SecretKey)
	orders := payments.NewOrderClient(cfg.Payment.OrderEndpoint)

	svcs := Services{
		Register: services.NewRegistrationService(store, backend, log),
		Profiles: services.NewProfileService(backend, log),
		Artworks: services.NewArtworkService(backend, log),
		Checkout: services.NewCheckoutService(tokenizer, orders, log),
	}

	feed := services.NewFeed(supabase.NewRealtime(cfg.Backend.URL, cfg.Backend.AnonKey), log)
	if err := feed.Start(context.Background()); err != nil {
		log.WithError(err).Warn("live feed disabled")
	} else {
		svcs.Feed = feed
		defer feed.Close()
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      withLogging(log, NewApp(store, svcs)),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("shutdown")
	}
	log.Info("server stopped")
}
