// Package bootstrap provides dependency initialization for the
// StickerForge API.
package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/avelagg/stickerforge/internal/config"
	"github.com/avelagg/stickerforge/internal/ffmpeg"
	"github.com/avelagg/stickerforge/internal/imageenc"
	"github.com/avelagg/stickerforge/internal/pipeline"
	"github.com/avelagg/stickerforge/internal/profile"
	"github.com/avelagg/stickerforge/internal/storage"
	"github.com/avelagg/stickerforge/internal/verify"
	"github.com/avelagg/stickerforge/internal/videoenc"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	Pipeline *pipeline.Pipeline
	Storage  storage.Storage
}

// NewDependencies creates and initializes all dependencies for the
// application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	store, err := initStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	codec := ffmpeg.NewTool(cfg.FFmpegPath, cfg.FFprobePath,
		ffmpeg.WithTimeout(cfg.TranscodeTimeout()),
	)

	policy := profile.DefaultSearchPolicy()
	images := imageenc.New(policy, logger)
	videos := videoenc.New(codec, store, policy, logger)
	verifier := verify.New(codec, store)

	pipe := pipeline.New(images, videos, verifier, policy, logger,
		pipeline.WithMaxConcurrent(cfg.MaxConcurrentJobs),
		pipeline.WithAnimatedPolicy(cfg.Animated()),
	)

	return &Dependencies{
		Pipeline: pipe,
		Storage:  store,
	}, nil
}

// initStorage creates the appropriate storage backend based on
// configuration.
func initStorage(cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.S3Enabled() {
		s3Cfg := storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}
		s3Store, err := storage.NewS3Storage(cfg.TempDir, s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Info("S3 publishing configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		return s3Store, nil
	}

	localStore, err := storage.NewLocalStorage(cfg.TempDir)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}
	logger.Info("local storage configured",
		slog.String("temp_dir", cfg.TempDir),
	)
	return localStore, nil
}
