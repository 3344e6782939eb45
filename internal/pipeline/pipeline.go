// Package pipeline orchestrates media conversion: classify the input,
// dispatch to the image or video encoder, verify the produced asset, and
// return an accepted result or a terminal failure.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/avelagg/stickerforge/internal/imageenc"
	"github.com/avelagg/stickerforge/internal/media"
	"github.com/avelagg/stickerforge/internal/profile"
	"github.com/avelagg/stickerforge/internal/verify"
	"github.com/avelagg/stickerforge/internal/videoenc"
)

// Input is one conversion request. Authorization is decided by the
// transport and passed in; the pipeline never consults ambient state.
type Input struct {
	// Data is the raw input bytes.
	Data []byte
	// DeclaredType is the transport's untrusted content-type hint. It is
	// logged for diagnostics and never used for classification.
	DeclaredType string
	// Authorized is the transport's access-control decision.
	Authorized bool
}

// Pipeline runs conversion jobs. Jobs are independent; the only shared
// state is the immutable profiles and policy, so any number may run in
// parallel, bounded by the concurrency semaphore when one is configured.
type Pipeline struct {
	images   *imageenc.Encoder
	videos   *videoenc.Transcoder
	verifier *verify.Verifier
	policy   profile.SearchPolicy
	animated profile.AnimatedPolicy
	sem      chan struct{}
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMaxConcurrent bounds the number of jobs running codec work at once.
// Zero or negative leaves concurrency unbounded.
func WithMaxConcurrent(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.sem = make(chan struct{}, n)
		}
	}
}

// WithAnimatedPolicy sets the multi-frame image policy.
func WithAnimatedPolicy(ap profile.AnimatedPolicy) Option {
	return func(p *Pipeline) {
		if ap.IsValid() {
			p.animated = ap
		}
	}
}

// New creates a Pipeline.
func New(images *imageenc.Encoder, videos *videoenc.Transcoder, verifier *verify.Verifier, policy profile.SearchPolicy, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		images:   images,
		videos:   videos,
		verifier: verifier,
		policy:   policy,
		animated: profile.AnimatedFlatten,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process converts one input asset end to end. On success the returned
// result satisfies every bound of the relevant target profile; ownership
// of the result transfers to the caller and no job state is retained.
func (p *Pipeline) Process(ctx context.Context, in Input) (*media.Result, error) {
	if !in.Authorized {
		return nil, media.ErrNotAllowed
	}

	if p.sem != nil {
		select {
		case p.sem <- struct{}{}:
			defer func() { <-p.sem }()
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	j := newJob()
	log := p.logger.With(slog.String("job_id", j.id))
	log.Info("conversion started",
		slog.Int("input_bytes", len(in.Data)),
		slog.String("declared_type", in.DeclaredType),
	)

	kind, err := media.DetectKind(in.Data)
	if err != nil {
		return nil, p.fail(j, log, err)
	}
	if err := j.transition(StateClassified); err != nil {
		return nil, p.fail(j, log, err)
	}
	log.Info("input classified", slog.String("kind", string(kind)))

	asset := media.Asset{Data: in.Data, Kind: kind}
	res, err := p.encodeVerified(ctx, j, log, asset)
	if err != nil {
		return nil, p.fail(j, log, err)
	}

	if err := j.transition(StateAccepted); err != nil {
		return nil, p.fail(j, log, err)
	}
	log.Info("conversion accepted",
		slog.String("mime", res.MIME),
		slog.Int("output_bytes", res.Size()),
		slog.Int("width", res.Meta.Width),
		slog.Int("height", res.Meta.Height),
	)
	return res, nil
}

// encodeVerified runs the Encoding/Verifying cycle. A rejected candidate
// re-enters encoding with a reduced long side until VerifyRetries runs
// out; the retry bound keeps the cycle finite.
func (p *Pipeline) encodeVerified(ctx context.Context, j *job, log *slog.Logger, asset media.Asset) (*media.Result, error) {
	videoRoute := asset.Kind == media.KindVideo ||
		(asset.Kind == media.KindAnimatedImage && p.animated == profile.AnimatedKeepMotion)

	prof := profile.Image()
	if videoRoute {
		prof = profile.Video()
	}
	target := prof

	for try := 0; ; try++ {
		if err := j.transition(StateEncoding); err != nil {
			return nil, err
		}

		var res *media.Result
		var err error
		if videoRoute {
			res, err = p.videos.Transcode(ctx, asset, target)
		} else {
			res, err = p.images.Encode(asset, target)
		}
		if err != nil {
			return nil, err
		}

		if err := j.transition(StateVerifying); err != nil {
			return nil, err
		}

		var meta media.Metadata
		if videoRoute {
			meta, err = p.verifier.Video(ctx, res, prof)
		} else {
			meta, err = p.verifier.Image(res, prof)
		}
		if err == nil {
			res.Meta = meta
			return res, nil
		}

		var viol *verify.Violation
		if !errors.As(err, &viol) {
			return nil, err
		}
		if try >= p.policy.VerifyRetries {
			return nil, terminalViolation(viol)
		}

		log.Warn("candidate rejected, continuing escalation",
			slog.String("constraint", viol.Constraint),
			slog.String("detail", viol.Detail),
			slog.Int("retry", try+1),
		)
		target.MaxLongSide = int(float64(target.MaxLongSide) * p.policy.DownscaleFactor)
		if target.MaxLongSide < 1 {
			return nil, terminalViolation(viol)
		}
	}
}

// fail moves the job to its terminal state and passes the error through.
func (p *Pipeline) fail(j *job, log *slog.Logger, err error) error {
	_ = j.transition(StateFailed)
	log.Error("conversion failed", slog.String("error", err.Error()))
	return err
}

// terminalViolation maps an exhausted verification violation to the most
// specific error kind: an over-budget candidate is a size failure, while
// dimension, duration, or fps drift means the tool ignored its parameters.
func terminalViolation(v *verify.Violation) error {
	if v.Constraint == "bytes" {
		return fmt.Errorf("%w: %v", media.ErrSizeBudgetExceeded, v)
	}
	return fmt.Errorf("%w: %v", media.ErrTranscodeFailed, v)
}
