package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"devscreen/internal/cache"
	"devscreen/internal/metrics"
	"devscreen/internal/model"
	"devscreen/internal/repository"
)

var ErrScreeningNotFound = errors.New("screening not found")

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// ScreeningService runs screenings end to end: hashing, idempotent replay,
// evaluation, persistence and dashboard notification
type ScreeningService struct {
	evaluator   *EvaluatorService
	screenings  repository.ScreeningRepo
	events      repository.EventRepo
	idempotency cache.IdempotencyCache
	metrics     *metrics.Metrics
	logger      *zap.Logger
	broadcaster Broadcaster

	newID func() string
	now   func() time.Time
}

// NewScreeningService creates a new screening service
func NewScreeningService(
	evaluator *EvaluatorService,
	screenings repository.ScreeningRepo,
	events repository.EventRepo,
	idempotency cache.IdempotencyCache,
	m *metrics.Metrics,
	logger *zap.Logger,
) *ScreeningService {
	return &ScreeningService{
		evaluator:   evaluator,
		screenings:  screenings,
		events:      events,
		idempotency: idempotency,
		metrics:     m,
		logger:      logger.Named("screening"),
		newID:       func() string { return uuid.New().String() },
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SetBroadcaster injects the dashboard broadcaster
func (s *ScreeningService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Submit screens one submission. The bool result is true when the screening
// was answered from the idempotency cache instead of being evaluated again.
func (s *ScreeningService) Submit(ctx context.Context, clinicianID string, sub *model.ScreeningSubmission) (*model.Screening, bool, error) {
	inputHash := ComputeInputHash(sub.AgeMonths, sub.Domain, sub.Observations)
	imageDigest := ImageDigest(sub.Image)
	key := idempotencyKey(clinicianID, sub.IdempotencyKey, inputHash, imageDigest)

	if existing := s.replay(ctx, key, clinicianID); existing != nil {
		s.metrics.ReplaysTotal.Inc()
		return existing, true, nil
	}

	eval := s.evaluator.Evaluate(ctx, &EvaluationInput{
		AgeMonths:     sub.AgeMonths,
		Domain:        sub.Domain,
		Observations:  sub.Observations,
		Image:         sub.Image,
		ImageMimeType: sub.ImageMimeType,
		InputHash:     inputHash,
	})

	screening := &model.Screening{
		ID:             s.newID(),
		ClinicianID:    clinicianID,
		ChildAgeMonths: sub.AgeMonths,
		Domain:         sub.Domain,
		InputHash:      inputHash,
		ImageDigest:    imageDigest,
		Source:         eval.Source,
		Model:          eval.Model,
		FallbackReason: eval.FallbackReason,
		Report:         eval.Report,
		CreatedAt:      s.now(),
	}
	event := &model.ScreeningEvent{
		ScreeningID:    screening.ID,
		ClinicianID:    clinicianID,
		Source:         eval.Source,
		RiskLevel:      eval.Report.RiskLevel,
		FallbackReason: eval.FallbackReason,
		LatencyMS:      eval.Latency.Milliseconds(),
		CreatedAt:      screening.CreatedAt,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.screenings.Save(gctx, screening); err != nil {
			return fmt.Errorf("save screening: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		// usage events are best effort
		if err := s.events.Record(gctx, event); err != nil {
			s.logger.Warn("failed to record screening event", zap.String("screeningId", screening.ID), zap.Error(err))
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, false, err
	}

	if err := s.idempotency.Remember(ctx, key, screening.ID); err != nil {
		s.logger.Warn("failed to remember idempotency key", zap.String("screeningId", screening.ID), zap.Error(err))
	}

	s.metrics.ScreeningsTotal.WithLabelValues(string(eval.Source), string(eval.Report.RiskLevel)).Inc()
	s.logger.Info("screening completed",
		zap.String("screeningId", screening.ID),
		zap.String("clinicianId", clinicianID),
		zap.String("source", string(eval.Source)),
		zap.String("riskLevel", string(eval.Report.RiskLevel)),
		zap.String("fallbackReason", eval.FallbackReason),
		zap.Duration("latency", eval.Latency))

	if s.broadcaster != nil {
		s.broadcaster.Notify(clinicianID, MsgScreeningCompleted, screening)
	}

	return screening, false, nil
}

// replay returns the screening already produced for key, if any. Cache and
// store errors are logged and treated as a miss.
func (s *ScreeningService) replay(ctx context.Context, key, clinicianID string) *model.Screening {
	id, err := s.idempotency.Lookup(ctx, key)
	if err != nil {
		s.logger.Warn("idempotency lookup failed", zap.Error(err))
		return nil
	}
	if id == "" {
		return nil
	}

	existing, err := s.screenings.GetByID(ctx, id)
	if err != nil {
		s.logger.Warn("failed to load replayed screening", zap.String("screeningId", id), zap.Error(err))
		return nil
	}
	if existing == nil || existing.ClinicianID != clinicianID {
		return nil
	}
	return existing
}

// Get returns one of the clinician's screenings
func (s *ScreeningService) Get(ctx context.Context, clinicianID, id string) (*model.Screening, error) {
	screening, err := s.screenings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if screening == nil || screening.ClinicianID != clinicianID {
		return nil, ErrScreeningNotFound
	}
	return screening, nil
}

// List returns the clinician's most recent screenings, newest first
func (s *ScreeningService) List(ctx context.Context, clinicianID string, limit int) ([]*model.Screening, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return s.screenings.ListByClinician(ctx, clinicianID, int64(limit))
}

// Baseline returns the deterministic report without calling the gateway or
// persisting anything
func (s *ScreeningService) Baseline(sub *model.ScreeningSubmission) model.ScreeningReport {
	return s.evaluator.Baseline(&EvaluationInput{
		AgeMonths:    sub.AgeMonths,
		Domain:       sub.Domain,
		Observations: sub.Observations,
		Image:        sub.Image,
		InputHash:    ComputeInputHash(sub.AgeMonths, sub.Domain, sub.Observations),
	})
}
