package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"devscreen/internal/classifier"
	"devscreen/internal/config"
	"devscreen/internal/metrics"
	"devscreen/internal/model"
)

// gatewayAttempts is the initial call plus one retry
const gatewayAttempts = 2

// EvaluationInput carries one screening through the evaluator
type EvaluationInput struct {
	AgeMonths     int
	Domain        string
	Observations  string
	Image         []byte
	ImageMimeType string
	InputHash     string
}

// Evaluation is the evaluator's answer plus how it was produced
type Evaluation struct {
	Report         model.ScreeningReport
	Source         model.ReportSource
	Model          string
	FallbackReason string
	Latency        time.Duration
}

// EvaluatorService produces screening reports, preferring the LLM gateway and
// falling back to the deterministic classifier
type EvaluatorService struct {
	config  *config.AIConfig
	gateway Gateway
	limiter *rate.Limiter
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewEvaluatorService creates a new evaluator service. gateway may be nil, in
// which case every evaluation uses the deterministic report.
func NewEvaluatorService(cfg *config.AIConfig, gateway Gateway, m *metrics.Metrics, logger *zap.Logger) *EvaluatorService {
	return &EvaluatorService{
		config:  cfg,
		gateway: gateway,
		limiter: rate.NewLimiter(rate.Limit(cfg.MaxRPS), cfg.Burst),
		metrics: m,
		logger:  logger.Named("evaluator"),
	}
}

// Baseline returns only the deterministic report
func (s *EvaluatorService) Baseline(in *EvaluationInput) model.ScreeningReport {
	return classifier.Classify(in.AgeMonths, in.Domain, in.Observations, len(in.Image) > 0, in.InputHash)
}

// Evaluate never fails: gateway problems select the deterministic report
func (s *EvaluatorService) Evaluate(ctx context.Context, in *EvaluationInput) *Evaluation {
	start := time.Now()
	baseline := s.Baseline(in)

	if !s.config.IsEnabled() || s.gateway == nil {
		return s.fallback(baseline, model.FallbackDisabled, start)
	}

	if !s.limiter.Allow() {
		return s.fallback(baseline, model.FallbackThrottled, start)
	}

	report, err := s.callGateway(ctx, &GatewayRequest{
		AgeMonths:     in.AgeMonths,
		Domain:        in.Domain,
		Observations:  in.Observations,
		Image:         in.Image,
		ImageMimeType: in.ImageMimeType,
	})
	if err != nil {
		s.logger.Warn("gateway failed, using deterministic report",
			zap.String("inputHash", in.InputHash), zap.Error(err))
		return s.fallback(baseline, model.FallbackGatewayError, start)
	}

	if err := model.Validator().Struct(report); err != nil {
		s.logger.Warn("gateway returned invalid report",
			zap.String("inputHash", in.InputHash), zap.Error(err))
		return s.fallback(baseline, model.FallbackInvalidOutput, start)
	}

	return &Evaluation{
		Report:  mergeReport(baseline, report),
		Source:  model.SourceAI,
		Model:   s.gateway.Model(),
		Latency: time.Since(start),
	}
}

func (s *EvaluatorService) callGateway(ctx context.Context, req *GatewayRequest) (*model.ScreeningReport, error) {
	var lastErr error
	for attempt := 0; attempt < gatewayAttempts; attempt++ {
		if attempt > 0 {
			if ctx.Err() != nil {
				break
			}
			s.logger.Debug("retrying gateway", zap.Int("attempt", attempt+1), zap.Error(lastErr))
		}

		callCtx, cancel := context.WithTimeout(ctx, s.config.Timeout())
		started := time.Now()
		report, err := s.gateway.Screen(callCtx, req)
		cancel()
		s.metrics.ObserveGateway(time.Since(started), err)

		if err == nil {
			return report, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func (s *EvaluatorService) fallback(baseline model.ScreeningReport, reason string, start time.Time) *Evaluation {
	s.metrics.FallbacksTotal.WithLabelValues(reason).Inc()
	return &Evaluation{
		Report:         baseline,
		Source:         model.SourceFallback,
		FallbackReason: reason,
		Latency:        time.Since(start),
	}
}

// mergeReport overlays gateway fields on the deterministic baseline.
// analysisMeta always describes the actual input, so it stays from the baseline.
func mergeReport(baseline model.ScreeningReport, ai *model.ScreeningReport) model.ScreeningReport {
	merged := baseline
	merged.RiskLevel = ai.RiskLevel
	merged.Confidence = classifier.RoundConfidence(ai.Confidence)

	merged.Summary = ai.Summary
	if merged.Summary == "" {
		merged.Summary = classifier.Summary(ai.RiskLevel)
	}
	if len(ai.KeyFindings) > 0 {
		merged.KeyFindings = ai.KeyFindings
	}
	if len(ai.Recommendations) > 0 {
		merged.Recommendations = ai.Recommendations
	}
	if len(ai.Evidence) > 0 {
		merged.Evidence = ai.Evidence
	}
	return merged
}
