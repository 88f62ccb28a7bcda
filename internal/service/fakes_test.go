package service

import (
	"context"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"devscreen/internal/config"
	"devscreen/internal/metrics"
	"devscreen/internal/model"
)

type fakeGateway struct {
	mu     sync.Mutex
	calls  int
	screen func(ctx context.Context, call int) (*model.ScreeningReport, error)
}

func (g *fakeGateway) Screen(ctx context.Context, _ *GatewayRequest) (*model.ScreeningReport, error) {
	g.mu.Lock()
	g.calls++
	call := g.calls
	g.mu.Unlock()
	return g.screen(ctx, call)
}

func (g *fakeGateway) Model() string { return "fake-model" }

func (g *fakeGateway) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type fakeScreeningRepo struct {
	mu      sync.Mutex
	items   map[string]*model.Screening
	saves   int
	saveErr error
	getErr  error
}

func newFakeScreeningRepo() *fakeScreeningRepo {
	return &fakeScreeningRepo{items: make(map[string]*model.Screening)}
}

func (r *fakeScreeningRepo) Save(_ context.Context, s *model.Screening) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saves++
	r.items[s.ID] = s
	return nil
}

func (r *fakeScreeningRepo) GetByID(_ context.Context, id string) (*model.Screening, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	return r.items[id], nil
}

func (r *fakeScreeningRepo) ListByClinician(_ context.Context, clinicianID string, limit int64) ([]*model.Screening, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Screening, 0)
	for _, s := range r.items {
		if s.ClinicianID == clinicianID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeEventRepo struct {
	mu     sync.Mutex
	events []*model.ScreeningEvent
	err    error
}

func (r *fakeEventRepo) Record(_ context.Context, e *model.ScreeningEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, e)
	return nil
}

type fakeIdempotencyCache struct {
	mu        sync.Mutex
	keys      map[string]string
	lookupErr error
}

func newFakeIdempotencyCache() *fakeIdempotencyCache {
	return &fakeIdempotencyCache{keys: make(map[string]string)}
}

func (c *fakeIdempotencyCache) Lookup(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lookupErr != nil {
		return "", c.lookupErr
	}
	return c.keys[key], nil
}

func (c *fakeIdempotencyCache) Remember(_ context.Context, key, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.keys[key]; !ok {
		c.keys[key] = id
	}
	return nil
}

type notification struct {
	clinicianID string
	msgType     string
	payload     interface{}
}

type fakeBroadcaster struct {
	mu   sync.Mutex
	sent []notification
}

func (b *fakeBroadcaster) Notify(clinicianID, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, notification{clinicianID, msgType, payload})
}

func testAIConfig() *config.AIConfig {
	return &config.AIConfig{
		APIKey:    "test-key",
		Model:     "fake-model",
		TimeoutMS: 1000,
		MaxRPS:    1000,
		Burst:     1000,
	}
}

func newTestMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}

func validAIReport() *model.ScreeningReport {
	return &model.ScreeningReport{
		RiskLevel:       model.RiskHigh,
		Confidence:      0.777,
		Summary:         "Model summary.",
		KeyFindings:     []string{"Limited babbling"},
		Recommendations: []string{"Audiology referral"},
		Evidence: []model.EvidenceItem{
			{Type: model.EvidenceText, Content: "no babbling", Influence: 0.7},
		},
		AnalysisMeta: model.AnalysisMeta{AgeMonths: 999, Domain: "bogus"},
	}
}

var nopLogger = zap.NewNop()
