package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"devscreen/internal/model"
)

func sampleScreening(id string) *model.Screening {
	return &model.Screening{
		ID:             id,
		ClinicianID:    "clin_1",
		ChildAgeMonths: 24,
		Domain:         model.DomainCommunication,
		InputHash:      "00ab",
		Source:         model.SourceFallback,
		FallbackReason: model.FallbackDisabled,
		Report: model.ScreeningReport{
			RiskLevel:       model.RiskMonitor,
			Confidence:      0.9,
			KeyFindings:     []string{"Possible speech/hearing concern requiring evaluation"},
			Recommendations: []string{"Immediate pediatric evaluation recommended"},
		},
		CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func toDoc(t *testing.T, v interface{}) bson.D {
	t.Helper()
	raw, err := bson.Marshal(v)
	require.NoError(t, err)
	var doc bson.D
	require.NoError(t, bson.Unmarshal(raw, &doc))
	return doc
}

func TestScreeningRepo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ns := "devscreen.screenings"

	mt.Run("save upserts", func(mt *mtest.T) {
		repo := NewScreeningRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		err := repo.Save(context.Background(), sampleScreening("s1"))
		assert.NoError(t, err)
	})

	mt.Run("get by id found", func(mt *mtest.T) {
		repo := NewScreeningRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, toDoc(t, sampleScreening("s1"))))

		got, err := repo.GetByID(context.Background(), "s1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "s1", got.ID)
		assert.Equal(t, model.RiskMonitor, got.Report.RiskLevel)
		assert.Equal(t, "clin_1", got.ClinicianID)
	})

	mt.Run("get by id missing returns nil", func(mt *mtest.T) {
		repo := NewScreeningRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		got, err := repo.GetByID(context.Background(), "nope")
		assert.NoError(t, err)
		assert.Nil(t, got)
	})

	mt.Run("list by clinician", func(mt *mtest.T) {
		repo := NewScreeningRepo(mt.DB)
		first := mtest.CreateCursorResponse(1, ns, mtest.FirstBatch,
			toDoc(t, sampleScreening("s2")),
			toDoc(t, sampleScreening("s1")))
		end := mtest.CreateCursorResponse(0, ns, mtest.NextBatch)
		mt.AddMockResponses(first, end)

		got, err := repo.ListByClinician(context.Background(), "clin_1", 10)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "s2", got[0].ID)
	})
}

func TestEventRepo_RecordStampsTime(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("record", func(mt *mtest.T) {
		repo := NewEventRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		event := &model.ScreeningEvent{ScreeningID: "s1", Source: model.SourceAI, RiskLevel: model.RiskLow}
		require.NoError(t, repo.Record(context.Background(), event))
		assert.False(t, event.CreatedAt.IsZero())
	})
}
