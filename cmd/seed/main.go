// seed loads demo screenings for one clinician so the dashboard has data.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"devscreen/internal/classifier"
	"devscreen/internal/config"
	"devscreen/internal/logging"
	"devscreen/internal/model"
	"devscreen/internal/repository"
	"devscreen/internal/service"
)

type demoCase struct {
	age          int
	domain       string
	observations string
}

var demoCases = []demoCase{
	{24, model.DomainCommunication, "Has no words yet and does not respond to his name."},
	{30, model.DomainCommunication, "Uses only about 10 words, mostly nouns."},
	{18, model.DomainGrossMotor, "Walks independently, climbs onto the sofa."},
	{4, model.DomainSocial, "Smiles at caregivers, tracks faces."},
	{36, model.DomainFineMotor, "Holds a crayon in a fist grip, scribbles."},
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "seed:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// same id the configured clinician receives at login
	clinicianID := service.ClinicianIDFor(cfg.Auth)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}
	defer client.Disconnect(context.Background())

	db := client.Database(cfg.MongoDB)
	if err := repository.EnsureIndexes(ctx, db); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	repo := repository.NewScreeningRepo(db)

	now := time.Now().UTC()
	for i, c := range demoCases {
		hash := service.ComputeInputHash(c.age, c.domain, c.observations)
		screening := &model.Screening{
			ID:             uuid.New().String(),
			ClinicianID:    clinicianID,
			ChildAgeMonths: c.age,
			Domain:         c.domain,
			InputHash:      hash,
			Source:         model.SourceFallback,
			FallbackReason: model.FallbackDisabled,
			Report:         classifier.Classify(c.age, c.domain, c.observations, false, hash),
			CreatedAt:      now.Add(-time.Duration(i) * time.Hour),
		}
		if err := repo.Save(ctx, screening); err != nil {
			return fmt.Errorf("save screening: %w", err)
		}
		logger.Info("seeded screening",
			zap.String("screeningId", screening.ID),
			zap.String("riskLevel", string(screening.Report.RiskLevel)))
	}

	logger.Info("seed complete", zap.String("clinicianId", clinicianID), zap.Int("count", len(demoCases)))
	return nil
}
