package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/goalpost-app/goalpost/internal/app"
	"github.com/goalpost-app/goalpost/internal/config"
	"github.com/goalpost-app/goalpost/internal/logger"
	"github.com/goalpost-app/goalpost/internal/model"
	"github.com/goalpost-app/goalpost/internal/repository"
	"github.com/goalpost-app/goalpost/internal/service"
	"github.com/goalpost-app/goalpost/internal/service/dispatch"
	"github.com/google/uuid"
)

// rundaily triggers one daily run from the command line and prints the
// report as JSON. With -fixture it runs entirely in memory against seeded
// demo data, no database or provider credentials needed.
func main() {
	var (
		dateStr = flag.String("date", "", "run date as YYYY-MM-DD (default: today)")
		fixture = flag.Bool("fixture", false, "run against in-memory demo data instead of the database")
	)
	flag.Parse()

	asOf := time.Now()
	if *dateStr != "" {
		parsed, err := time.Parse("2006-01-02", *dateStr)
		if err != nil {
			fmt.Fprintln(os.Stderr, "invalid -date, expected YYYY-MM-DD:", err)
			os.Exit(1)
		}
		asOf = parsed
	}

	var report *service.RunReport
	var err error
	if *fixture {
		logger.Init(true, "")
		report, err = runFixture(context.Background(), asOf)
	} else {
		cfg := config.Load()
		logger.Init(cfg.IsDevelopment(), cfg.SentryDSN)
		report, err = runLive(context.Background(), cfg, asOf)
	}
	if err != nil {
		slog.Error("daily run failed", "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		slog.Error("failed to encode report", "error", err)
		os.Exit(1)
	}
}

func runLive(ctx context.Context, cfg *config.Config, asOf time.Time) (*service.RunReport, error) {
	application, err := app.New(cfg)
	if err != nil {
		return nil, err
	}
	defer application.Close()

	return application.Orchestrator.RunDaily(ctx, asOf.In(application.Location))
}

func runFixture(ctx context.Context, asOf time.Time) (*service.RunReport, error) {
	fix := repository.NewFixture()
	seedDemo(fix, asOf)

	senders := map[string]dispatch.Sender{
		model.ChannelText:  dispatch.NewLogSender(model.ChannelText),
		model.ChannelVoice: dispatch.NewLogSender(model.ChannelVoice),
		model.ChannelEmail: dispatch.NewLogSender(model.ChannelEmail),
	}
	dispatcher := dispatch.NewDispatcher(senders, fix.Receipts(), fix.Members(), 10*time.Second, 3)

	consent := service.NewConsentService(fix.Members(), fix.UserContacts(), dispatcher, "Goalpost")
	escalation := service.NewEscalationService(
		fix.Escalations(), fix.Receipts(), fix.Goals(), fix.UserContacts(),
		consent, dispatcher, "Goalpost", "http://localhost:8090",
	)
	milestone := service.NewMilestoneService(
		fix.Milestones(), fix.Receipts(), fix.UserContacts(),
		consent, dispatcher, "Goalpost", "http://localhost:8090",
	)
	orchestrator := service.NewOrchestrator(fix.Goals(), fix.LogEntries(), escalation, milestone, 4)

	return orchestrator.RunDaily(ctx, asOf)
}

// seedDemo creates one user with two goals: a running-goal miss streak deep
// enough to hit the check-in tier, and a reading goal at exactly a seven-day
// completion streak.
func seedDemo(fix *repository.Fixture, asOf time.Time) {
	const userID = "demo-user"
	now := time.Now()

	_ = fix.UserContacts().Upsert(&model.UserContact{
		UserID:     userID,
		Name:       "Jesse",
		Phone:      "+15550100",
		Email:      "jesse@example.com",
		ChannelSet: model.ChannelSetText,
	})

	missed := &model.Goal{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     "Run every morning",
		Frequency: model.FrequencyDaily,
		Status:    model.GoalStatusActive,
		CreatedAt: asOf.AddDate(0, 0, -10),
		UpdatedAt: now,
	}
	_ = fix.Goals().Create(missed)
	// Last completion four days back leaves a three-day miss streak.
	for i := 10; i >= 4; i-- {
		_ = fix.LogEntries().Create(&model.DailyLogEntry{
			ID:        uuid.New().String(),
			UserID:    userID,
			GoalID:    missed.ID,
			EntryDate: asOf.AddDate(0, 0, -i),
			Completed: true,
			CreatedAt: now,
		})
	}

	streak := &model.Goal{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     "Read 20 pages",
		Frequency: model.FrequencyDaily,
		Status:    model.GoalStatusActive,
		CreatedAt: asOf.AddDate(0, 0, -14),
		UpdatedAt: now,
	}
	_ = fix.Goals().Create(streak)
	for i := 6; i >= 0; i-- {
		_ = fix.LogEntries().Create(&model.DailyLogEntry{
			ID:        uuid.New().String(),
			UserID:    userID,
			GoalID:    streak.ID,
			EntryDate: asOf.AddDate(0, 0, -i),
			Completed: true,
			CreatedAt: now,
		})
	}

	_ = fix.Members().Create(&model.SupportMember{
		ID:           uuid.New().String(),
		UserID:       userID,
		Name:         "Blake",
		Phone:        "+15550101",
		Email:        "blake@example.com",
		ChannelSet:   model.ChannelSetTextVoice,
		ConsentState: model.ConsentGranted,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	_ = fix.Members().Create(&model.SupportMember{
		ID:           uuid.New().String(),
		UserID:       userID,
		Name:         "Casey",
		Phone:        "+15550102",
		Email:        "casey@example.com",
		ChannelSet:   model.ChannelSetEmail,
		ConsentState: model.ConsentPending,
		Active:       true,
		CreatedAt:    now.Add(time.Second),
		UpdatedAt:    now,
	})
}
