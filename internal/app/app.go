package app

import (
	"fmt"
	"time"

	"github.com/goalpost-app/goalpost/internal/config"
	"github.com/goalpost-app/goalpost/internal/db"
	"github.com/goalpost-app/goalpost/internal/repository"
	"github.com/goalpost-app/goalpost/internal/service"
	"github.com/goalpost-app/goalpost/internal/service/dispatch"
	"github.com/jmoiron/sqlx"
)

type App struct {
	Cfg      *config.Config
	DB       *sqlx.DB
	Location *time.Location

	GoalService       *service.GoalService
	ConsentService    *service.ConsentService
	EscalationService *service.EscalationService
	MilestoneService  *service.MilestoneService
	Orchestrator      *service.Orchestrator
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %v", cfg.Timezone, err)
	}

	// Repositories
	goalRepository := repository.NewGoalRepository(database)
	logEntryRepository := repository.NewLogEntryRepository(database)
	memberRepository := repository.NewSupportMemberRepository(database)
	escalationRepository := repository.NewEscalationRepository(database)
	milestoneRepository := repository.NewMilestoneRepository(database)
	receiptRepository := repository.NewReceiptRepository(database)
	contactRepository := repository.NewUserContactRepository(database)

	// Dispatch: channel senders chosen once from config, then the
	// dispatcher that owns retry, fallback and receipts.
	senders := dispatch.NewSenders(cfg)
	dispatcher := dispatch.NewDispatcher(senders, receiptRepository, memberRepository, cfg.DispatchTimeout, cfg.DispatchAttempts)

	// Services
	consentService := service.NewConsentService(memberRepository, contactRepository, dispatcher, cfg.AppName)
	escalationService := service.NewEscalationService(
		escalationRepository,
		receiptRepository,
		goalRepository,
		contactRepository,
		consentService,
		dispatcher,
		cfg.AppName,
		cfg.AppURL,
	)
	milestoneService := service.NewMilestoneService(
		milestoneRepository,
		receiptRepository,
		contactRepository,
		consentService,
		dispatcher,
		cfg.AppName,
		cfg.AppURL,
	)
	orchestrator := service.NewOrchestrator(goalRepository, logEntryRepository, escalationService, milestoneService, cfg.RunWorkers)
	goalService := service.NewGoalService(goalRepository, logEntryRepository, escalationRepository)

	return &App{
		Cfg:      cfg,
		DB:       database,
		Location: location,

		GoalService:       goalService,
		ConsentService:    consentService,
		EscalationService: escalationService,
		MilestoneService:  milestoneService,
		Orchestrator:      orchestrator,
	}, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
