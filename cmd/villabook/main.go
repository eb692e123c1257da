package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"villabook/internal/app/calendars"
	appledger "villabook/internal/app/ledger"
	appoutbox "villabook/internal/app/outbox"
	"villabook/internal/app/uow"
	"villabook/internal/domain/shared/money"
	"villabook/internal/domain/villa"
	"villabook/internal/infra/broker/kafka"
	"villabook/internal/infra/config"
	mongodb "villabook/internal/infra/db/mongo"
	ginserver "villabook/internal/infra/http/gin"
	"villabook/internal/infra/obs"
	infraoutbox "villabook/internal/infra/outbox"
	"villabook/internal/infra/storage/memory"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}
	log := obs.NewLogger(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("service stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	deps, err := buildStorage(ctx, cfg, log)
	if err != nil {
		return err
	}

	ledger := appledger.New(deps.factory, deps.outbox)
	calendarSvc := calendars.New(deps.factory, deps.outbox)

	handlers := ginserver.Handlers{
		Auth:     ginserver.AuthMiddleware{Secret: []byte(cfg.JWTSecret), Logger: log},
		Bookings: ginserver.BookingHandler{Ledger: ledger},
		Host:     ginserver.HostBookingHandler{Ledger: ledger},
		Calendar: ginserver.CalendarHandler{Calendars: calendarSvc},
		Health:   obs.HealthHandlers{Ready: deps.ready},
	}
	server := ginserver.NewServer(cfg, obs.Middleware{Logger: log}, handlers)

	sweeper := appledger.Sweeper{Ledger: ledger, Interval: cfg.SweepInterval, Logger: log}
	go func() {
		if err := sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("completion sweeper stopped", "error", err)
		}
	}()

	if deps.worker != nil {
		go func() {
			if err := deps.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("outbox worker stopped", "error", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if deps.close != nil {
		deps.close()
	}
	return nil
}

type storageDeps struct {
	factory uow.Factory
	outbox  appoutbox.Outbox
	worker  *infraoutbox.Worker
	ready   func() error
	close   func()
}

func buildStorage(ctx context.Context, cfg config.Config, log *slog.Logger) (storageDeps, error) {
	switch cfg.StorageMode {
	case "mongo":
		return buildMongoStorage(ctx, cfg, log)
	default:
		return buildMemoryStorage(cfg, log)
	}
}

func buildMemoryStorage(cfg config.Config, log *slog.Logger) (storageDeps, error) {
	villaRepo := memory.NewVillaRepository()
	if cfg.VillaFixtures != "" {
		if err := loadVillaFixtures(cfg.VillaFixtures, villaRepo); err != nil {
			return storageDeps{}, err
		}
	}
	factory := memory.Factory{
		VillaRepo:    villaRepo,
		CalendarRepo: memory.NewCalendarRepository(),
		BookingRepo:  memory.NewBookingRepository(),
	}
	log.Info("using in-memory storage")
	return storageDeps{factory: factory, outbox: memory.NewOutbox()}, nil
}

func buildMongoStorage(ctx context.Context, cfg config.Config, log *slog.Logger) (storageDeps, error) {
	client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return storageDeps{}, err
	}
	if err := client.Ping(ctx); err != nil {
		return storageDeps{}, err
	}

	villaRepo := mongodb.NewVillaRepository(client.DB)
	if cfg.VillaFixtures != "" {
		if err := loadVillaFixtures(cfg.VillaFixtures, villaRepo); err != nil {
			return storageDeps{}, err
		}
	}
	factory := mongodb.Factory{
		DB:           client.DB,
		VillaRepo:    villaRepo,
		CalendarRepo: mongodb.NewCalendarRepository(client.DB),
		BookingRepo:  mongodb.NewBookingRepository(client.DB),
	}
	store := infraoutbox.NewStore(client.DB)

	deps := storageDeps{
		factory: factory,
		outbox:  store,
		ready:   func() error { return client.Ping(context.Background()) },
	}

	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			return storageDeps{}, err
		}
		deps.worker = &infraoutbox.Worker{
			Store:       store,
			Producer:    producer,
			Interval:    cfg.OutboxPollInterval,
			TopicPrefix: cfg.KafkaTopicPrefix,
			Backoff:     cfg.RetryBackoff,
		}
		deps.close = func() {
			if err := producer.Close(); err != nil {
				log.Warn("closing kafka producer", "error", err)
			}
		}
		log.Info("outbox worker enabled", "brokers", cfg.KafkaBrokers)
	} else {
		log.Warn("no kafka brokers configured, outbox events will accumulate")
	}
	return deps, nil
}

type villaFixture struct {
	ID               string `json:"id"`
	HostID           string `json:"host_id"`
	Title            string `json:"title"`
	Currency         string `json:"currency"`
	NightlyRateCents int64  `json:"nightly_rate_cents"`
	CleaningFeeCents int64  `json:"cleaning_fee_cents"`
	ServiceFeeCents  int64  `json:"service_fee_cents"`
	TaxesCents       int64  `json:"taxes_cents"`
	MinNights        int    `json:"min_nights"`
	MaxNights        int    `json:"max_nights"`
	MaxGuests        int    `json:"max_guests"`
	Policy           string `json:"policy"`
	InstantBook      bool   `json:"instant_book"`
}

// loadVillaFixtures seeds the villa read model from a JSON file, standing in
// for the listing service's replication feed in local and demo setups.
func loadVillaFixtures(path string, repo villa.Repository) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var fixtures []villaFixture
	if err := json.Unmarshal(raw, &fixtures); err != nil {
		return err
	}
	for _, f := range fixtures {
		v := &villa.Villa{
			ID:          villa.VillaID(f.ID),
			HostID:      f.HostID,
			Title:       f.Title,
			NightlyRate: money.Must(f.NightlyRateCents, f.Currency),
			MinNights:   f.MinNights,
			MaxNights:   f.MaxNights,
			MaxGuests:   f.MaxGuests,
			Policy:      villa.CancellationPolicy(f.Policy),
			InstantBook: f.InstantBook,
		}
		if f.CleaningFeeCents > 0 {
			v.CleaningFee = money.Must(f.CleaningFeeCents, f.Currency)
		}
		if f.ServiceFeeCents > 0 {
			v.ServiceFee = money.Must(f.ServiceFeeCents, f.Currency)
		}
		if f.TaxesCents > 0 {
			v.Taxes = money.Must(f.TaxesCents, f.Currency)
		}
		if err := v.Validate(); err != nil {
			return err
		}
		if err := repo.Save(context.Background(), v); err != nil {
			return err
		}
	}
	return nil
}
