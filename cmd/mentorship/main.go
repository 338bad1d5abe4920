package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Freeeeeet/mentorship_scheduler/internal/app"
	"github.com/Freeeeeet/mentorship_scheduler/internal/config"
	"github.com/Freeeeeet/mentorship_scheduler/internal/notify"
	"github.com/Freeeeeet/mentorship_scheduler/internal/repository"
	"github.com/Freeeeeet/mentorship_scheduler/internal/service"
	"github.com/Freeeeeet/mentorship_scheduler/migrations"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := app.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Mentorship scheduler failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting mentorship scheduler", zap.String("environment", cfg.Environment))

	pool, err := pgxpool.New(ctx, cfg.GetDBDSN())
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return err
	}

	migrator, err := app.NewMigrator(pool, migrations.FS, logger)
	if err != nil {
		return err
	}
	defer migrator.Close()

	if err := migrator.Run(ctx); err != nil {
		return err
	}

	roleRepo := repository.NewRoleRepository(pool)
	if err := app.BootstrapAdmins(ctx, roleRepo, cfg.BootstrapAdmins, logger); err != nil {
		return err
	}

	slotRepo := repository.NewSlotRepository(pool)
	appointmentRepo := repository.NewAppointmentRepository(pool)
	chatRepo := repository.NewChatRepository(pool)

	notifiers := notify.Multi{notify.NewLogNotifier(logger)}
	if cfg.TelegramToken != "" {
		b, err := bot.New(cfg.TelegramToken)
		if err != nil {
			return err
		}
		notifiers = append(notifiers, notify.NewTelegramNotifier(b, chatRepo, logger))
		logger.Info("Telegram notifications enabled")
	}

	bookingService := service.NewBookingService(
		slotRepo,
		appointmentRepo,
		notifiers,
		logger,
		service.WithLocation(cfg.SlotLocation),
	)

	sweeper := app.NewSweeper(bookingService, cfg.SweepInterval, cfg.ReservationGrace, logger)
	sweeper.Start(ctx)

	<-ctx.Done()
	sweeper.Stop()

	logger.Info("Mentorship scheduler stopped")
	return nil
}
