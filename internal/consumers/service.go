package consumers

import (
	"context"
	"log/slog"

	"kassa/internal/config"
	"kassa/internal/database"
	"kassa/internal/messaging"
	"kassa/internal/models"
	"kassa/internal/repository"
	"kassa/internal/service"
)

type ConsumerService struct {
	db       *database.DB
	nats     *messaging.NATSClient
	repos    *repository.Repositories
	services *service.Services
	handlers *Handlers
}

func NewConsumerService(cfg *config.Config) (*ConsumerService, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		return nil, err
	}

	repos := repository.NewRepositories(db)

	// Consumers run without the snapshot cache or the payment gateway;
	// reconciliation needs neither.
	services := service.NewServices(repos, natsClient, nil, nil)

	handlers := NewHandlers(services.Reconcile)

	return &ConsumerService{
		db:       db,
		nats:     natsClient,
		repos:    repos,
		services: services,
		handlers: handlers,
	}, nil
}

// Services exposes the wired services to jobs sharing this process.
func (cs *ConsumerService) Services() *service.Services {
	return cs.services
}

func (cs *ConsumerService) Start() error {
	slog.Info("Starting NATS consumers...")

	if _, err := cs.nats.SubscribeQueue(models.EventTicketSold, "consumers", cs.handlers.HandleTicketSold); err != nil {
		return err
	}

	if _, err := cs.nats.SubscribeQueue(models.EventSoldOut, "consumers", cs.handlers.HandleSoldOut); err != nil {
		return err
	}

	if _, err := cs.nats.SubscribeQueue(models.EventInventoryReconciled, "consumers", cs.handlers.HandleInventoryReconciled); err != nil {
		return err
	}

	slog.Info("All consumers started successfully")
	return nil
}

func (cs *ConsumerService) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down consumer service...")

	if cs.nats != nil {
		if err := cs.nats.Close(); err != nil {
			slog.Error("Error closing NATS connection", "error", err)
		}
	}

	if cs.db != nil {
		if err := cs.db.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
