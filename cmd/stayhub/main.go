package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stayhub/internal/app/commands"
	listingsapp "stayhub/internal/app/handlers/listings"
	meapp "stayhub/internal/app/handlers/me"
	"stayhub/internal/app/middleware"
	"stayhub/internal/app/policies"
	"stayhub/internal/app/queries"
	"stayhub/internal/app/reservation"
	authsvc "stayhub/internal/app/services/auth"
	domainbooking "stayhub/internal/domain/booking"
	domainlisting "stayhub/internal/domain/listing"
	domainuser "stayhub/internal/domain/user"
	"stayhub/internal/infra/broker/kafka"
	"stayhub/internal/infra/config"
	mongodb "stayhub/internal/infra/db/mongo"
	ginserver "stayhub/internal/infra/http/gin"
	"stayhub/internal/infra/obs"
	"stayhub/internal/infra/payments"
	"stayhub/internal/infra/security"
	"stayhub/internal/infra/storage/memory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Warn("using fallback configuration", "error", err)
		cfg.Env = env
		cfg.HTTPAddr = getenv("HTTP_ADDR", ":8080")
		cfg.IdempotencyTTL = 168 * time.Hour
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("application startup failed", "error", err)
		os.Exit(1)
	}
	defer app.close(logger)

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers ginserver.Handlers
	ready    func() error
	producer *kafka.Producer
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	var (
		listings   domainlisting.Repository
		users      domainuser.Repository
		bookings   domainbooking.Repository
		reconciler reservation.Reconciler
		ready      func() error
	)

	if cfg.MongoURI != "" {
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		userRepo := mongodb.NewUserRepository(client.DB)
		if err := userRepo.EnsureIndexes(ctx); err != nil {
			logger.Warn("user index creation failed", "error", err)
		}
		listings = mongodb.NewListingRepository(client.DB)
		users = userRepo
		bookings = mongodb.NewBookingRepository(client.DB)
		reconciler = mongodb.NewReconciliationStore(client.DB)
		ready = func() error { return client.Ping(context.Background()) }
		logger.Info("storage initialized", "backend", "mongo", "database", cfg.MongoDB)
	} else {
		listings = memory.NewListingRepository()
		users = memory.NewUserRepository()
		bookings = memory.NewBookingRepository()
		reconciler = memory.NewReconciliationStore()
		ready = func() error { return nil }
		logger.Warn("storage initialized", "backend", "memory")
	}

	sessions := memory.NewSessionStore()
	idStore := memory.NewIdempotencyStore(cfg.IdempotencyTTL)

	authService := &authsvc.Service{
		Users:      users,
		Sessions:   sessions,
		Passwords:  security.BcryptHasher{},
		Tokens:     security.RandomTokenGenerator{},
		SessionTTL: cfg.SessionTTL,
		Logger:     logger,
	}

	var publisher reservation.Publisher
	var producer *kafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		p, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopicPrefix)
		if err != nil {
			logger.Warn("kafka producer unavailable, events disabled", "error", err)
		} else {
			publisher = p
			producer = p
			logger.Info("kafka producer initialized", "brokers", cfg.KafkaBrokers)
		}
	}

	gateway := payments.NewClient(cfg.PaymentsEndpoint, cfg.PaymentsKey, cfg.PaymentsTimeout)

	reservationHandler := reservation.NewHandler(reservation.Deps{
		Listings:   listings,
		Users:      users,
		Bookings:   bookings,
		Resolver:   authService,
		Gateway:    gateway,
		IDs:        security.HexIDGenerator{},
		Clock:      policies.ClockFunc(time.Now),
		Publisher:  publisher,
		Reconciler: reconciler,
		Logger:     logger,
	})
	hostListingHandler := &listingsapp.HostListingHandler{
		Listings: listings,
		Users:    users,
		Resolver: authService,
		IDs:      security.HexIDGenerator{},
		Clock:    policies.ClockFunc(time.Now),
		Logger:   logger,
	}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, reservation.CreateReservationCommand{}.Key(), reservationHandler)
	commands.RegisterHandler(commandBus, listingsapp.HostListingCommand{}.Key(), hostListingHandler)

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, listingsapp.GetListingQuery{}.Key(), &listingsapp.GetListingHandler{
		Listings: listings,
		Resolver: authService,
	})
	queries.RegisterHandler(queryBus, meapp.ListGuestBookingsQuery{}.Key(), &meapp.ListGuestBookingsHandler{
		Bookings: bookings,
	})

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Idempotency(idStore, nil),
	)
	queryBusWithMiddleware := middleware.ChainQueries(queryBus)

	authMW := ginserver.AuthMiddleware{Service: authService, Logger: logger}

	return &application{
		handlers: ginserver.Handlers{
			Reservation: ginserver.ReservationHandler{
				Commands: commandBusWithMiddleware,
				Logger:   logger,
			},
			Listing: ginserver.ListingHandler{
				Queries: queryBusWithMiddleware,
				Logger:  logger,
			},
			HostListing: ginserver.HostListingHandler{
				Commands: commandBusWithMiddleware,
				Logger:   logger,
			},
			Auth: ginserver.AuthHandler{
				Service: authService,
				Logger:  logger,
			},
			Me: ginserver.MeHandler{
				Queries: queryBusWithMiddleware,
				Logger:  logger,
			},
			AuthMiddleware: authMW.Handle,
		},
		ready:    ready,
		producer: producer,
	}, nil
}

func (a *application) close(logger *slog.Logger) {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			logger.Warn("kafka producer close failed", "error", err)
		}
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
