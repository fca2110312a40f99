package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"homestay/internal/app/commands"
	bookingapp "homestay/internal/app/handlers/booking"
	couponsapp "homestay/internal/app/handlers/coupons"
	settingsapp "homestay/internal/app/handlers/hostsettings"
	locationsapp "homestay/internal/app/handlers/locations"
	"homestay/internal/app/handlers/quotes"
	roomsapp "homestay/internal/app/handlers/rooms"
	"homestay/internal/app/handlers/support"
	"homestay/internal/app/middleware"
	appoutbox "homestay/internal/app/outbox"
	"homestay/internal/app/queries"
	"homestay/internal/app/services/quoting"
	"homestay/internal/app/uow"
	"homestay/internal/domain/hostsettings"
	domainpricing "homestay/internal/domain/pricing"
	"homestay/internal/infra/broker/kafka"
	"homestay/internal/infra/config"
	mongostore "homestay/internal/infra/db/mongo"
	ginserver "homestay/internal/infra/http/gin"
	"homestay/internal/infra/obs"
	infraoutbox "homestay/internal/infra/outbox"
	"homestay/internal/infra/storage/memory"
	"homestay/internal/infra/validation"
)

const idempotencyTTL = 24 * time.Hour

type application struct {
	handlers ginserver.Handlers
	worker   *infraoutbox.Worker
	seed     seeder
	ready    func(ctx context.Context) error
	closers  []func(ctx context.Context) error
	logger   *slog.Logger
}

// storage is what a store mode contributes to the application.
type storage struct {
	factory     uow.UoWFactory
	outbox      appoutbox.Outbox
	source      infraoutbox.Source
	idempotency middleware.IdempotencyStore
	seed        seeder
	ready       func(ctx context.Context) error
	close       func(ctx context.Context) error
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	store, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app := &application{seed: store.seed, ready: store.ready, logger: logger}
	if store.close != nil {
		app.closers = append(app.closers, store.close)
	}

	metrics := obs.Metrics{}
	events := support.Events{Outbox: store.outbox, Encoder: appoutbox.JSONEventEncoder{}}
	platform := hostsettings.Platform{
		TaxRate:            cfg.TaxRate,
		CancellationWindow: cfg.CancellationWindow,
		LateRefundPercent:  cfg.LateRefundPercent,
	}
	quoter := &quoting.Quoter{Engine: domainpricing.Engine{}, Platform: platform, Recorder: metrics}

	commandBus := commands.NewInMemoryBus()
	queryBus := queries.NewInMemoryBus()

	roomsapp.Register(commandBus, queryBus, &roomsapp.Handlers{
		UoWFactory:      store.factory,
		Events:          events,
		DefaultCurrency: cfg.DefaultCurrency,
		Logger:          logger,
	})
	couponsapp.Register(commandBus, queryBus, &couponsapp.Handlers{
		UoWFactory:      store.factory,
		Events:          events,
		DefaultCurrency: cfg.DefaultCurrency,
		Logger:          logger,
	})
	locationsapp.Register(commandBus, queryBus, &locationsapp.Handlers{
		UoWFactory: store.factory,
		Events:     events,
		Logger:     logger,
	})
	settingsapp.Register(commandBus, queryBus, &settingsapp.Handlers{
		UoWFactory: store.factory,
		Platform:   platform,
		Events:     events,
		Logger:     logger,
	})
	quotes.Register(queryBus, &quotes.Handlers{UoWFactory: store.factory, Quoter: quoter})
	bookingapp.Register(commandBus, queryBus,
		&bookingapp.RequestBookingHandler{
			UoWFactory:  store.factory,
			Quoter:      quoter,
			Events:      events,
			Redemptions: metrics,
			Logger:      logger,
		},
		&bookingapp.HostBookingsHandler{UoWFactory: store.factory, Events: events, Logger: logger},
	)

	instrumentCmd, instrumentQuery := middleware.Instrumentation(logger, metrics)
	hostCmd, hostQuery := middleware.HostAuthorization()
	validator := validation.New()

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		instrumentCmd,
		hostCmd,
		middleware.Validation(validator),
		middleware.Idempotency(store.idempotency, nil),
		middleware.OutboxFlush(store.outbox),
		middleware.Transaction(store.factory, nil),
	)
	queryBusWithMiddleware := middleware.ChainQueries(
		queryBus,
		instrumentQuery,
		hostQuery,
		middleware.QueryValidation(validator),
	)

	producer, err := newProducer(cfg, logger)
	if err != nil {
		app.close(ctx)
		return nil, err
	}
	app.closers = append(app.closers, func(context.Context) error { return producer.Close() })
	app.worker = &infraoutbox.Worker{
		Source:      store.source,
		Producer:    producer,
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		SourceURI:   "/homestay",
		Backoff:     cfg.RetryBackoff,
		Logger:      logger,
		Metrics:     metrics,
	}

	app.handlers = ginserver.Handlers{
		Quote:        ginserver.QuoteHandler{Queries: queryBusWithMiddleware, Logger: logger},
		Booking:      ginserver.BookingHandler{Commands: commandBusWithMiddleware, Logger: logger},
		HostBooking:  ginserver.HostBookingHandler{Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware, Logger: logger},
		HostRoom:     ginserver.HostRoomHandler{Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware, Logger: logger},
		HostCoupon:   ginserver.HostCouponHandler{Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware, Logger: logger},
		HostLocation: ginserver.HostLocationHandler{Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware, Logger: logger},
		HostSettings: ginserver.HostSettingsHandler{Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware, Logger: logger},
		Coupon:       ginserver.CouponHandler{Queries: queryBusWithMiddleware, Logger: logger},
	}
	return app, nil
}

func openStorage(ctx context.Context, cfg config.Config) (storage, error) {
	if cfg.StoreMode != config.StoreMongo {
		store := memory.NewStore()
		return storage{
			factory:     memory.Factory{Store: store},
			outbox:      store.Outbox(),
			source:      store.Outbox(),
			idempotency: memory.NewIdempotencyStore(),
			seed:        memorySeeder{store: store},
		}, nil
	}

	client, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return storage{}, fmt.Errorf("connect mongo: %w", err)
	}
	fail := func(err error) (storage, error) {
		_ = client.Close(context.Background())
		return storage{}, err
	}
	factory, err := mongostore.NewFactory(ctx, client.DB)
	if err != nil {
		return fail(fmt.Errorf("mongo indexes: %w", err))
	}
	box, err := infraoutbox.NewMongoStore(ctx, client.DB)
	if err != nil {
		return fail(fmt.Errorf("mongo outbox: %w", err))
	}
	idem, err := mongostore.NewIdempotencyStore(ctx, client.DB, idempotencyTTL)
	if err != nil {
		return fail(fmt.Errorf("mongo idempotency: %w", err))
	}
	return storage{
		factory:     factory,
		outbox:      box,
		source:      box,
		idempotency: idem,
		seed:        unitSeeder{factory: factory},
		ready:       client.Ping,
		close:       client.Close,
	}, nil
}

// newProducer returns a Kafka producer, or a logging one when no brokers are configured.
func newProducer(cfg config.Config, logger *slog.Logger) (interface {
	infraoutbox.Producer
	Close() error
}, error) {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Info("no kafka brokers configured, outbox events are logged only")
		return logProducer{infraoutbox.LogProducer{Logger: logger}}, nil
	}
	p, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return p, nil
}

type logProducer struct {
	infraoutbox.LogProducer
}

func (logProducer) Close() error { return nil }

func (a *application) close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil && a.logger != nil {
			a.logger.Warn("shutdown step failed", "error", err)
		}
	}
	a.closers = nil
}
