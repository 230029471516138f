package app

import (
	"context"

	"statusdeck/config"
	"statusdeck/internals/modules/alert"
	"statusdeck/internals/modules/incident"
	"statusdeck/internals/modules/monitor"
	"statusdeck/internals/modules/probe"
	"statusdeck/internals/modules/realtime"
	"statusdeck/internals/modules/result"
	"statusdeck/internals/modules/scheduler"
	"statusdeck/pkg/eventbus"
	"statusdeck/pkg/httpclient"
	"statusdeck/pkg/rabbitmq"
	"statusdeck/pkg/redisstore"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

type Container struct {
	DB     *pgxpool.Pool
	Redis  *redisstore.Client
	Bus    *eventbus.Bus
	Logger *zerolog.Logger

	monitorHandler  *monitor.Handler
	incidentHandler *incident.Handler
	wsHandler       *realtime.Handler

	Scheduler *scheduler.Scheduler
	Listener  *realtime.Listener

	// Optional: nil unless a RabbitMQ broker is configured.
	RabbitConn *amqp091.Connection
	Publisher  *rabbitmq.Publisher
	Consumer   *rabbitmq.Consumer
	AlertSvc   *alert.Service
}

func NewContainer(ctx context.Context, db *pgxpool.Pool, cfg *config.Config, logger *zerolog.Logger) (*Container, error) {

	redisClient, err := redisstore.New(cfg.Redis)
	if err != nil {
		return nil, err
	}

	bus, err := eventbus.New(cfg.Redis, logger)
	if err != nil {
		return nil, err
	}

	validator := validator.New()
	httpClient := httpclient.NewHttpClient()

	monitorRepo := monitor.NewRepository(db, logger)
	resultRepo := result.NewRepository(db, logger)
	incidentRepo := incident.NewRepository(db, logger)

	monitorSvc := monitor.NewService(monitorRepo, bus, redisClient, logger)

	c := &Container{
		DB:     db,
		Redis:  redisClient,
		Bus:    bus,
		Logger: logger,
	}

	if cfg.RabbitMQ != nil && cfg.RabbitMQ.BrokerLink != "" {
		conn, err := rabbitmq.NewConnection(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		if err := rabbitmq.SetupTopology(conn, cfg.RabbitMQ); err != nil {
			return nil, err
		}
		publisher, err := rabbitmq.NewPublisher(conn, cfg.RabbitMQ.ExchangeName, cfg.RabbitMQ.RoutingKey)
		if err != nil {
			return nil, err
		}
		consumer, err := rabbitmq.NewConsumer(conn, cfg.RabbitMQ.QueueName, cfg.RabbitMQ.WorkerCount, logger)
		if err != nil {
			return nil, err
		}
		c.RabbitConn = conn
		c.Publisher = publisher
		c.Consumer = consumer
	}

	// The interface must stay nil when no broker is wired, a typed nil
	// would pass the notifier's nil check.
	var notifier incident.Notifier
	if c.Publisher != nil {
		notifier = c.Publisher
	}

	incidentSvc := incident.NewService(incidentRepo, monitorSvc, redisClient, bus, notifier, logger)

	var probeCfg config.ProbeConfig
	if cfg.Probe != nil {
		probeCfg = *cfg.Probe
	}
	prober := probe.NewProber(
		monitorSvc,
		resultRepo,
		redisClient,
		incidentSvc,
		bus,
		httpClient,
		probeCfg.MaxConcurrent,
		probeCfg.DefaultTimeout,
		logger,
	)

	var schedCfg config.SchedulerConfig
	if cfg.Scheduler != nil {
		schedCfg = *cfg.Scheduler
	}
	c.Scheduler = scheduler.NewScheduler(ctx, monitorSvc, prober, redisClient, bus, schedCfg.StartDelay, logger)

	monitorsHub := realtime.NewHub("monitors", logger)
	incidentsHub := realtime.NewHub("incidents", logger)
	c.Listener = realtime.NewListener(bus, monitorsHub, incidentsHub, logger)
	c.wsHandler = realtime.NewHandler(monitorsHub, incidentsHub, logger)

	webhookURL := ""
	if cfg.Alert != nil {
		webhookURL = cfg.Alert.WebhookURL
	}
	c.AlertSvc = alert.NewService(webhookURL, httpClient, logger)

	c.monitorHandler = monitor.NewHandler(monitorSvc, resultRepo, validator)
	c.incidentHandler = incident.NewHandler(incidentSvc)

	return c, nil
}

// Shutdown releases resources in dependency order: probe jobs first,
// then the queues and stores they write to.
func (c *Container) Shutdown(ctx context.Context) error {
	if c.Scheduler != nil {
		c.Scheduler.Stop()
	}
	if c.Consumer != nil {
		if err := c.Consumer.Shutdown(ctx); err != nil {
			c.Logger.Error().Err(err).Msg("rabbitmq consumer shutdown failed")
		}
	}
	if c.Publisher != nil {
		_ = c.Publisher.Close()
	}
	if c.RabbitConn != nil {
		_ = c.RabbitConn.Close()
	}
	if c.Bus != nil {
		_ = c.Bus.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.DB != nil {
		c.DB.Close()
	}
	return nil
}
