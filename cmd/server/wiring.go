package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"

	jwttoken "xverify/internal/jwt_token"
	"xverify/internal/platform/config"
	"xverify/internal/platform/database"
	"xverify/internal/platform/health"
	"xverify/internal/platform/kafka/producer"
	redisplatform "xverify/internal/platform/redis"
	subhandler "xverify/internal/submission/handler"
	"xverify/internal/submission/publisher"
	subservice "xverify/internal/submission/service"
	"xverify/internal/submission/store"
	httptransport "xverify/internal/transport/http"
	verifyhandler "xverify/internal/verification/handler"
	verifymetrics "xverify/internal/verification/metrics"
	"xverify/internal/verification/pagination"
	verifyservice "xverify/internal/verification/service"
	"xverify/internal/xapi"
	xapimetrics "xverify/internal/xapi/metrics"
	"xverify/migrations"
	"xverify/pkg/platform/circuit"
	"xverify/pkg/platform/middleware/request"
	"xverify/pkg/platform/tracer"
)

const (
	submissionTokenTTL = time.Hour
	rewardBufferSize   = 256
)

type application struct {
	router    http.Handler
	redis     *redisplatform.Client
	db        *database.Pool
	producer  *producer.Producer
	publisher *publisher.Publisher
}

func (a *application) close(log *slog.Logger) {
	if a.publisher != nil {
		a.publisher.Close()
	}
	if a.producer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.producer.Close(ctx); err != nil {
			log.Warn("failed to close kafka producer", "error", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.Warn("failed to close redis client", "error", err)
		}
	}
	if err := a.db.Close(); err != nil {
		log.Warn("failed to close database", "error", err)
	}
}

func build(ctx context.Context, cfg config.Server, log *slog.Logger) (_ *application, err error) {
	app := &application{}
	defer func() {
		if err != nil {
			app.close(log)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	tr := tracer.NewOTel()
	xm := xapimetrics.New(reg)
	healthHandler := health.New(cfg.Environment)

	client, breaker, err := buildXAPI(cfg, xm, tr, log)
	if err != nil {
		return nil, err
	}
	healthHandler.RegisterCheck("x_api_circuit", func(context.Context) error {
		if breaker.State() == circuit.StateOpen {
			return errors.New("circuit open")
		}
		return nil
	})

	app.redis, err = redisplatform.New(ctx, cfg.Redis, redisplatform.NewPoolMetrics(reg))
	if err != nil {
		return nil, err
	}
	if app.redis != nil {
		client = xapi.NewHandleCache(client,
			xapi.NewRedisHandleStore(app.redis, cfg.HandleTTL), xm, log)
		healthHandler.RegisterCheck("redis", app.redis.Health)
		log.Info("handle cache enabled", "ttl", cfg.HandleTTL)
	}

	gateway, err := verifyservice.New(client, pagination.New(cfg.MaxPages),
		verifyservice.WithLogger(log),
		verifyservice.WithMetrics(verifymetrics.New(reg)),
		verifyservice.WithTracer(tr),
	)
	if err != nil {
		return nil, fmt.Errorf("create gateway: %w", err)
	}

	submissions, err := buildSubmissionStore(ctx, app, cfg, healthHandler, log)
	if err != nil {
		return nil, err
	}
	sink, err := buildRewardSink(app, cfg, healthHandler, log)
	if err != nil {
		return nil, err
	}
	app.publisher = publisher.New(sink,
		publisher.WithAsyncBuffer(rewardBufferSize),
		publisher.WithLogger(log),
	)
	submitService, err := subservice.New(gateway, submissions, app.publisher, subservice.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("create submission service: %w", err)
	}

	tokens := jwttoken.NewService(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.Audience, submissionTokenTTL, time.Now)

	app.router = httptransport.NewRouter(httptransport.Config{
		Logger:         log,
		Metrics:        request.NewMetrics(reg),
		Gatherer:       reg,
		AllowedOrigins: cfg.CORSOrigins,
		RequestTimeout: cfg.RequestLimit,
		Validator:      tokens,
		Public: []httptransport.Routes{
			healthHandler,
			verifyhandler.New(gateway, log),
		},
		Protected: []httptransport.Routes{
			subhandler.New(submitService, log),
		},
	})
	return app, nil
}

func buildXAPI(cfg config.Server, xm *xapimetrics.Metrics, tr tracer.Tracer, log *slog.Logger) (xapi.Client, *circuit.Breaker, error) {
	httpClient, err := xapi.NewHTTPClient(xapi.HTTPConfig{
		BaseURL:     cfg.XAPI.BaseURL,
		BearerToken: cfg.XAPI.BearerToken,
	})
	if err != nil {
		return nil, nil, err
	}

	breaker := circuit.New("x_api")
	backoff := xapi.DefaultBackoff()
	backoff.InitialDelay = cfg.XAPI.BackoffInitial
	backoff.MaxRetries = cfg.XAPI.MaxRetries

	opts := []xapi.ResilientOption{
		xapi.WithCallTimeout(cfg.XAPI.CallTimeout),
		xapi.WithBackoff(backoff),
		xapi.WithBreaker(breaker),
		xapi.WithMetrics(xm),
		xapi.WithTracer(tr),
		xapi.WithLogger(log),
	}
	if cfg.XAPI.RatePerSecond > 0 {
		opts = append(opts, xapi.WithLimiter(rate.NewLimiter(rate.Limit(cfg.XAPI.RatePerSecond), cfg.XAPI.RateBurst)))
	}
	return xapi.NewResilient(httpClient, opts...), breaker, nil
}

func buildSubmissionStore(ctx context.Context, app *application, cfg config.Server, h *health.Handler, log *slog.Logger) (store.Store, error) {
	pool, err := database.New(ctx, database.DefaultConfig(cfg.DatabaseURL))
	if err != nil {
		return nil, err
	}
	if pool == nil {
		log.Info("submission ledger using in-memory store")
		return store.NewInMemoryStore(), nil
	}
	app.db = pool
	if err := pool.Migrate(ctx, migrations.FS); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	h.RegisterCheck("database", pool.Health)
	log.Info("submission ledger using postgres")
	return store.NewPostgres(pool.DB()), nil
}

func buildRewardSink(app *application, cfg config.Server, h *health.Handler, log *slog.Logger) (publisher.Sink, error) {
	if cfg.Kafka.Brokers == "" {
		log.Info("reward events logged only, no kafka brokers configured")
		return publisher.NewLogSink(log), nil
	}
	prod, err := producer.New(producer.Config{
		Brokers:         cfg.Kafka.Brokers,
		ClientID:        "xverify",
		Acks:            "all",
		Retries:         3,
		DeliveryTimeout: 10 * time.Second,
	}, log)
	if err != nil {
		return nil, err
	}
	app.producer = prod
	h.RegisterCheck("kafka", prod.Ping)
	log.Info("reward events published to kafka", "topic", cfg.Kafka.Topic)
	return publisher.NewKafkaSink(prod, cfg.Kafka.Topic), nil
}
