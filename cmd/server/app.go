package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	idvhandler "idvmgt/internal/idv/handler"
	"idvmgt/internal/idv/listener"
	idvmetrics "idvmgt/internal/idv/metrics"
	idvmodels "idvmgt/internal/idv/models"
	idvservice "idvmgt/internal/idv/service"
	idvstore "idvmgt/internal/idv/store"
	idvmemory "idvmgt/internal/idv/store/memory"
	idvmongo "idvmgt/internal/idv/store/mongo"
	idvpostgres "idvmgt/internal/idv/store/postgres"
	"idvmgt/internal/idv/verifier"
	"idvmgt/internal/idv/verifier/echo"
	idvphandler "idvmgt/internal/idvp/handler"
	idvpmetrics "idvmgt/internal/idvp/metrics"
	idvpmodels "idvmgt/internal/idvp/models"
	"idvmgt/internal/idvp/secrets"
	idvpservice "idvmgt/internal/idvp/service"
	idvpstore "idvmgt/internal/idvp/store"
	idvpmemory "idvmgt/internal/idvp/store/memory"
	idvppostgres "idvmgt/internal/idvp/store/postgres"
	jwttoken "idvmgt/internal/jwt_token"
	"idvmgt/internal/platform/cache"
	"idvmgt/internal/platform/config"
	"idvmgt/internal/platform/kafka/consumer"
	"idvmgt/internal/platform/kafka/producer"
	platformmetrics "idvmgt/internal/platform/metrics"
	mongoclient "idvmgt/internal/platform/mongo"
	"idvmgt/internal/platform/postgres"
	redisclient "idvmgt/internal/platform/redis"
	"idvmgt/internal/platform/registry"
	"idvmgt/internal/secretvault/cipher"
	vault "idvmgt/internal/secretvault/service"
	vaultstore "idvmgt/internal/secretvault/store"
	"idvmgt/internal/userstore"
	"idvmgt/pkg/platform/audit"
	auditkafka "idvmgt/pkg/platform/audit/kafka"
	"idvmgt/pkg/platform/audit/publisher"
	auditmemory "idvmgt/pkg/platform/audit/store/memory"
	"idvmgt/pkg/platform/httputil"
	authmw "idvmgt/pkg/platform/middleware/auth"
	request "idvmgt/pkg/platform/middleware/request"
)

// app holds every long lived dependency of the serve command.
type app struct {
	cfg    config.Config
	logger *slog.Logger

	pg       *postgres.Connection
	mongo    *mongoclient.Client
	redis    *redisclient.Client
	producer *producer.Producer
	audit    *publisher.Publisher

	providerCache *cache.Cache[*idvpmodels.Provider]
	claimCache    *cache.Cache[*idvmodels.Claim]

	providers *idvpservice.Manager
	claims    *idvservice.Manager
	users     userstore.Store
	idvMetric *idvmetrics.Metrics
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (_ *app, err error) {
	a := &app{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.close(context.Background())
		}
	}()

	if err := a.connect(ctx); err != nil {
		return nil, err
	}
	cacheMetrics := platformmetrics.New()
	a.idvMetric = idvmetrics.New()

	processor, err := a.secretProcessor()
	if err != nil {
		return nil, err
	}
	if err := a.auditPublisher(ctx); err != nil {
		return nil, err
	}

	providerStores := registry.New[idvpstore.Store]("provider store")
	if err := providerStores.Register(config.BackendMemory, idvpmemory.New()); err != nil {
		return nil, err
	}
	if a.pg != nil {
		if err := providerStores.Register(config.BackendPostgres, idvppostgres.New(a.pg.DB)); err != nil {
			return nil, err
		}
	}
	providerOpts := []idvpservice.Option{
		idvpservice.WithLogger(logger),
		idvpservice.WithAuditPublisher(a.audit),
		idvpservice.WithMetrics(idvpmetrics.New()),
		idvpservice.WithPagination(cfg.Pagination.DefaultItemsPerPage, cfg.Pagination.MaxItemsPerPage),
	}
	if cfg.Providers.Cache.Enabled {
		a.providerCache, err = cache.New[*idvpmodels.Provider]("idvp", cfg.Providers.Cache, cacheMetrics)
		if err != nil {
			return nil, err
		}
		providerOpts = append(providerOpts, idvpservice.WithCache(a.providerCache))
	}
	a.providers = idvpservice.New(providerStores, cfg.Providers.Backend, processor, providerOpts...)

	claimStores, err := a.claimStores(ctx)
	if err != nil {
		return nil, err
	}
	claimOpts := []idvservice.Option{
		idvservice.WithLogger(logger),
		idvservice.WithAuditPublisher(a.audit),
		idvservice.WithMetrics(a.idvMetric),
	}
	if cfg.Claims.Cache.Enabled {
		a.claimCache, err = cache.New[*idvmodels.Claim]("idv", cfg.Claims.Cache, cacheMetrics)
		if err != nil {
			return nil, err
		}
		claimOpts = append(claimOpts, idvservice.WithCache(a.claimCache))
	}

	a.users = userstore.NewInMemory()
	if a.redis != nil {
		a.users = userstore.NewRedis(a.redis.Client, userstore.WithKeyPrefix(a.redis.KeyPrefix))
	}

	verifiers := verifier.NewRegistry()
	a.claims = idvservice.New(claimStores, cfg.Claims.Backend, a.providers, a.users, verifiers, claimOpts...)
	if err := verifiers.Register(echo.Type, echo.Factory(verifier.NewBase(a.providers, a.claims, a.users))); err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "identity verifiers registered", "types", verifiers.Types())
	return a, nil
}

func (a *app) connect(ctx context.Context) error {
	var err error
	if a.cfg.Postgres.URL != "" {
		if a.pg, err = postgres.NewConnection(ctx, a.cfg.Postgres); err != nil {
			return err
		}
		if a.cfg.Postgres.AutoMigrate {
			if err := a.pg.MigrateUp(); err != nil {
				return err
			}
		}
	}
	if a.cfg.Mongo.URL != "" {
		if a.mongo, err = mongoclient.New(ctx, a.cfg.Mongo); err != nil {
			return err
		}
	}
	if a.redis, err = redisclient.New(ctx, a.cfg.Redis); err != nil {
		return err
	}
	if len(a.cfg.Kafka.Brokers) > 0 {
		if a.producer, err = producer.New(a.cfg.Kafka.Brokers); err != nil {
			return err
		}
		if a.cfg.Kafka.CreateTopics {
			if err := a.producer.EnsureTopics(ctx, 1, 1, a.cfg.Kafka.AuditTopic, a.cfg.Kafka.UserEventsTopic); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *app) secretProcessor() (*secrets.Processor, error) {
	c, generated, err := cipher.NewFromHex(a.cfg.Vault.Key, a.cfg.Vault.KeyVersion)
	if err != nil {
		return nil, err
	}
	var store vault.Store = vaultstore.NewInMemoryStore()
	if a.cfg.Vault.Backend == config.BackendPostgres {
		if a.pg == nil {
			return nil, errors.New("postgres secret vault selected but DATABASE_URL is empty")
		}
		if generated {
			return nil, errors.New("SECRET_VAULT_KEY is required for the postgres secret vault")
		}
		store = vaultstore.NewPostgres(a.pg.DB)
	}
	if generated {
		a.logger.Warn("using an ephemeral secret vault key; secrets will not survive a restart")
	}
	return secrets.NewProcessor(vault.New(store, c, vault.WithLogger(a.logger)), a.logger), nil
}

func (a *app) auditPublisher(ctx context.Context) error {
	var store audit.Store = auditmemory.NewInMemoryStore()
	if a.producer != nil {
		store = auditkafka.New(a.producer, a.cfg.Kafka.AuditTopic)
	}
	a.audit = publisher.NewPublisher(store,
		publisher.WithAsyncBuffer(1024),
		publisher.WithLogger(a.logger),
	)
	a.logger.InfoContext(ctx, "audit publisher ready", "kafka", a.producer != nil)
	return nil
}

func (a *app) claimStores(ctx context.Context) (*registry.Registry[idvstore.Store], error) {
	stores := registry.New[idvstore.Store]("claim store")
	if err := stores.Register(config.BackendMemory, idvmemory.New()); err != nil {
		return nil, err
	}
	if a.pg != nil {
		if err := stores.Register(config.BackendPostgres, idvpostgres.New(a.pg.DB)); err != nil {
			return nil, err
		}
	}
	if a.mongo != nil {
		ms := idvmongo.New(a.mongo.Collection())
		if err := ms.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("ensure claim indexes: %w", err)
		}
		if err := stores.Register(config.BackendMongo, ms); err != nil {
			return nil, err
		}
	}
	return stores, nil
}

func (a *app) router() http.Handler {
	jwt := jwttoken.NewJWTService(a.cfg.Server.JWTSigningKey, a.cfg.Server.JWTIssuer, a.cfg.Server.JWTAudience)

	r := chi.NewRouter()
	r.Use(request.RequestID, request.Time, request.Logger(a.logger))
	r.Get("/health", a.handleHealth)
	r.Handle("/metrics", platformmetrics.Handler())
	r.Route("/api/idv/v1", func(r chi.Router) {
		r.Use(authmw.RequireTenant(jwttoken.NewJWTServiceAdapter(jwt), a.logger))
		idvphandler.New(a.providers, a.logger).Register(r)
		idvhandler.New(a.claims, a.logger).Register(r)
	})
	return r
}

func (a *app) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	checks := map[string]string{}
	status := http.StatusOK
	check := func(name string, err error) {
		if err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			return
		}
		checks[name] = "ok"
	}
	if a.pg != nil {
		check("postgres", a.pg.Health(ctx))
	}
	if a.mongo != nil {
		check("mongo", a.mongo.Health(ctx))
	}
	if a.redis != nil {
		check("redis", a.redis.Health(ctx))
	}
	httputil.WriteJSON(w, status, checks)
}

// userEventConsumer returns nil when no brokers are configured.
func (a *app) userEventConsumer() (*consumer.Consumer, error) {
	if len(a.cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	h := listener.New(a.claims, a.users, a.logger, listener.WithMetrics(a.idvMetric))
	return consumer.New(consumer.Config{
		Brokers: a.cfg.Kafka.Brokers,
		Group:   a.cfg.Kafka.ConsumerGroup,
		Topics:  []string{a.cfg.Kafka.UserEventsTopic},
	}, h, a.logger)
}

func (a *app) close(ctx context.Context) {
	if a.audit != nil {
		a.audit.Close()
	}
	if a.producer != nil {
		a.producer.Close()
	}
	if a.providerCache != nil {
		a.providerCache.Close()
	}
	if a.claimCache != nil {
		a.claimCache.Close()
	}
	if a.mongo != nil {
		if err := a.mongo.Close(ctx); err != nil {
			a.logger.Warn("mongo disconnect failed", "error", err)
		}
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.pg != nil {
		_ = a.pg.Close()
	}
}
