package main

import (
	"context"
	"net"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"github.com/example/tubesocial/internal/platform/auth"
	"github.com/example/tubesocial/internal/platform/config"
	"github.com/example/tubesocial/internal/platform/db"
	"github.com/example/tubesocial/internal/platform/events"
	"github.com/example/tubesocial/internal/platform/httpserver"
	"github.com/example/tubesocial/internal/platform/logging"
	"github.com/example/tubesocial/internal/platform/media"
	"github.com/example/tubesocial/internal/platform/natsconn"
	"github.com/example/tubesocial/internal/platform/run"
	"github.com/example/tubesocial/services/comments/internal/catalog"
	"github.com/example/tubesocial/services/comments/internal/comments"
	commentsconfig "github.com/example/tubesocial/services/comments/internal/config"
	"github.com/example/tubesocial/services/comments/internal/grpcapi"
	"github.com/example/tubesocial/services/comments/internal/handlers"
	"github.com/example/tubesocial/services/comments/internal/store"
	"github.com/example/tubesocial/services/comments/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()
	log = log.With(zap.String("service", cfg.ServiceName))

	svcCfg, err := commentsconfig.Load(cfg.IsProduction())
	if err != nil {
		log.Error("config", zap.Error(err))
		run.Exit(1)
	}

	var closers run.Closers
	exit := func(code int) {
		closers.Close()
		_ = log.Sync()
		run.Exit(code)
	}

	ctx := context.Background()
	backend, err := openBackend(ctx, svcCfg, log)
	if err != nil {
		log.Error("store init", zap.String("backend", svcCfg.StoreBackend), zap.Error(err))
		exit(1)
	}
	closers.Add(backend.close)

	parents, evictors, closeCache := withExistenceCache(backend.parents, svcCfg, log)
	closers.Add(closeCache)

	var publisher *events.Publisher
	var js nats.JetStreamContext
	if svcCfg.NATSURL != "" {
		nc, err := natsconn.Connect(natsconn.Options{URL: svcCfg.NATSURL, Name: cfg.ServiceName, Logger: log})
		if err != nil {
			if cfg.IsProduction() {
				log.Error("nats is required in production", zap.Error(err))
				exit(1)
			}
			log.Warn("nats unavailable, lifecycle events disabled", zap.Error(err))
		} else {
			closers.Add(nc.Close)
			if js, err = nc.JetStream(); err != nil {
				log.Warn("jetstream unavailable, lifecycle events disabled", zap.Error(err))
			} else {
				publisher = events.New(js, log)
				if err := publisher.EnsureStream(); err != nil {
					log.Warn("ensure COMMENTS stream", zap.Error(err))
				}
			}
		}
	}

	svc := comments.NewService(comments.Options{
		Store:   backend.store,
		Parents: parents,
		Events:  publisher,
		Logger:  log,
	})

	var uploader handlers.MediaUploader
	if svcCfg.Media.Enabled() {
		uploader = media.NewUploader(svcCfg.Media, log)
		log.Info("media uploads enabled", zap.String("cloud", svcCfg.Media.CloudName))
	}

	r := chi.NewRouter()
	httpserver.SetupRouter(r, httpserver.RouterConfig{
		ReadyFunc:      func() error { return svc.Ping(context.Background()) },
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Logger:         log,
	})
	handlers.Routes{
		Comments:       svc,
		Verifier:       auth.JWTVerifier{Secret: []byte(svcCfg.JWTSecret), Issuer: svcCfg.JWTIssuer},
		Media:          uploader,
		MaxUploadBytes: svcCfg.MaxUploadBytes,
		Logger:         log,
	}.Register(r)

	srv := httpserver.New(httpserver.Options{Addr: cfg.HTTP.Addr, ServiceName: cfg.ServiceName, Logger: log, Router: r})

	lis, err := net.Listen("tcp", svcCfg.GRPCAddr)
	if err != nil {
		log.Error("grpc listen", zap.Error(err))
		exit(1)
	}
	grpcSrv := grpc.NewServer()
	grpcapi.RegisterCommentServiceServer(grpcSrv, &grpcapi.Server{Comments: svc, Logger: log})
	if !cfg.IsProduction() {
		reflection.Register(grpcSrv)
	}
	go func() {
		log.Info("grpc server starting", zap.String("addr", svcCfg.GRPCAddr))
		if err := grpcSrv.Serve(lis); err != nil {
			log.Error("grpc serve", zap.Error(err))
		}
	}()

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		if js != nil && len(evictors) > 0 {
			consumer := worker.NewCatalogConsumer(worker.Options{Evictors: evictors, Logger: log})
			if err := consumer.Start(ctx, js); err != nil {
				log.Warn("catalog consumer not started", zap.Error(err))
			}
		}
		return srv.Start()
	})

	runner.GracefulGRPC(grpcSrv)
	runner.Graceful("http", srv.Shutdown)
	log.Info("exit", zap.Int("code", code))
	exit(code)
}

// backend bundles the comment store with the parent lookups that match it.
type backend struct {
	store   store.CommentStore
	parents catalog.Checkers
	close   func()
}

func openBackend(ctx context.Context, cfg commentsconfig.Config, log *zap.Logger) (backend, error) {
	opts := db.Options{
		MaxConns:       int32(cfg.DBMaxConns),
		ConnectRetries: uint64(cfg.ConnectRetries),
		RetryBaseDelay: cfg.RetryBaseDelay,
	}
	switch cfg.StoreBackend {
	case commentsconfig.BackendPostgres:
		pool, err := db.Open(ctx, cfg.DatabaseURL, opts)
		if err != nil {
			return backend{}, err
		}
		if err := db.Migrate(ctx, pool, log); err != nil {
			pool.Close()
			return backend{}, err
		}
		log.Info("comments store: postgres")
		return backend{
			store: store.NewPostgresCommentStore(pool),
			parents: catalog.Checkers{
				store.ParentVideo: catalog.NewPostgresVideoChecker(pool),
				store.ParentTweet: catalog.NewPostgresTweetChecker(pool),
			},
			close: pool.Close,
		}, nil

	case commentsconfig.BackendMongo:
		client, err := db.OpenMongo(ctx, cfg.MongoURI, opts)
		if err != nil {
			return backend{}, err
		}
		ms := store.NewMongoCommentStore(client, cfg.MongoDatabase)
		if err := ms.EnsureIndexes(ctx); err != nil {
			log.Warn("mongo indexes", zap.Error(err))
		}
		database := client.Database(cfg.MongoDatabase)
		log.Info("comments store: mongo", zap.String("database", cfg.MongoDatabase))
		return backend{
			store: ms,
			parents: catalog.Checkers{
				store.ParentVideo: catalog.NewMongoChecker(database, "videos"),
				store.ParentTweet: catalog.NewMongoChecker(database, "tweets"),
			},
			close: func() { _ = client.Disconnect(context.Background()) },
		}, nil
	}

	log.Warn("using in-memory comment store (development only); parent existence is not checked")
	return backend{store: store.NewInMemoryCommentStore(), close: func() {}}, nil
}

// withExistenceCache wraps every parent checker in a Redis cache when
// REDIS_URL is set and returns the matching evictors for the catalog consumer.
func withExistenceCache(parents catalog.Checkers, cfg commentsconfig.Config, log *zap.Logger) (catalog.Checkers, map[store.ParentKind]worker.Evictor, func()) {
	noop := func() {}
	if strings.TrimSpace(cfg.RedisURL) == "" || len(parents) == 0 {
		return parents, nil, noop
	}
	cache, err := catalog.NewRedisCache(cfg.RedisURL)
	if err != nil {
		log.Warn("redis url invalid, parent cache disabled", zap.Error(err))
		return parents, nil, noop
	}
	if err := cache.Ping(context.Background()); err != nil {
		log.Warn("redis unavailable, parent cache disabled", zap.Error(err))
		_ = cache.Close()
		return parents, nil, noop
	}

	cached := make(catalog.Checkers, len(parents))
	evictors := make(map[store.ParentKind]worker.Evictor, len(parents))
	for kind, checker := range parents {
		c := catalog.NewCached(kind, checker, cache, cfg.ExistsCacheTTL, log)
		cached[kind] = c
		evictors[kind] = c
	}
	log.Info("parent existence cache: redis", zap.Duration("ttl", cfg.ExistsCacheTTL))
	return cached, evictors, func() { _ = cache.Close() }
}
