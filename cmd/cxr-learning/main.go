package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"cxr-learning/internal/config"
	httpapi "cxr-learning/internal/http"
	"cxr-learning/internal/knowledge"
	"cxr-learning/internal/logger"
	"cxr-learning/internal/service"
	"cxr-learning/internal/session"
	"cxr-learning/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "cxr-learning")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	kb, err := knowledge.LoadFile(cfg.KnowledgeFile)
	if err != nil {
		log.Fatal("Failed to load knowledge base", zap.String("file", cfg.KnowledgeFile), zap.Error(err))
	}
	log.Info("Knowledge base loaded",
		zap.String("version", kb.Version),
		zap.Int("cases", len(kb.Cases)),
		zap.Int("patterns", len(kb.Patterns)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 会话存储：memory（单进程），redis / postgres（多实例共享）
	var kv store.KV
	var closeKV func() error
	switch cfg.Session.Backend {
	case config.BackendRedis:
		redisClient, err := store.NewRedisClient(ctx, store.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		kv = store.NewRedisKV(redisClient)
		closeKV = redisClient.Close
	case config.BackendPostgres:
		db, err := store.NewPostgresDB(ctx, store.PostgresOptions{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			Database: cfg.Database.Name,
			SSLMode:  cfg.Database.SSLMode,
			MaxConns: cfg.Database.MaxConns,
			MaxIdle:  cfg.Database.MaxIdle,
		})
		if err != nil {
			log.Fatal("Failed to connect to database", zap.String("host", cfg.Database.Host), zap.Error(err))
		}
		pg := store.NewPostgresKV(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Fatal("Failed to prepare session table", zap.Error(err))
		}
		go purgeExpired(ctx, pg, 10*time.Minute, log)
		kv = pg
		closeKV = db.Close
	default:
		mem := store.NewMemoryKV()
		go purgeExpired(ctx, mem, time.Minute, log)
		kv = mem
	}

	sessionStore := session.NewStore(kv,
		session.WithKeyPrefix(cfg.Session.KeyPrefix),
		session.WithTTL(cfg.Session.TTL),
	)
	if n, err := sessionStore.Count(ctx); err == nil {
		log.Info("Session store ready",
			zap.String("backend", cfg.Session.Backend),
			zap.Duration("ttl", cfg.Session.TTL),
			zap.Int("active_sessions", n),
		)
	} else {
		log.Warn("Failed to count sessions", zap.Error(err))
	}

	svc := service.New(kb, log, service.WithMaxImagePixels(cfg.HTTP.MaxImagePixels))
	sessions := httpapi.NewSessionManager(sessionStore, log)
	api := httpapi.NewAPIHandler(svc, kb, sessions, cfg.HTTP.MaxUploadBytes, log)
	pages, err := httpapi.NewPageHandler(svc, kb, sessions, cfg.HTTP.MaxUploadBytes, log)
	if err != nil {
		log.Fatal("Failed to parse page templates", zap.Error(err))
	}

	router := httpapi.NewRouter(log)
	router.RegisterHealthRoutes()
	router.RegisterAPIRoutes(api)
	router.RegisterPageRoutes(pages)

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		cancel()
	case err := <-errCh:
		if err != nil {
			log.Error("HTTP server stopped", zap.Error(err))
		}
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	if closeKV != nil {
		_ = closeKV()
	}
}

// expiringKV 自身不会主动过期的后端（PostgreSQL、进程内 map）
type expiringKV interface {
	Purge(ctx context.Context) (int64, error)
}

// purgeExpired 定期清理过期会话
func purgeExpired(ctx context.Context, kv expiringKV, every time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := kv.Purge(ctx)
			if err != nil {
				log.Warn("Failed to purge expired sessions", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Info("Expired sessions purged", zap.Int64("count", n))
			}
		}
	}
}
