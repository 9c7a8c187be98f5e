package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/lanepark/chesshall/internal/archive"
	"github.com/lanepark/chesshall/internal/auth"
	appcfg "github.com/lanepark/chesshall/internal/config"
	"github.com/lanepark/chesshall/internal/domain"
	"github.com/lanepark/chesshall/internal/gateway"
	"github.com/lanepark/chesshall/internal/migrate"
	"github.com/lanepark/chesshall/internal/msgcat"
	"github.com/lanepark/chesshall/internal/notify"
	"github.com/lanepark/chesshall/internal/obslog"
	"github.com/lanepark/chesshall/internal/oracle"
	"github.com/lanepark/chesshall/internal/realtime"
	"github.com/lanepark/chesshall/internal/session"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()

	messages, err := msgcat.New(cfg.MsgOverrideDir)
	if err != nil {
		logger.Fatal("message catalog init failed", zap.Error(err))
	}

	var store session.Store
	if cfg.RedisURL != "" {
		rs, err := session.NewRedisStore(cfg.RedisURL, cfg.SessionTTL)
		if err != nil {
			logger.Fatal("redis store init failed", zap.Error(err))
		}
		store = rs
		logger.Info("session store: redis")
	} else {
		store = session.NewMemoryStore()
		logger.Warn("session store: in-memory, sessions are lost on restart")
	}

	var (
		authRepo    auth.Repository
		archiveRepo *archive.Repository
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("database open failed", zap.Error(err))
		}
		db.SetMaxOpenConns(16)
		db.SetMaxIdleConns(8)
		db.SetConnMaxLifetime(30 * time.Minute)
		defer db.Close()

		mctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := migrate.Up(mctx, db); err != nil {
			cancel()
			logger.Fatal("migrations failed", zap.Error(err))
		}
		cancel()

		authRepo = auth.NewPostgresRepository(db)
		archiveRepo = archive.NewRepository(db)
		logger.Info("database connected, archive enabled")
	} else {
		authRepo = auth.NewMemoryRepository()
		logger.Warn("no DATABASE_URL, users are in-memory and games are not archived")
	}

	authSvc := auth.NewService(authRepo, []byte(cfg.JWTSecret), cfg.TokenTTL)
	mgr := session.NewManager(store, oracle.New(), session.WithJoinCodeLength(cfg.JoinCodeLength))
	notifier := notify.New(cfg.WebhookURL)

	mgr.OnFinish(func(rec *domain.Session) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := archiveRepo.SaveFinished(ctx, rec); err != nil {
			logger.Error("archive save failed",
				zap.String("join_code", rec.JoinCode), zap.Error(err))
		}
		if err := notifier.GameFinished(ctx, session.ToView(rec)); err != nil {
			logger.Error("finish webhook failed",
				zap.String("join_code", rec.JoinCode), zap.Error(err))
		}
	})

	hub := realtime.NewHub(cfg.AllowedOrigins)

	srv := gateway.New(gateway.Options{
		Manager:     mgr,
		AuthService: authSvc,
		Hub:         hub,
		Messages:    messages,
		CookieName:  cfg.CookieName,
		TokenTTL:    cfg.TokenTTL,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(cfg.ListenAddr) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
		return
	}

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
	logger.Info("bye")
}
