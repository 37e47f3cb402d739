package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/identra/identra/internal/api/http/cookie"
	"github.com/identra/identra/internal/api/http/httpctx"
	"github.com/identra/identra/internal/api/http/router"
	"github.com/identra/identra/internal/config"
	"github.com/identra/identra/internal/logger"
	"github.com/identra/identra/internal/model"
	"github.com/identra/identra/internal/oauth"
	"github.com/identra/identra/internal/repository/postgres"
	"github.com/identra/identra/internal/server"
	"github.com/identra/identra/internal/service"
	"github.com/identra/identra/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	_ = godotenv.Load()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	db, err := postgres.NewConection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	userRepo := postgres.NewUserRepository(db)
	refreshTokenRepo := postgres.NewRefreshTokenRepository(db)

	tokenManager, err := token.NewJWT(
		cfg.JWT.Secret,
		time.Duration(cfg.JWT.AccessTTLSeconds)*time.Second,
		time.Duration(cfg.JWT.RefreshTTLSeconds)*time.Second,
		cfg.JWT.Issuer,
	)
	if err != nil {
		logger.Fatal("failed to initialize token manager", "error", err)
	}

	tokenService := service.NewTokenLifecycle(tokenManager, refreshTokenRepo, userRepo, logger)
	authService := service.NewAuth(userRepo, tokenService, logger)
	userService := service.NewUser(userRepo, logger)

	providers := oauth.NewRegistry()
	cookies := cookie.NewManager(cfg.Cookie)
	ctxMgr := httpctx.NewManager()

	r := router.New(authService, userService, tokenService, tokenManager, userRepo, providers, cookies, ctxMgr, logger)
	httpServer := server.NewHTTPServer(r.Register(), fmt.Sprintf(":%s", cfg.HTTP.Port))

	var sl model.SecurityLayer

	if cfg.HTTP.EnableHTTPS {
		sl = server.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address())
		err := s.Start(sl)
		if err != nil {
			logger.Error("failed to start server", "error", err)
		}
	}(httpServer)

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", httpServer.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
