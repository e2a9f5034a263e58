package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/angelayejinyi/mfv-labeller/internal/config"
	"github.com/angelayejinyi/mfv-labeller/internal/corpus"
	"github.com/angelayejinyi/mfv-labeller/internal/handler"
	"github.com/angelayejinyi/mfv-labeller/internal/repository"
	"github.com/angelayejinyi/mfv-labeller/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("Starting Labeling Backend...")

	// Load configuration
	cfg, err := config.LoadConfig("configs/config.yml")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Load the sample pool. A missing or empty corpus is fatal: the
	// service cannot assign anything without it.
	idx, err := corpus.Load(cfg.Corpus.CSVPath, logger)
	if err != nil {
		logger.Fatal("Failed to load corpus", zap.Error(err))
	}

	// Initialize repository
	os.MkdirAll(filepath.Dir(cfg.Database.Path), 0755)

	repo, err := repository.NewStudyRepository(cfg.Database.Path, logger)
	if err != nil {
		logger.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	// Initialize service
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	study := service.NewStudy(idx, repo, rng, service.Options{
		OriginalQuota:           cfg.Study.OriginalCount,
		GeneratedQuota:          cfg.Study.GeneratedCount,
		AcceptUnassignedRatings: *cfg.Study.AcceptUnassignedRatings,
	}, logger)

	// Initialize HTTP handler
	apiHandler := handler.NewHandler(study, idx, cfg.Static.Dir, logger)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()

	// Add CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Register routes
	apiHandler.RegisterRoutes(router)

	// Start server
	serverAddr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Info("Server starting", zap.String("address", serverAddr))

	// Graceful shutdown
	srv := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Labeling Backend is running",
		zap.String("port", cfg.Server.Port),
		zap.Int("samples", idx.Len()),
		zap.Int("foundations", len(idx.Foundations())))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
