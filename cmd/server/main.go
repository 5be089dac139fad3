package main

import (
	"fmt"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"retracker/server/config"
	"retracker/server/internal/api"
	"retracker/server/internal/database"
	"retracker/server/internal/service"
	"retracker/server/internal/store"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	db, err := database.NewDatabase(cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	logger.Info("Running database migrations...")
	if err := db.RunMigrations(); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}

	propertyStore := store.NewPropertyStore(db.DB(), logger)
	propertyService := service.NewPropertyService(propertyStore, logger)
	handler := api.NewHandler(propertyService, db, logger,
		time.Duration(cfg.Server.RequestTimeout)*time.Second)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	api.SetupRoutes(router, handler)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Infof("Starting server on %s", addr)
	if err := router.Run(addr); err != nil {
		logger.WithError(err).Fatal("Server failed to start")
	}
}
