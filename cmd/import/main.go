package main

import (
	"context"
	"flag"
	"time"

	"go.uber.org/zap"

	"github.com/TheFlashe/diplom-neto/internal/service"
	"github.com/TheFlashe/diplom-neto/pkg/config"
	"github.com/TheFlashe/diplom-neto/pkg/database"
	"github.com/TheFlashe/diplom-neto/pkg/logger"
)

func main() {
	var (
		file    = flag.String("file", "", "path to the YAML feed file")
		owner   = flag.String("owner", "", "email of the shop owner importing the feed")
		timeout = flag.Duration("timeout", 5*time.Minute, "import timeout")
	)
	flag.Parse()

	log := logger.GetLogger()

	if *file == "" || *owner == "" {
		log.Fatal("Both -file and -owner are required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	importer := service.NewImporter(database.GetDB(), log)
	summary, err := importer.ImportFile(ctx, *file, *owner)
	if err != nil {
		log.Fatal("Import failed", zap.String("file", *file), zap.Error(err))
	}

	log.Info("Import finished",
		zap.String("file", *file),
		zap.String("shop", summary.Shop),
		zap.Int("categories", summary.Categories),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("total", summary.Total))
}
