package main

import (
	"flag"
	"log"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"genes-api/config"
	"genes-api/loaders"
	"genes-api/services"
)

// loadwb lädt das xrefs-File einer WormBase-Release herunter und schreibt
// die WormBase-Identifier als Cross-Referenzen, z.B.:
//
//	loadwb --wb-url=ftp://ftp.wormbase.org/pub/wormbase/releases/WS243/species/c_elegans/PRJNA13758/c_elegans.PRJNA13758.WS243.xrefs.txt.gz
//
// Die WormBase-Crossrefdb muss vorher mit addxrdb registriert worden sein.
func main() {
	var (
		wbURL  string
		dbName string
	)
	flag.StringVar(&wbURL, "wb-url", "", "URL des WormBase-xrefs-Files")
	flag.StringVar(&dbName, "db-name", "WormBase", "Name der Cross-Referenz-Datenbank")
	flag.Parse()

	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	if wbURL == "" {
		logging.Fatal("--wb-url is required")
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.Error(err))
	}

	fetcher := loaders.NewWormBaseFetcher(logging)
	pairs, err := fetcher.FetchXRefs(wbURL)
	if err != nil {
		logging.Fatal("WormBase fetch failed", zap.String("url", wbURL), zap.Error(err))
	}

	importer := services.NewXRefImporter(db, logging)
	stats, err := importer.ImportWormBase(pairs, dbName)
	if err != nil {
		logging.Fatal("WormBase import failed", zap.Error(err))
	}

	logging.Info("WormBase import succeeded",
		zap.Int("created", stats.Created),
		zap.Int("updated", stats.Updated),
		zap.Int("skipped", stats.Skipped))
}
