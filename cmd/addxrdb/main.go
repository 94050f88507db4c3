package main

import (
	"flag"
	"log"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"genes-api/config"
	"genes-api/models"
	"genes-api/services"
)

// addxrdb legt eine Cross-Referenz-Datenbank an oder aktualisiert ihre URL.
// Es muss für jede neue Datenbank aufgerufen werden, bevor deren xrids
// importiert werden können, z.B.:
//
//	addxrdb --name=Ensembl --url='http://www.ensembl.org/Gene/Summary?g=_REPL_'
//	addxrdb --name=MIM --url='http://www.ncbi.nlm.nih.gov/omim/_REPL_'
func main() {
	var name, url string
	flag.StringVar(&name, "name", "", "Name der Cross-Referenz-Datenbank")
	flag.StringVar(&url, "url", "", "URL-Template mit _REPL_ als Platzhalter")
	flag.Parse()

	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

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
	if err := db.AutoMigrate(&models.CrossRefDB{}); err != nil {
		logging.Fatal("Auto-migration failed", zap.Error(err))
	}

	importer := services.NewXRefImporter(db, logging)
	xrdb, err := importer.UpsertCrossRefDB(name, url)
	if err != nil {
		logging.Fatal("Failed to add or update xrdb record", zap.Error(err))
	}
	logging.Info("Crossrefdb gespeichert",
		zap.String("name", xrdb.Name), zap.String("url", xrdb.URL))
}
