package main

import (
	"flag"
	"log"
	"os"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"genes-api/config"
	"genes-api/loaders"
	"genes-api/services"
)

// loaduniprot lädt UniProtKB-Identifier in den Bestand. Vorher müssen die
// Entrez- und Ensembl-Identifier geladen sein. Das idmapping-File ist groß;
// vorher mit zgrep auf die relevanten Zeilen filtern:
//
//	zgrep -e "GeneID" -e "Ensembl" idmapping.dat.gz > uniprot_entrez_ensembl.txt
//	loaduniprot --uniprot-file=uniprot_entrez_ensembl.txt
func main() {
	var uniprotFile string
	flag.StringVar(&uniprotFile, "uniprot-file", "", "gefiltertes idmapping-File von UniProt")
	flag.Parse()

	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	if uniprotFile == "" {
		logging.Fatal("--uniprot-file is required")
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

	fh, err := os.Open(uniprotFile)
	if err != nil {
		logging.Fatal("Couldn't open uniprot file", zap.String("file", uniprotFile), zap.Error(err))
	}
	defer fh.Close()

	mappings, err := loaders.ParseUniProt(fh)
	if err != nil {
		logging.Fatal("Couldn't parse uniprot file", zap.String("file", uniprotFile), zap.Error(err))
	}

	importer := services.NewXRefImporter(db, logging)
	stats, err := importer.ImportUniProt(mappings)
	if err != nil {
		logging.Fatal("UniProt import failed", zap.Error(err))
	}

	logging.Info("UniProt import succeeded",
		zap.Int("created", stats.Created),
		zap.Int("updated", stats.Updated),
		zap.Int("skipped", stats.Skipped))
}
