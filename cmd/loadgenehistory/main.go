package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"genes-api/config"
	"genes-api/loaders"
	"genes-api/models"
	"genes-api/services"
)

// loadgenehistory liest ein gene_history-File von NCBI und markiert
// eingestellte Entrez-IDs als obsolete (bzw. legt sie als obsolete Gene
// an), z.B.:
//
//	wget ftp://ftp.ncbi.nih.gov/gene/DATA/gene_history.gz && gunzip gene_history.gz
//	loadgenehistory --gene-history-file=gene_history --tax-id=208964
//
// Die Spalten-Flags sind 1-basiert, wie in der NCBI-Dokumentation.
func main() {
	var (
		historyFile string
		taxID       string
		taxIDCol    int
		idCol       int
		symbolCol   int
	)
	flag.StringVar(&historyFile, "gene-history-file", "", "gene_history-File von NCBI")
	flag.StringVar(&taxID, "tax-id", "", "NCBI Taxonomy-ID des Organismus")
	flag.IntVar(&taxIDCol, "tax-id-col", 1, "Spalte der tax_id (1-basiert)")
	flag.IntVar(&idCol, "discontinued-id-col", 3, "Spalte der Discontinued_GeneID (1-basiert)")
	flag.IntVar(&symbolCol, "discontinued-symbol-col", 4, "Spalte des Discontinued_Symbol (1-basiert)")
	flag.Parse()

	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	if historyFile == "" {
		logging.Fatal("--gene-history-file is required")
	}
	if strings.TrimSpace(taxID) == "" {
		logging.Fatal("Input tax_id is blank")
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

	var org models.Organism
	if err := db.Where("taxonomy_id = ?", taxID).First(&org).Error; err != nil {
		logging.Fatal("Organism not found; add it before importing gene history",
			zap.String("tax_id", taxID), zap.Error(err))
	}

	fh, err := os.Open(historyFile)
	if err != nil {
		logging.Fatal("Couldn't open gene_history file", zap.String("file", historyFile), zap.Error(err))
	}
	defer fh.Close()

	cols := loaders.HistoryColumns{TaxIDCol: taxIDCol - 1, IDCol: idCol - 1, SymbolCol: symbolCol - 1}
	records, err := loaders.ParseGeneHistory(fh, cols)
	if err != nil {
		logging.Fatal("Couldn't parse gene_history file", zap.String("file", historyFile), zap.Error(err))
	}

	reconciler := services.NewReconciler(cfg, db, logging)
	stats, err := reconciler.ImportGeneHistory(&org, records)
	if err != nil {
		logging.Fatal("Gene history import failed", zap.Error(err))
	}

	logging.Info("Gene history data import succeeded",
		zap.Int("flagged", stats.Flagged),
		zap.Int("created", stats.Created))
}
