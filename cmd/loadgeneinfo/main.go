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
	"genes-api/models"
	"genes-api/services"
)

// loadgeneinfo liest ein gene_info-File von NCBI Entrez und gleicht die
// Gene eines Organismus mit dem Datenbestand ab, z.B.:
//
//	wget -N ftp://ftp.ncbi.nih.gov/gene/DATA/GENE_INFO/Mammalia/Homo_sapiens.gene_info.gz
//	gunzip Homo_sapiens.gene_info.gz
//	loadgeneinfo --geneinfo-file=Homo_sapiens.gene_info --taxonomy-id=9606
func main() {
	var (
		geneinfoFile   string
		taxonomyID     string
		giTaxID        string
		symbolCol      int
		systematicCol  int
		aliasCol       int
		systematicXRDB string
	)
	flag.StringVar(&geneinfoFile, "geneinfo-file", "", "gene_info-File von NCBI Entrez")
	flag.StringVar(&taxonomyID, "taxonomy-id", "", "NCBI Taxonomy-ID des Organismus")
	flag.StringVar(&giTaxID, "gi-tax-id", "", "alternative Taxonomy-ID im Feed (z.B. für S. cerevisiae)")
	flag.IntVar(&symbolCol, "symbol-col", 2, "Spalte des Symbols")
	flag.IntVar(&systematicCol, "systematic-col", 3, "Spalte des systematischen Namens")
	flag.IntVar(&aliasCol, "alias-col", 4, "Spalte der Aliase")
	flag.StringVar(&systematicXRDB, "systematic-xrdb", "",
		"optional: Crossrefdb, in die systematische IDs als xrids geschrieben werden (Pseudomonas)")
	flag.Parse()

	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	if geneinfoFile == "" || taxonomyID == "" {
		logging.Fatal("Both --geneinfo-file and --taxonomy-id are required")
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
	if err := db.Where("taxonomy_id = ?", taxonomyID).First(&org).Error; err != nil {
		logging.Fatal("Organism not found; add it before importing genes",
			zap.String("taxonomy_id", taxonomyID), zap.Error(err))
	}

	fh, err := os.Open(geneinfoFile)
	if err != nil {
		logging.Fatal("Couldn't open geneinfo file", zap.String("file", geneinfoFile), zap.Error(err))
	}
	defer fh.Close()

	cols := loaders.ColumnConfig{SymbolCol: symbolCol, SystematicCol: systematicCol, AliasCol: aliasCol}
	records, err := loaders.ParseGeneInfo(fh, cols)
	if err != nil {
		logging.Fatal("Couldn't parse geneinfo file", zap.String("file", geneinfoFile), zap.Error(err))
	}

	reconciler := services.NewReconciler(cfg, db, logging)
	stats, err := reconciler.ImportGeneInfo(&org, records, services.ImportOptions{
		GITaxID:        giTaxID,
		SystematicXRDB: systematicXRDB,
	})
	if err != nil {
		logging.Fatal("gene_info import failed", zap.Error(err))
	}

	logging.Info("gene_info import succeeded",
		zap.Int("found", stats.Found),
		zap.Int("updated", stats.Updated),
		zap.Int("created", stats.Created),
		zap.Int("obsoleted", stats.Obsoleted))
}
