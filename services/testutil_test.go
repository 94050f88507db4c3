package services

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"genes-api/models"
)

// openTestDB öffnet eine In-Memory-Datenbank mit migriertem Schema.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Organism{},
		&models.Gene{},
		&models.CrossRefDB{},
		&models.CrossRef{},
	))
	return db
}

func createOrganism(t *testing.T, db *gorm.DB, taxID, scientificName, slug string) *models.Organism {
	t.Helper()
	org := models.Organism{TaxonomyID: taxID, ScientificName: scientificName, Slug: slug}
	require.NoError(t, db.Create(&org).Error)
	return &org
}

func createXRDB(t *testing.T, db *gorm.DB, name, url string) *models.CrossRefDB {
	t.Helper()
	xrdb := models.CrossRefDB{Name: name, URL: url}
	require.NoError(t, db.Create(&xrdb).Error)
	return &xrdb
}

func createGene(t *testing.T, db *gorm.DB, gene *models.Gene) *models.Gene {
	t.Helper()
	require.NoError(t, db.Create(gene).Error)
	return gene
}

func createXRef(t *testing.T, db *gorm.DB, xrdb *models.CrossRefDB, xrid string, geneID uint) {
	t.Helper()
	require.NoError(t, db.Create(&models.CrossRef{CrossRefDBID: xrdb.ID, XRID: xrid, GeneID: geneID}).Error)
}
