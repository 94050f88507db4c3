package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"genes-api/loaders"
	"genes-api/models"
)

func newTestXRefImporter(db *gorm.DB) *XRefImporter {
	return NewXRefImporter(db, zap.NewNop())
}

func TestUpsertCrossRefDB(t *testing.T) {
	db := openTestDB(t)
	imp := newTestXRefImporter(db)

	xrdb, err := imp.UpsertCrossRefDB("Ensembl", "http://www.ensembl.org/Gene/Summary?g=_REPL_")
	require.NoError(t, err)
	assert.NotZero(t, xrdb.ID)

	// Gleicher Name mit neuer URL aktualisiert den Eintrag.
	updated, err := imp.UpsertCrossRefDB("Ensembl", "http://ensembl.example.org/_REPL_")
	require.NoError(t, err)
	assert.Equal(t, xrdb.ID, updated.ID)
	assert.Equal(t, "http://ensembl.example.org/_REPL_", updated.URL)

	var count int64
	require.NoError(t, db.Model(&models.CrossRefDB{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUpsertCrossRefDBValidation(t *testing.T) {
	db := openTestDB(t)
	imp := newTestXRefImporter(db)

	tests := []struct {
		name string
		url  string
	}{
		{"", "http://example.org/_REPL_"},
		{"   ", "http://example.org/_REPL_"},
		{"Ensembl", ""},
		{"Ensembl", "  "},
	}
	for _, tt := range tests {
		_, err := imp.UpsertCrossRefDB(tt.name, tt.url)
		require.Error(t, err)
	}

	var count int64
	require.NoError(t, db.Model(&models.CrossRefDB{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestImportUniProt(t *testing.T) {
	db := openTestDB(t)
	org := createOrganism(t, db, "6239", "Caenorhabditis elegans", "c-elegans")
	createXRDB(t, db, "UniProtKB", "http://www.uniprot.org/uniprot/_REPL_")
	ensembl := createXRDB(t, db, "Ensembl", "_REPL_")

	g1 := createGene(t, db, &models.Gene{EntrezID: 13205076, OrganismID: org.ID, SystematicName: "CELE_2L52.1"})
	g2 := createGene(t, db, &models.Gene{EntrezID: 13213983, OrganismID: org.ID, SystematicName: "CELE_4R79.2"})
	createXRef(t, db, ensembl, "ENSG0001", g2.ID)

	imp := newTestXRefImporter(db)
	stats, err := imp.ImportUniProt([]loaders.UniProtMapping{
		{UniProtID: "G4SLH0", Type: "GeneID", Value: "13205076"},
		{UniProtID: "G4SMP2", Type: "Ensembl", Value: "ENSG0001"},
		{UniProtID: "G4SMP2", Type: "UniGene", Value: "Cel.7967"}, // irrelevanter Typ
		{UniProtID: "XXXXXX", Type: "GeneID", Value: "999999"},    // unbekannte Entrez-ID
		{UniProtID: "YYYYYY", Type: "Ensembl", Value: "ENSG0999"}, // unbekannte Ensembl-ID
	})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Created)
	assert.Equal(t, 0, stats.Updated)
	assert.Equal(t, 3, stats.Skipped)

	var xr models.CrossRef
	require.NoError(t, db.Where("xrid = ?", "G4SLH0").First(&xr).Error)
	assert.Equal(t, g1.ID, xr.GeneID)
	xr = models.CrossRef{}
	require.NoError(t, db.Where("xrid = ?", "G4SMP2").First(&xr).Error)
	assert.Equal(t, g2.ID, xr.GeneID)
}

func TestImportUniProtRequiresRegisteredDB(t *testing.T) {
	db := openTestDB(t)
	imp := newTestXRefImporter(db)

	_, err := imp.ImportUniProt([]loaders.UniProtMapping{
		{UniProtID: "G4SLH0", Type: "GeneID", Value: "13205076"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UniProtKB is not registered")
}

func TestImportUniProtIdempotent(t *testing.T) {
	db := openTestDB(t)
	org := createOrganism(t, db, "6239", "Caenorhabditis elegans", "c-elegans")
	createXRDB(t, db, "UniProtKB", "_REPL_")
	createGene(t, db, &models.Gene{EntrezID: 13205076, OrganismID: org.ID, SystematicName: "CELE_2L52.1"})

	mappings := []loaders.UniProtMapping{{UniProtID: "G4SLH0", Type: "GeneID", Value: "13205076"}}
	imp := newTestXRefImporter(db)

	_, err := imp.ImportUniProt(mappings)
	require.NoError(t, err)

	stats, err := imp.ImportUniProt(mappings)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Created)
	assert.Equal(t, 0, stats.Updated)

	var count int64
	require.NoError(t, db.Model(&models.CrossRef{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestImportWormBase(t *testing.T) {
	db := openTestDB(t)
	org := createOrganism(t, db, "6239", "Caenorhabditis elegans", "c-elegans")
	wb := createXRDB(t, db, "WormBase", "http://www.wormbase.org/species/c_elegans/gene/_REPL_")
	g1 := createGene(t, db, &models.Gene{EntrezID: 1, OrganismID: org.ID, SystematicName: "CELE_2L52.1"})

	imp := newTestXRefImporter(db)
	stats, err := imp.ImportWormBase([]loaders.WormBasePair{
		{SystematicName: "CELE_2L52.1", WBID: "WBGene00007063"},
		{SystematicName: "CELE_MISSING", WBID: "WBGene00000001"},
	}, "WormBase")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Created)
	assert.Equal(t, 1, stats.Skipped)

	var xr models.CrossRef
	require.NoError(t, db.Where("crossrefdb_id = ? AND xrid = ?", wb.ID, "WBGene00007063").First(&xr).Error)
	assert.Equal(t, g1.ID, xr.GeneID)
}

func TestImportWormBaseReassignsMovedID(t *testing.T) {
	db := openTestDB(t)
	org := createOrganism(t, db, "6239", "Caenorhabditis elegans", "c-elegans")
	wb := createXRDB(t, db, "WormBase", "_REPL_")
	g1 := createGene(t, db, &models.Gene{EntrezID: 1, OrganismID: org.ID, SystematicName: "CELE_2L52.1"})
	g2 := createGene(t, db, &models.Gene{EntrezID: 2, OrganismID: org.ID, SystematicName: "CELE_4R79.2"})
	createXRef(t, db, wb, "WBGene00007063", g1.ID)

	// Die WormBase-ID zeigt jetzt auf ein anderes Gen: umhängen statt duplizieren.
	imp := newTestXRefImporter(db)
	stats, err := imp.ImportWormBase([]loaders.WormBasePair{
		{SystematicName: "CELE_4R79.2", WBID: "WBGene00007063"},
	}, "WormBase")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Updated)

	var xrs []models.CrossRef
	require.NoError(t, db.Where("xrid = ?", "WBGene00007063").Find(&xrs).Error)
	require.Len(t, xrs, 1)
	assert.Equal(t, g2.ID, xrs[0].GeneID)
}

func TestImportWormBaseRequiresRegisteredDB(t *testing.T) {
	db := openTestDB(t)
	imp := newTestXRefImporter(db)

	_, err := imp.ImportWormBase([]loaders.WormBasePair{
		{SystematicName: "CELE_2L52.1", WBID: "WBGene00007063"},
	}, "WormBase")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}
