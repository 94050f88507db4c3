package models

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Organism{}, &Gene{}, &CrossRefDB{}, &CrossRef{}))
	return db
}

func TestGeneSymbol(t *testing.T) {
	tests := []struct {
		name     string
		gene     Gene
		expected string
	}{
		{"standard name wins", Gene{StandardName: "TP53", SystematicName: "7157"}, "TP53"},
		{"falls back to systematic", Gene{StandardName: "", SystematicName: "YGR094W"}, "YGR094W"},
		{"blank standard counts as empty", Gene{StandardName: "   ", SystematicName: "YGR094W"}, "YGR094W"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.gene.Symbol())
		})
	}
}

func TestGeneRequiresName(t *testing.T) {
	db := openTestDB(t)
	org := Organism{TaxonomyID: "9606", ScientificName: "Homo sapiens", Slug: "h-sapiens"}
	require.NoError(t, db.Create(&org).Error)

	tests := []struct {
		name    string
		gene    Gene
		wantErr error
	}{
		{"both names blank", Gene{EntrezID: 1, OrganismID: org.ID}, ErrGeneUnnamed},
		{"whitespace only", Gene{EntrezID: 2, OrganismID: org.ID, StandardName: "  ", SystematicName: "\t"}, ErrGeneUnnamed},
		{"standard name alone", Gene{EntrezID: 3, OrganismID: org.ID, StandardName: "TP53"}, nil},
		{"systematic name alone", Gene{EntrezID: 4, OrganismID: org.ID, SystematicName: "YGR094W"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := db.Create(&tt.gene).Error
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGeneRequiresNameOnUpdate(t *testing.T) {
	db := openTestDB(t)
	org := Organism{TaxonomyID: "9606", ScientificName: "Homo sapiens", Slug: "h-sapiens"}
	require.NoError(t, db.Create(&org).Error)

	gene := Gene{EntrezID: 7157, OrganismID: org.ID, StandardName: "TP53"}
	require.NoError(t, db.Create(&gene).Error)

	// Ein Update darf die Namens-Invariante nicht aushebeln.
	gene.StandardName = ""
	gene.SystematicName = ""
	assert.ErrorIs(t, db.Save(&gene).Error, ErrGeneUnnamed)
}

func TestCrossRefDBRequiresName(t *testing.T) {
	db := openTestDB(t)
	assert.ErrorIs(t, db.Create(&CrossRefDB{Name: "  ", URL: "http://example.org/_REPL_"}).Error, ErrXRDBUnnamed)
	assert.NoError(t, db.Create(&CrossRefDB{Name: "Ensembl", URL: "http://example.org/_REPL_"}).Error)
}

func TestCrossRefDBResolveURL(t *testing.T) {
	xrdb := CrossRefDB{Name: "Ensembl", URL: "http://www.ensembl.org/Gene/Summary?g=_REPL_"}
	assert.Equal(t, "http://www.ensembl.org/Gene/Summary?g=ENSG00000141510", xrdb.ResolveURL("ENSG00000141510"))

	// Ohne Platzhalter bleibt die URL unverändert.
	plain := CrossRefDB{Name: "Plain", URL: "http://example.org/"}
	assert.Equal(t, "http://example.org/", plain.ResolveURL("XYZ"))
}
