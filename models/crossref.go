package models

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// URLPlaceholder ist der Platzhalter in CrossRefDB-URLs, der durch die
// jeweilige Cross-Referenz-ID ersetzt wird.
const URLPlaceholder = "_REPL_"

// CrossRefDB repräsentiert eine externe Datenbank (z.B. Ensembl, UniProtKB),
// deren Identifier als Cross-Referenzen auf Gene verweisen.
type CrossRefDB struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"uniqueIndex;not null"`
	URL  string `json:"url"` // enthält _REPL_ als Platzhalter für die xrid
}

// ErrXRDBUnnamed wird geliefert, wenn der Name einer Cross-Referenz-Datenbank
// leer ist oder nur aus Whitespace besteht.
var ErrXRDBUnnamed = errors.New("crossrefdb requires a non-blank name")

// TableName gibt den expliziten Tabellennamen für GORM an.
func (CrossRefDB) TableName() string {
	return "crossrefdbs"
}

// BeforeSave lehnt leere Datenbanknamen ab, bevor sie die Datenbank erreichen.
func (d *CrossRefDB) BeforeSave(tx *gorm.DB) error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrXRDBUnnamed
	}
	return nil
}

// CrossRef verknüpft eine externe Identifier-ID (xrid) mit einem Gen.
// Mehrere CrossRefs können auf dasselbe Gen zeigen; die Eindeutigkeit von
// xrid pro (crossrefdb, gene) wird von der Import-Logik sichergestellt.
type CrossRef struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	CrossRefDBID uint       `json:"crossrefdb_id" gorm:"column:crossrefdb_id;index;not null"`
	CrossRefDB   CrossRefDB `json:"-" gorm:"foreignKey:CrossRefDBID"`
	XRID         string     `json:"xrid" gorm:"column:xrid;index;not null"`
	GeneID       uint       `json:"gene_id" gorm:"index;not null"`
	Gene         Gene       `json:"-" gorm:"foreignKey:GeneID"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (CrossRef) TableName() string {
	return "crossrefs"
}

// ResolveURL setzt die xrid in das URL-Template der Datenbank ein.
func (d *CrossRefDB) ResolveURL(xrid string) string {
	return strings.Replace(d.URL, URLPlaceholder, xrid, 1)
}
