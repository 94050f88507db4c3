package models

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Gene repräsentiert ein Gen eines Organismus samt Annotationsdaten.
//
// Die Entrez-ID ist der primäre externe Schlüssel und pro Organismus eindeutig.
// Obsolete Gene werden nie gelöscht, nur markiert, damit historische IDs
// auflösbar bleiben.
type Gene struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	EntrezID   int      `json:"entrezid" gorm:"column:entrezid;uniqueIndex:idx_genes_entrez_org;not null"`
	OrganismID uint     `json:"organism_id" gorm:"uniqueIndex:idx_genes_entrez_org;index;not null"`
	Organism   Organism `json:"-" gorm:"foreignKey:OrganismID"`

	StandardName   string `json:"standard_name"`
	SystematicName string `json:"systematic_name" gorm:"index"`
	Description    string `json:"description" gorm:"type:text"`

	// Aliases ist eine mit Leerzeichen verbundene Liste alternativer Namen.
	Aliases string `json:"aliases" gorm:"type:text"`

	// Weight ist ein Relevanz-Score für die Sortierung von Suchergebnissen.
	Weight   int  `json:"weight" gorm:"index"`
	Obsolete bool `json:"obsolete"`

	CrossRefs []CrossRef `json:"xrids,omitempty" gorm:"foreignKey:GeneID"`
}

// ErrGeneUnnamed wird geliefert, wenn weder standard_name noch
// systematic_name einen nicht-leeren Wert haben.
var ErrGeneUnnamed = errors.New("gene requires a non-blank standard_name or systematic_name")

// TableName gibt den expliziten Tabellennamen für GORM an.
func (Gene) TableName() string {
	return "genes"
}

// Symbol liefert das menschenlesbare Label: standard_name, falls vorhanden,
// sonst systematic_name.
func (g *Gene) Symbol() string {
	if strings.TrimSpace(g.StandardName) != "" {
		return g.StandardName
	}
	return g.SystematicName
}

// BeforeSave erzwingt die Namens-Invariante auf Speicherebene: mindestens
// einer der beiden Namen muss nicht-leer sein (Whitespace zählt als leer).
func (g *Gene) BeforeSave(tx *gorm.DB) error {
	if strings.TrimSpace(g.StandardName) == "" && strings.TrimSpace(g.SystematicName) == "" {
		return ErrGeneUnnamed
	}
	return nil
}
