package models

// Organism repräsentiert einen Organismus, dem alle Gene zugeordnet sind.
type Organism struct {
	ID             uint   `json:"id" gorm:"primaryKey"`
	TaxonomyID     string `json:"taxonomy_id" gorm:"uniqueIndex;not null"` // NCBI Taxonomy-ID, z.B. "9606"
	CommonName     string `json:"common_name"`
	ScientificName string `json:"scientific_name" gorm:"index"`
	Slug           string `json:"slug" gorm:"uniqueIndex"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (Organism) TableName() string {
	return "organisms"
}
