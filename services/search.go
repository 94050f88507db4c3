package services

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"genes-api/config"
	"genes-api/models"
)

// symbolExpr wählt das Symbol eines Gens auf SQL-Ebene: standard_name,
// falls nicht-leer, sonst systematic_name.
const symbolExpr = "CASE WHEN TRIM(standard_name) <> '' THEN standard_name ELSE systematic_name END"

// SearchService implementiert die Volltext- und Autocomplete-Abfragen
// über den Genbestand.
type SearchService struct {
	DB     *gorm.DB
	Logger *zap.Logger

	// Limit ist die Obergrenze pro Abfrage, wenn der Aufrufer keine
	// eigene setzt (GENES_API_RESULT_LIMIT, Default 15).
	Limit int
}

// NewSearchService erstellt eine neue Instanz des SearchService.
func NewSearchService(cfg *config.Config, db *gorm.DB, logger *zap.Logger) *SearchService {
	return &SearchService{DB: db, Logger: logger, Limit: cfg.ResultLimit}
}

// SearchResult bündelt die Treffer eines einzelnen Suchtokens.
type SearchResult struct {
	Search string        `json:"search"`
	Found  []models.Gene `json:"found"`
}

// NormalizeToken bereitet ein Suchtoken auf: Unicode-NFKC und Kleinschrift,
// damit z.B. typographische Varianten aus Copy-Paste nicht leer ausgehen.
func NormalizeToken(s string) string {
	return strings.ToLower(norm.NFKC.String(strings.TrimSpace(s)))
}

// Search führt pro Token eine OR-Suche über Namen, Aliase und Beschreibung
// aus, optional auf einen Organismus beschränkt. Treffer sind absteigend
// nach Relevanz-Gewicht sortiert und auf limit gekappt.
func (s *SearchService) Search(query string, org *models.Organism, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = s.Limit
	}

	tokens := make([]string, 0, 4)
	tokenSeen := make(map[string]bool)
	for _, tok := range strings.Fields(query) {
		tok = NormalizeToken(tok)
		if tok == "" || tokenSeen[tok] {
			continue
		}
		tokenSeen[tok] = true
		tokens = append(tokens, tok)
	}

	results := make([]SearchResult, 0, len(tokens))
	for _, tok := range tokens {
		like := "%" + tok + "%"
		q := s.DB.Preload("CrossRefs").
			Where("LOWER(standard_name) LIKE ? OR LOWER(systematic_name) LIKE ? OR LOWER(aliases) LIKE ? OR LOWER(description) LIKE ?",
				like, like, like, like)
		if org != nil {
			q = q.Where("organism_id = ?", org.ID)
		}

		var genes []models.Gene
		if err := q.Order("weight DESC, id ASC").Limit(limit).Find(&genes).Error; err != nil {
			return nil, fmt.Errorf("search token %q: %w", tok, err)
		}
		if genes == nil {
			genes = []models.Gene{}
		}
		results = append(results, SearchResult{Search: tok, Found: genes})
	}
	return results, nil
}

// Autocomplete liefert Gene, deren Symbol mit dem Präfix beginnt, sortiert
// nach (Gewicht absteigend, Symbollänge aufsteigend, Symbol alphabetisch).
// Die Längensortierung ist Absicht: kurze passende Namen sollen auch unter
// einer Treffer-Obergrenze erreichbar bleiben.
func (s *SearchService) Autocomplete(prefix string, org *models.Organism, limit int) ([]models.Gene, error) {
	if limit <= 0 {
		limit = s.Limit
	}
	prefix = NormalizeToken(prefix)
	if prefix == "" {
		return []models.Gene{}, nil
	}

	q := s.DB.Where("LOWER("+symbolExpr+") LIKE ?", prefix+"%")
	if org != nil {
		q = q.Where("organism_id = ?", org.ID)
	}

	var genes []models.Gene
	err := q.Order("weight DESC, LENGTH(" + symbolExpr + ") ASC, " + symbolExpr + " ASC").
		Limit(limit).Find(&genes).Error
	if err != nil {
		return nil, fmt.Errorf("autocomplete %q: %w", prefix, err)
	}
	if genes == nil {
		genes = []models.Gene{}
	}
	s.Logger.Debug("Autocomplete ausgeführt",
		zap.String("prefix", prefix), zap.Int("hits", len(genes)))
	return genes, nil
}
