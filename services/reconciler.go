package services

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"genes-api/config"
	"genes-api/loaders"
	"genes-api/models"
)

// WeightConfig enthält die Faktoren der Relevanz-Heuristik. Die Annahme:
// ein Gen, das in mehr Datenbanken vorkommt oder mehr Aliase hat, ist
// bekannter und wird eher gesucht; protein-kodierende Gene ebenfalls.
// Langfristig könnte man tatsächliche Auswahlhäufigkeiten messen.
type WeightConfig struct {
	XRefFactor          int
	AliasFactor         int
	ProteinCodingFactor int
}

// DefaultWeights liefert die dokumentierten Standardfaktoren (2, 1, 2).
func DefaultWeights() WeightConfig {
	return WeightConfig{XRefFactor: 2, AliasFactor: 1, ProteinCodingFactor: 2}
}

// weightFor berechnet den Relevanz-Score eines Feed-Records.
func (w WeightConfig) weightFor(numXRefs, numAliases int, status string) int {
	weight := w.XRefFactor*numXRefs + w.AliasFactor*numAliases
	if status == "protein-coding" {
		weight *= w.ProteinCodingFactor
	}
	return weight
}

// Reconciler gleicht einen Annotations-Feed gegen den Datenbestand ab.
// Mutationen erfolgen zeilenweise, nicht transaktional über den ganzen
// Feed: ein Teilfehler hinterlässt teilweise angewandten Zustand.
type Reconciler struct {
	DB      *gorm.DB
	Logger  *zap.Logger
	Weights WeightConfig

	// MinOrganismMatches ist die Mindestanzahl passender Feed-Zeilen.
	// Darunter wird der Lauf als Fehlkonfiguration behandelt und bricht
	// ab, bevor irgendetwas geschrieben wird.
	MinOrganismMatches int
}

// NewReconciler erstellt eine neue Instanz des Reconcilers.
func NewReconciler(cfg *config.Config, db *gorm.DB, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		DB:     db,
		Logger: logger,
		Weights: WeightConfig{
			XRefFactor:          cfg.WeightXRefFactor,
			AliasFactor:         cfg.WeightAliasFactor,
			ProteinCodingFactor: cfg.WeightProteinCodingFactor,
		},
		MinOrganismMatches: cfg.MinOrganismMatches,
	}
}

// ImportOptions steuern den gene_info-Import.
type ImportOptions struct {
	// GITaxID ist eine alternative Taxonomy-ID für Organismen, deren
	// NCBI-ID sich geändert hat (z.B. S. cerevisiae).
	GITaxID string

	// SystematicXRDB ist der Name einer Cross-Referenz-Datenbank, in die
	// systematische IDs zusätzlich als xrids geschrieben werden
	// (z.B. PseudoCAP für Pseudomonas).
	SystematicXRDB string
}

// ImportStats fasst die Ergebnisse eines Laufs zusammen.
type ImportStats struct {
	OrganismMatches int
	Found           int
	Updated         int
	Created         int
	Obsoleted       int
	XRefsCreated    int
}

// xrefKey identifiziert ein Cross-Referenz-Tripel im Datenbestand.
type xrefKey struct {
	DBName   string
	XRID     string
	EntrezID int
}

// ImportGeneInfo gleicht einen geparsten gene_info-Feed mit dem Bestand ab:
// neue Entrez-IDs werden angelegt, bekannte nur bei tatsächlichen Änderungen
// aktualisiert, im Feed fehlende Gene als obsolete markiert und wieder
// auftauchende zurückgesetzt. Unbekannte Cross-Referenz-Datenbanken werden
// mit Diagnose übersprungen, nie fatal.
func (r *Reconciler) ImportGeneInfo(org *models.Organism, records []loaders.GeneRecord, opts ImportOptions) (*ImportStats, error) {
	// Manche Organismen (Hefe) führen im Feed eine andere Taxonomy-ID
	// als im Bestand.
	feedTaxID := org.TaxonomyID
	if opts.GITaxID != "" {
		feedTaxID = opts.GITaxID
	}

	stats := &ImportStats{}
	for _, rec := range records {
		if rec.TaxID == feedTaxID {
			stats.OrganismMatches++
		}
	}
	// Sicherheitsnetz gegen falsche Taxonomy-IDs oder Spaltenkonfiguration:
	// lieber abbrechen, als den halben Bestand als obsolete zu markieren.
	if stats.OrganismMatches < r.MinOrganismMatches {
		return nil, fmt.Errorf("only %d of %d feed records match organism %s (need at least %d); check the taxonomy id and column configuration",
			stats.OrganismMatches, len(records), feedTaxID, r.MinOrganismMatches)
	}

	genesByEntrez, err := r.loadGenes(org)
	if err != nil {
		return nil, err
	}
	xrInDB, err := r.loadXRefTriples(org, genesByEntrez)
	if err != nil {
		return nil, err
	}

	// Cache für Datenbank-Lookups, spart Round-Trips pro Zeile.
	xrdbCache := make(map[string]*models.CrossRefDB)
	seen := make(map[int]bool, len(records))

	for _, rec := range records {
		if rec.TaxID != feedTaxID {
			continue
		}

		standardName := rec.StandardName
		systematicName := rec.SystematicName
		// Die systematische Spalte ist nur für manche Organismen gefüllt.
		if systematicName == "" || systematicName == "-" {
			systematicName = standardName
		}
		// Mitochondriale Gene bekommen ein MT-Präfix, um Duplikate mit
		// nukleären Namensvettern zu vermeiden (analog zu GeneCards).
		if rec.Chromosome == "MT" && !strings.HasPrefix(systematicName, "MT") {
			r.Logger.Debug("Benenne mitochondriales Gen um",
				zap.String("from", systematicName),
				zap.String("to", "MT-"+systematicName))
			systematicName = "MT-" + systematicName
		}

		xrefs := rec.XRefs
		if opts.SystematicXRDB != "" {
			xrefs = append([]loaders.XRefPair{{DB: opts.SystematicXRDB, ID: systematicName}}, xrefs...)
		}

		weight := r.Weights.weightFor(len(xrefs), len(rec.Aliases), rec.Status)
		aliasStr := strings.Join(rec.Aliases, " ")

		seen[rec.EntrezID] = true
		gene, exists := genesByEntrez[rec.EntrezID]
		if exists {
			stats.Found++
			changed := false
			if gene.SystematicName != systematicName {
				gene.SystematicName = systematicName
				changed = true
			}
			if gene.StandardName != standardName {
				gene.StandardName = standardName
				changed = true
			}
			if gene.Description != rec.Description {
				gene.Description = rec.Description
				changed = true
			}
			if gene.Aliases != aliasStr {
				gene.Aliases = aliasStr
				changed = true
			}
			if gene.Weight != weight {
				gene.Weight = weight
				changed = true
			}
			// Ein als obsolete markiertes Gen, das wieder im Feed steht,
			// ist nicht mehr obsolete.
			if gene.Obsolete {
				gene.Obsolete = false
				changed = true
			}
			if changed {
				if err := r.DB.Save(gene).Error; err != nil {
					return stats, fmt.Errorf("update gene %d: %w", rec.EntrezID, err)
				}
				stats.Updated++
			}
		} else {
			gene = &models.Gene{
				EntrezID:       rec.EntrezID,
				OrganismID:     org.ID,
				StandardName:   standardName,
				SystematicName: systematicName,
				Description:    rec.Description,
				Aliases:        aliasStr,
				Weight:         weight,
				Obsolete:       false,
			}
			if err := r.DB.Create(gene).Error; err != nil {
				return stats, fmt.Errorf("create gene %d: %w", rec.EntrezID, err)
			}
			genesByEntrez[rec.EntrezID] = gene
			stats.Created++
		}

		for _, pair := range xrefs {
			xrdb, cached := xrdbCache[pair.DB]
			if !cached {
				xrdb = r.lookupXRDB(pair.DB)
				xrdbCache[pair.DB] = xrdb
			}
			if xrdb == nil { // Unbekannte Datenbank, überspringen.
				r.Logger.Warn("Cross-Referenz-Datenbank nicht registriert, Paar wird übersprungen",
					zap.String("xrdb", pair.DB),
					zap.String("xrid", pair.ID))
				continue
			}
			key := xrefKey{DBName: xrdb.Name, XRID: pair.ID, EntrezID: rec.EntrezID}
			if xrInDB[key] {
				continue
			}
			xr := models.CrossRef{CrossRefDBID: xrdb.ID, XRID: pair.ID, GeneID: gene.ID}
			if err := r.DB.Create(&xr).Error; err != nil {
				return stats, fmt.Errorf("create crossref %s:%s for gene %d: %w", pair.DB, pair.ID, rec.EntrezID, err)
			}
			xrInDB[key] = true
			stats.XRefsCreated++
		}
	}

	// Gene, die im Bestand stehen, aber nicht mehr im Feed: obsolete.
	for entrezid, gene := range genesByEntrez {
		if seen[entrezid] || gene.Obsolete {
			continue
		}
		gene.Obsolete = true
		if err := r.DB.Save(gene).Error; err != nil {
			return stats, fmt.Errorf("mark gene %d obsolete: %w", entrezid, err)
		}
		stats.Obsoleted++
	}

	r.Logger.Info("gene_info-Import abgeschlossen",
		zap.String("organism", org.ScientificName),
		zap.Int("matches", stats.OrganismMatches),
		zap.Int("found", stats.Found),
		zap.Int("updated", stats.Updated),
		zap.Int("created", stats.Created),
		zap.Int("obsoleted", stats.Obsoleted),
		zap.Int("xrefs_created", stats.XRefsCreated))

	return stats, nil
}

// HistoryStats fasst die Ergebnisse eines gene_history-Imports zusammen.
type HistoryStats struct {
	Flagged int
	Created int
}

// ImportGeneHistory markiert eingestellte Entrez-IDs als obsolete. IDs, die
// im Bestand fehlen, werden als neue obsolete Gene mit dem eingestellten
// Symbol als systematischem Namen angelegt, damit historische Feeds weiter
// auflösbar bleiben.
func (r *Reconciler) ImportGeneHistory(org *models.Organism, records []loaders.HistoryRecord) (*HistoryStats, error) {
	stats := &HistoryStats{}
	for _, rec := range records {
		if rec.TaxID != org.TaxonomyID {
			continue
		}

		var gene models.Gene
		err := r.DB.Where("entrezid = ? AND organism_id = ?", rec.EntrezID, org.ID).First(&gene).Error
		switch {
		case err == nil:
			if gene.Obsolete {
				continue
			}
			gene.Obsolete = true
			if err := r.DB.Save(&gene).Error; err != nil {
				return stats, fmt.Errorf("mark gene %d obsolete: %w", rec.EntrezID, err)
			}
			stats.Flagged++
		case isNotFound(err):
			gene = models.Gene{
				EntrezID:       rec.EntrezID,
				OrganismID:     org.ID,
				SystematicName: rec.Symbol,
				Obsolete:       true,
			}
			if err := r.DB.Create(&gene).Error; err != nil {
				return stats, fmt.Errorf("create obsolete gene %d: %w", rec.EntrezID, err)
			}
			stats.Created++
		default:
			return stats, fmt.Errorf("lookup gene %d: %w", rec.EntrezID, err)
		}
	}

	r.Logger.Info("gene_history-Import abgeschlossen",
		zap.String("organism", org.ScientificName),
		zap.Int("flagged", stats.Flagged),
		zap.Int("created", stats.Created))
	return stats, nil
}

// loadGenes lädt alle Gene eines Organismus, indiziert nach Entrez-ID.
func (r *Reconciler) loadGenes(org *models.Organism) (map[int]*models.Gene, error) {
	var genes []models.Gene
	if err := r.DB.Where("organism_id = ?", org.ID).Find(&genes).Error; err != nil {
		return nil, fmt.Errorf("load genes for organism %s: %w", org.TaxonomyID, err)
	}
	byEntrez := make(map[int]*models.Gene, len(genes))
	for i := range genes {
		byEntrez[genes[i].EntrezID] = &genes[i]
	}
	return byEntrez, nil
}

// loadXRefTriples lädt alle (Datenbankname, xrid, entrezid)-Tripel des
// Organismus, damit vorhandene Paare nicht dupliziert werden.
func (r *Reconciler) loadXRefTriples(org *models.Organism, genesByEntrez map[int]*models.Gene) (map[xrefKey]bool, error) {
	entrezByGeneID := make(map[uint]int, len(genesByEntrez))
	geneIDs := make([]uint, 0, len(genesByEntrez))
	for entrezid, g := range genesByEntrez {
		entrezByGeneID[g.ID] = entrezid
		geneIDs = append(geneIDs, g.ID)
	}

	triples := make(map[xrefKey]bool)
	if len(geneIDs) == 0 {
		return triples, nil
	}

	var xrs []models.CrossRef
	if err := r.DB.Preload("CrossRefDB").Where("gene_id IN ?", geneIDs).Find(&xrs).Error; err != nil {
		return nil, fmt.Errorf("load crossrefs for organism %s: %w", org.TaxonomyID, err)
	}
	for _, xr := range xrs {
		triples[xrefKey{
			DBName:   xr.CrossRefDB.Name,
			XRID:     xr.XRID,
			EntrezID: entrezByGeneID[xr.GeneID],
		}] = true
	}
	return triples, nil
}

// lookupXRDB liefert die Datenbank mit dem Namen oder nil, wenn sie nicht
// registriert ist. Kein Fehler: unbekannte Namen sind im Batch erwartbar.
func (r *Reconciler) lookupXRDB(name string) *models.CrossRefDB {
	var xrdb models.CrossRefDB
	if err := r.DB.Where("name = ?", name).First(&xrdb).Error; err != nil {
		return nil
	}
	return &xrdb
}
