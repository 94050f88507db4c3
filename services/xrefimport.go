package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"genes-api/loaders"
	"genes-api/models"
)

// isNotFound kapselt den Not-Found-Check des Storage-Layers.
func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// XRefImporter lädt Cross-Referenz-Mappings (UniProt, WormBase) in den
// Bestand und pflegt die Cross-Referenz-Datenbanken selbst.
type XRefImporter struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

// NewXRefImporter erstellt eine neue Instanz des XRefImporters.
func NewXRefImporter(db *gorm.DB, logger *zap.Logger) *XRefImporter {
	return &XRefImporter{DB: db, Logger: logger}
}

// UpsertCrossRefDB legt eine Cross-Referenz-Datenbank an oder aktualisiert
// ihre URL. Leere Namen oder URLs sind ein Validierungsfehler vor jeder
// Mutation.
func (i *XRefImporter) UpsertCrossRefDB(name, url string) (*models.CrossRefDB, error) {
	name = strings.TrimSpace(name)
	url = strings.TrimSpace(url)
	if name == "" || url == "" {
		return nil, errors.New("crossrefdb name and url must not be blank")
	}

	var xrdb models.CrossRefDB
	err := i.DB.Where("name = ?", name).First(&xrdb).Error
	switch {
	case err == nil:
		if xrdb.URL != url {
			xrdb.URL = url
			if err := i.DB.Save(&xrdb).Error; err != nil {
				return nil, fmt.Errorf("update crossrefdb %s: %w", name, err)
			}
		}
		return &xrdb, nil
	case isNotFound(err):
		xrdb = models.CrossRefDB{Name: name, URL: url}
		if err := i.DB.Create(&xrdb).Error; err != nil {
			return nil, fmt.Errorf("create crossrefdb %s: %w", name, err)
		}
		return &xrdb, nil
	default:
		return nil, fmt.Errorf("lookup crossrefdb %s: %w", name, err)
	}
}

// XRefStats fasst die Ergebnisse eines Cross-Referenz-Imports zusammen.
type XRefStats struct {
	Created int
	Updated int
	Skipped int
}

// ImportUniProt lädt UniProtKB-Mappings in den Bestand. GeneID-Zeilen
// werden über die Entrez-ID aufgelöst, Ensembl-Zeilen über vorhandene
// Ensembl-Cross-Referenzen; Entrez- und Ensembl-Identifier müssen also
// bereits geladen sein. Nicht auflösbare Zeilen werden übersprungen.
func (i *XRefImporter) ImportUniProt(mappings []loaders.UniProtMapping) (*XRefStats, error) {
	var uniprot models.CrossRefDB
	if err := i.DB.Where("name = ?", "UniProtKB").First(&uniprot).Error; err != nil {
		if isNotFound(err) {
			return nil, errors.New("crossrefdb UniProtKB is not registered; run addxrdb first")
		}
		return nil, fmt.Errorf("lookup crossrefdb UniProtKB: %w", err)
	}

	geneByEntrez, err := i.loadEntrezIndex()
	if err != nil {
		return nil, err
	}
	geneByEnsembl, err := i.loadEnsemblIndex()
	if err != nil {
		return nil, err
	}

	stats := &XRefStats{}
	for _, m := range mappings {
		var geneID uint
		var ok bool
		switch m.Type {
		case loaders.UniProtTypeGeneID:
			entrezid, convErr := strconv.Atoi(m.Value)
			if convErr != nil {
				i.Logger.Warn("UniProt-Zeile mit ungültiger Entrez-ID übersprungen",
					zap.String("uniprot", m.UniProtID), zap.String("value", m.Value))
				stats.Skipped++
				continue
			}
			geneID, ok = geneByEntrez[entrezid]
		case loaders.UniProtTypeEnsembl:
			geneID, ok = geneByEnsembl[m.Value]
		default:
			// Andere Mapping-Typen aus idmapping.dat sind hier irrelevant.
			stats.Skipped++
			continue
		}
		if !ok {
			stats.Skipped++
			continue
		}

		created, updated, err := i.upsertXRef(&uniprot, m.UniProtID, geneID)
		if err != nil {
			return stats, err
		}
		if created {
			stats.Created++
		} else if updated {
			stats.Updated++
		}
	}

	i.Logger.Info("UniProt-Import abgeschlossen",
		zap.Int("created", stats.Created),
		zap.Int("updated", stats.Updated),
		zap.Int("skipped", stats.Skipped))
	return stats, nil
}

// ImportWormBase lädt WormBase-Paare in die benannte Cross-Referenz-
// Datenbank. Gene werden über den systematischen Namen aufgelöst; fehlende
// Gene werden geloggt und übersprungen, nie fatal.
func (i *XRefImporter) ImportWormBase(pairs []loaders.WormBasePair, dbName string) (*XRefStats, error) {
	var xrdb models.CrossRefDB
	if err := i.DB.Where("name = ?", dbName).First(&xrdb).Error; err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("crossrefdb %s is not registered; run addxrdb first", dbName)
		}
		return nil, fmt.Errorf("lookup crossrefdb %s: %w", dbName, err)
	}

	stats := &XRefStats{}
	for _, pair := range pairs {
		var gene models.Gene
		err := i.DB.Where("systematic_name = ?", pair.SystematicName).First(&gene).Error
		if err != nil {
			if isNotFound(err) {
				i.Logger.Info("Gen nicht gefunden, WormBase-Paar wird übersprungen",
					zap.String("systematic_name", pair.SystematicName),
					zap.String("wbid", pair.WBID))
				stats.Skipped++
				continue
			}
			return stats, fmt.Errorf("lookup gene %s: %w", pair.SystematicName, err)
		}

		created, updated, err := i.upsertXRef(&xrdb, pair.WBID, gene.ID)
		if err != nil {
			return stats, err
		}
		if created {
			stats.Created++
		} else if updated {
			stats.Updated++
		}
	}

	i.Logger.Info("WormBase-Import abgeschlossen",
		zap.String("xrdb", dbName),
		zap.Int("created", stats.Created),
		zap.Int("updated", stats.Updated),
		zap.Int("skipped", stats.Skipped))
	return stats, nil
}

// upsertXRef legt eine Cross-Referenz an oder hängt eine vorhandene xrid
// an das aufgelöste Gen um. Unverändert vorhandene Paare bleiben
// unangetastet, damit ein Re-Import keine Duplikate erzeugt.
func (i *XRefImporter) upsertXRef(xrdb *models.CrossRefDB, xrid string, geneID uint) (created, updated bool, err error) {
	var xr models.CrossRef
	dbErr := i.DB.Where("crossrefdb_id = ? AND xrid = ?", xrdb.ID, xrid).First(&xr).Error
	switch {
	case dbErr == nil:
		if xr.GeneID == geneID {
			return false, false, nil
		}
		xr.GeneID = geneID
		if err := i.DB.Save(&xr).Error; err != nil {
			return false, false, fmt.Errorf("update crossref %s:%s: %w", xrdb.Name, xrid, err)
		}
		return false, true, nil
	case isNotFound(dbErr):
		xr = models.CrossRef{CrossRefDBID: xrdb.ID, XRID: xrid, GeneID: geneID}
		if err := i.DB.Create(&xr).Error; err != nil {
			return false, false, fmt.Errorf("create crossref %s:%s: %w", xrdb.Name, xrid, err)
		}
		return true, false, nil
	default:
		return false, false, fmt.Errorf("lookup crossref %s:%s: %w", xrdb.Name, xrid, dbErr)
	}
}

// loadEntrezIndex baut einen Index Entrez-ID → Gen-Primärschlüssel über
// alle Organismen.
func (i *XRefImporter) loadEntrezIndex() (map[int]uint, error) {
	var genes []models.Gene
	if err := i.DB.Select("id", "entrezid").Find(&genes).Error; err != nil {
		return nil, fmt.Errorf("load entrez index: %w", err)
	}
	byEntrez := make(map[int]uint, len(genes))
	for _, g := range genes {
		byEntrez[g.EntrezID] = g.ID
	}
	return byEntrez, nil
}

// loadEnsemblIndex baut einen Index Ensembl-ID → Gen-Primärschlüssel aus
// den vorhandenen Ensembl-Cross-Referenzen. Ist Ensembl nicht registriert,
// bleibt der Index leer und Ensembl-Zeilen werden übersprungen.
func (i *XRefImporter) loadEnsemblIndex() (map[string]uint, error) {
	byEnsembl := make(map[string]uint)

	var ensembl models.CrossRefDB
	err := i.DB.Where("name = ?", "Ensembl").First(&ensembl).Error
	if err != nil {
		if isNotFound(err) {
			i.Logger.Warn("Crossrefdb Ensembl nicht registriert, Ensembl-Mappings werden übersprungen")
			return byEnsembl, nil
		}
		return nil, fmt.Errorf("lookup crossrefdb Ensembl: %w", err)
	}

	var xrs []models.CrossRef
	if err := i.DB.Where("crossrefdb_id = ?", ensembl.ID).Find(&xrs).Error; err != nil {
		return nil, fmt.Errorf("load ensembl index: %w", err)
	}
	for _, xr := range xrs {
		byEnsembl[xr.XRID] = xr.GeneID
	}
	return byEnsembl, nil
}
