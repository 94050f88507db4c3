package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"genes-api/models"
)

// KindTag ist die geschlossene Aufzählung der Identifier-Räume, zwischen
// denen übersetzt werden kann.
type KindTag int

const (
	KindEntrez KindTag = iota
	KindStandardName
	KindSystematicName
	// KindSymbol steht für standard_name, falls nicht-leer, sonst
	// systematic_name, auf Eingabe- wie Ausgabeseite.
	KindSymbol
	KindCrossRef
)

// IDKind ist ein Identifier-Raum; für KindCrossRef trägt er die aufgelöste
// Cross-Referenz-Datenbank.
type IDKind struct {
	Tag  KindTag
	XRDB *models.CrossRefDB
}

// Wire-Namen der eingebauten Identifier-Räume, wie sie die API verwendet.
var builtinKinds = map[string]KindTag{
	"Entrez":          KindEntrez,
	"Standard name":   KindStandardName,
	"Systematic name": KindSystematicName,
	"Symbol":          KindSymbol,
}

// Translator übersetzt Gen-Identifier zwischen Identifier-Räumen. Er führt
// ausschließlich Lesezugriffe aus und ist nebenläufig sicher.
type Translator struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

// NewTranslator erstellt eine neue Instanz des Translators.
func NewTranslator(db *gorm.DB, logger *zap.Logger) *Translator {
	return &Translator{DB: db, Logger: logger}
}

// ParseKind löst einen Wire-Namen in einen Identifier-Raum auf. Namen, die
// keiner eingebauten Art entsprechen, werden als Cross-Referenz-Datenbank
// nachgeschlagen; unbekannte Namen sind ein expliziter Fehler.
func (t *Translator) ParseKind(name string) (IDKind, error) {
	if tag, ok := builtinKinds[name]; ok {
		return IDKind{Tag: tag}, nil
	}
	var xrdb models.CrossRefDB
	if err := t.DB.Where("name = ?", name).First(&xrdb).Error; err != nil {
		if isNotFound(err) {
			return IDKind{}, fmt.Errorf("unknown identifier kind %q", name)
		}
		return IDKind{}, fmt.Errorf("lookup crossrefdb %q: %w", name, err)
	}
	return IDKind{Tag: KindCrossRef, XRDB: &xrdb}, nil
}

// TranslationResult ist eine geordnete Abbildung von Eingabe-Identifiern
// auf ihre Übersetzungen. Die Schlüsselreihenfolge folgt der Eingabeliste;
// nicht auflösbare Identifier landen in not_found statt in einem Fehler.
type TranslationResult struct {
	keys     []string
	found    map[string][]string
	NotFound []string
}

func newTranslationResult() *TranslationResult {
	return &TranslationResult{
		found:    make(map[string][]string),
		NotFound: []string{},
	}
}

// add hängt Übersetzungen an einen Schlüssel an und registriert ihn bei
// der ersten Verwendung in der Reihenfolge.
func (r *TranslationResult) add(key string, values ...string) {
	if _, ok := r.found[key]; !ok {
		r.keys = append(r.keys, key)
		r.found[key] = []string{}
	}
	r.found[key] = append(r.found[key], values...)
}

// Get liefert die Übersetzungen eines Eingabe-Identifiers (nil, wenn er
// nicht aufgelöst wurde).
func (r *TranslationResult) Get(key string) []string {
	if vals, ok := r.found[key]; ok {
		return vals
	}
	return nil
}

// Keys liefert die aufgelösten Eingabe-Identifier in Eingabereihenfolge.
func (r *TranslationResult) Keys() []string {
	return r.keys
}

// MarshalJSON serialisiert die Abbildung in Eingabereihenfolge und hängt
// not_found als reservierten Schlüssel an.
func (r *TranslationResult) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for _, key := range r.keys {
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.found[key])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
		buf.WriteByte(',')
	}
	nf, err := json.Marshal(r.NotFound)
	if err != nil {
		return nil, err
	}
	buf.WriteString(`"not_found":`)
	buf.Write(nf)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Translate löst eine Liste von Identifiern des from-Raums in den to-Raum
// auf. Pro Eingabe können null, ein oder mehrere Ausgabewerte entstehen
// (ein Gen kann mehrere Cross-Referenzen im Zielraum haben). Ist organism
// gesetzt, sind alle Lookups auf diesen Organismus beschränkt; Symbole,
// die ohne Scope über Organismen hinweg mehrdeutig sind, muss der Aufrufer
// selbst disambiguieren.
func (t *Translator) Translate(ids []string, from, to IDKind, org *models.Organism) (*TranslationResult, error) {
	result := newTranslationResult()

	// Eingabeliste deduplizieren, Reihenfolge erhalten.
	inputs := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		inputs = append(inputs, id)
	}
	if len(inputs) == 0 {
		return result, nil
	}

	matches, err := t.matchGenes(inputs, from, org)
	if err != nil {
		return nil, err
	}

	// Für Cross-Referenz-Ziele alle xrids der getroffenen Gene in einem
	// Rutsch laden.
	var xridsByGene map[uint][]string
	if to.Tag == KindCrossRef {
		xridsByGene, err = t.loadTargetXRIDs(matches, to.XRDB)
		if err != nil {
			return nil, err
		}
	}

	for _, input := range inputs {
		genes := matches[input]
		if len(genes) == 0 {
			result.NotFound = append(result.NotFound, input)
			continue
		}
		result.add(input)
		for _, gene := range genes {
			switch to.Tag {
			case KindEntrez:
				result.add(input, strconv.Itoa(gene.EntrezID))
			case KindStandardName:
				if gene.StandardName != "" {
					result.add(input, gene.StandardName)
				}
			case KindSystematicName:
				if gene.SystematicName != "" {
					result.add(input, gene.SystematicName)
				}
			case KindSymbol:
				result.add(input, gene.Symbol())
			case KindCrossRef:
				result.add(input, xridsByGene[gene.ID]...)
			}
		}
	}
	return result, nil
}

// matchGenes löst die Eingabe-Identifier im from-Raum zu Genen auf. Die
// Reihenfolge pro Schlüssel ist die Einfügereihenfolge der Datensätze.
func (t *Translator) matchGenes(inputs []string, from IDKind, org *models.Organism) (map[string][]models.Gene, error) {
	matches := make(map[string][]models.Gene, len(inputs))

	scoped := func(q *gorm.DB) *gorm.DB {
		if org != nil {
			return q.Where("organism_id = ?", org.ID)
		}
		return q
	}

	switch from.Tag {
	case KindEntrez:
		entrezids := make([]int, 0, len(inputs))
		inputByEntrez := make(map[int]string, len(inputs))
		for _, input := range inputs {
			entrezid, err := strconv.Atoi(input)
			if err != nil {
				// Kein Fehler: nicht-numerische Entrez-IDs sind schlicht
				// nicht auffindbar.
				continue
			}
			entrezids = append(entrezids, entrezid)
			inputByEntrez[entrezid] = input
		}
		if len(entrezids) == 0 {
			return matches, nil
		}
		var genes []models.Gene
		if err := scoped(t.DB).Where("entrezid IN ?", entrezids).Order("id").Find(&genes).Error; err != nil {
			return nil, fmt.Errorf("lookup genes by entrez id: %w", err)
		}
		for _, g := range genes {
			key := inputByEntrez[g.EntrezID]
			matches[key] = append(matches[key], g)
		}

	case KindStandardName:
		var genes []models.Gene
		if err := scoped(t.DB).Where("standard_name IN ?", inputs).Order("id").Find(&genes).Error; err != nil {
			return nil, fmt.Errorf("lookup genes by standard name: %w", err)
		}
		for _, g := range genes {
			matches[g.StandardName] = append(matches[g.StandardName], g)
		}

	case KindSystematicName:
		var genes []models.Gene
		if err := scoped(t.DB).Where("systematic_name IN ?", inputs).Order("id").Find(&genes).Error; err != nil {
			return nil, fmt.Errorf("lookup genes by systematic name: %w", err)
		}
		for _, g := range genes {
			matches[g.SystematicName] = append(matches[g.SystematicName], g)
		}

	case KindSymbol:
		// Kandidaten über beide Namensspalten holen und dann strikt nach
		// der Symbol-Regel filtern: ein Gen mit Standardnamen ist über
		// seinen systematischen Namen nicht als Symbol adressierbar.
		var genes []models.Gene
		if err := scoped(t.DB).
			Where("standard_name IN ? OR systematic_name IN ?", inputs, inputs).
			Order("id").Find(&genes).Error; err != nil {
			return nil, fmt.Errorf("lookup genes by symbol: %w", err)
		}
		wanted := make(map[string]bool, len(inputs))
		for _, input := range inputs {
			wanted[input] = true
		}
		for _, g := range genes {
			symbol := g.Symbol()
			if wanted[symbol] {
				matches[symbol] = append(matches[symbol], g)
			}
		}

	case KindCrossRef:
		q := t.DB.Preload("Gene").
			Where("crossrefs.crossrefdb_id = ? AND crossrefs.xrid IN ?", from.XRDB.ID, inputs)
		if org != nil {
			q = q.Joins("JOIN genes ON genes.id = crossrefs.gene_id").
				Where("genes.organism_id = ?", org.ID)
		}
		var xrs []models.CrossRef
		if err := q.Order("crossrefs.id").Find(&xrs).Error; err != nil {
			return nil, fmt.Errorf("lookup crossrefs in %s: %w", from.XRDB.Name, err)
		}
		for _, xr := range xrs {
			matches[xr.XRID] = append(matches[xr.XRID], xr.Gene)
		}
	}

	return matches, nil
}

// loadTargetXRIDs lädt die xrids aller getroffenen Gene im Zielraum.
func (t *Translator) loadTargetXRIDs(matches map[string][]models.Gene, xrdb *models.CrossRefDB) (map[uint][]string, error) {
	geneIDs := make([]uint, 0, len(matches))
	dedup := make(map[uint]bool)
	for _, genes := range matches {
		for _, g := range genes {
			if !dedup[g.ID] {
				dedup[g.ID] = true
				geneIDs = append(geneIDs, g.ID)
			}
		}
	}
	byGene := make(map[uint][]string, len(geneIDs))
	if len(geneIDs) == 0 {
		return byGene, nil
	}

	var xrs []models.CrossRef
	if err := t.DB.Where("crossrefdb_id = ? AND gene_id IN ?", xrdb.ID, geneIDs).
		Order("id").Find(&xrs).Error; err != nil {
		return nil, fmt.Errorf("load target xrids in %s: %w", xrdb.Name, err)
	}
	for _, xr := range xrs {
		byGene[xr.GeneID] = append(byGene[xr.GeneID], xr.XRID)
	}
	return byGene, nil
}
