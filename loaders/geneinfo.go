package loaders

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Feste Spalten im gene_info-Format von NCBI Entrez.
const (
	geneInfoTaxIDCol       = 0
	geneInfoEntrezCol      = 1
	geneInfoXRefCol        = 5
	geneInfoChromosomeCol  = 6
	geneInfoDescriptionCol = 8
	geneInfoStatusCol      = 9
)

// ColumnConfig beschreibt die variablen Spalten eines gene_info-Files.
// Manche Organismen liefern systematische Namen bzw. Aliase in anderen
// Spalten; die Defaults entsprechen dem NCBI-Standardlayout.
type ColumnConfig struct {
	SymbolCol     int
	SystematicCol int
	AliasCol      int
}

// DefaultColumns liefert das Standardlayout der NCBI gene_info-Files.
func DefaultColumns() ColumnConfig {
	return ColumnConfig{SymbolCol: 2, SystematicCol: 3, AliasCol: 4}
}

// Validate prüft die Spaltenkonfiguration, bevor irgendetwas geparst wird.
func (c ColumnConfig) Validate() error {
	if c.SymbolCol < 0 || c.SystematicCol < 0 || c.AliasCol < 0 {
		return fmt.Errorf("column numbers must not be negative: symbol=%d systematic=%d alias=%d",
			c.SymbolCol, c.SystematicCol, c.AliasCol)
	}
	return nil
}

// XRefPair ist ein (Datenbankname, Identifier)-Paar aus der dbXrefs-Spalte.
type XRefPair struct {
	DB string
	ID string
}

// GeneRecord ist eine geparste Zeile eines gene_info-Files.
type GeneRecord struct {
	TaxID          string
	EntrezID       int
	StandardName   string
	SystematicName string
	Aliases        []string
	XRefs          []XRefPair
	Description    string
	Status         string
	Chromosome     string
}

// ParseGeneInfo liest ein tab-separiertes gene_info-File und liefert alle
// Gen-Zeilen zurück. Die Organismus-Filterung übernimmt der Reconciler;
// hier wird nur strikt validiert: eine Zeile mit zu wenigen Spalten oder
// einer nicht-numerischen Entrez-ID bricht den gesamten Lauf ab.
func ParseGeneInfo(r io.Reader, cols ColumnConfig) ([]GeneRecord, error) {
	if err := cols.Validate(); err != nil {
		return nil, err
	}

	maxCol := geneInfoStatusCol
	for _, c := range []int{cols.SymbolCol, cols.SystematicCol, cols.AliasCol} {
		if c > maxCol {
			maxCol = c
		}
	}

	scanner := bufio.NewScanner(r)
	// gene_info-Zeilen können sehr lang werden (dbXrefs-Spalte).
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	var records []GeneRecord
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		toks := strings.Split(strings.TrimRight(line, "\r\n"), "\t")
		if len(toks) <= maxCol {
			return nil, fmt.Errorf("gene_info line %d: expected at least %d columns, got %d",
				lineNum, maxCol+1, len(toks))
		}

		// Platzhalter-Zeilen für noch nicht vergebene Entrez-IDs.
		if toks[cols.SymbolCol] == "NEWENTRY" {
			continue
		}

		entrezid, err := strconv.Atoi(toks[geneInfoEntrezCol])
		if err != nil {
			return nil, fmt.Errorf("gene_info line %d: invalid entrez id %q", lineNum, toks[geneInfoEntrezCol])
		}

		rec := GeneRecord{
			TaxID:          toks[geneInfoTaxIDCol],
			EntrezID:       entrezid,
			StandardName:   toks[cols.SymbolCol],
			SystematicName: toks[cols.SystematicCol],
			Description:    toks[geneInfoDescriptionCol],
			Status:         toks[geneInfoStatusCol],
			Chromosome:     toks[geneInfoChromosomeCol],
			Aliases:        splitListField(toks[cols.AliasCol]),
			XRefs:          parseXRefs(toks[geneInfoXRefCol]),
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read gene_info: %w", err)
	}
	return records, nil
}

// splitListField zerlegt ein pipe-separiertes Feld; "-" bedeutet leer.
func splitListField(field string) []string {
	if field == "" || field == "-" {
		return nil
	}
	return strings.Split(field, "|")
}

// parseXRefs zerlegt die dbXrefs-Spalte in eindeutige (DB, ID)-Paare.
// Identifier wie "Ensembl:ENSG00000166503" werden am ersten Doppelpunkt
// getrennt; der Rest gehört zur ID (MIM:190070 vs. HGNC:HGNC:6407).
func parseXRefs(field string) []XRefPair {
	parts := splitListField(field)
	if parts == nil {
		return nil
	}
	seen := make(map[XRefPair]struct{}, len(parts))
	pairs := make([]XRefPair, 0, len(parts))
	for _, p := range parts {
		db, id, ok := strings.Cut(p, ":")
		if !ok || db == "" || id == "" {
			continue
		}
		pair := XRefPair{DB: db, ID: id}
		if _, dup := seen[pair]; dup {
			continue
		}
		seen[pair] = struct{}{}
		pairs = append(pairs, pair)
	}
	return pairs
}
