package loaders

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Mapping-Typen aus der idmapping-Datei von UniProt.
const (
	UniProtTypeGeneID  = "GeneID"
	UniProtTypeEnsembl = "Ensembl"
)

// UniProtMapping ist eine Zeile aus einem (vorgefilterten) idmapping-File:
// UniProtKB-ID, Mapping-Typ und Zielwert (Entrez- oder Ensembl-ID).
type UniProtMapping struct {
	UniProtID string
	Type      string
	Value     string
}

// ParseUniProt liest ein idmapping-File mit whitespace-separierten Tripeln.
// Zeilen mit weniger als drei Feldern brechen den Lauf ab, da sie auf ein
// falsch gefiltertes Eingabefile hindeuten.
func ParseUniProt(r io.Reader) ([]UniProtMapping, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	var mappings []UniProtMapping
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return nil, fmt.Errorf("uniprot line %d: expected 3 fields, got %d", lineNum, len(fields))
		}
		mappings = append(mappings, UniProtMapping{
			UniProtID: fields[0],
			Type:      fields[1],
			Value:     fields[2],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read uniprot mapping: %w", err)
	}
	return mappings, nil
}
