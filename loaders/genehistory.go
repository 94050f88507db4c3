package loaders

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// HistoryColumns beschreibt die Spalten eines NCBI gene_history-Files.
// Die Indizes sind 0-basiert; die CLI-Flags rechnen 1-basierte Angaben um.
type HistoryColumns struct {
	TaxIDCol  int
	IDCol     int
	SymbolCol int
}

// DefaultHistoryColumns liefert das Standardlayout von gene_history-Files.
func DefaultHistoryColumns() HistoryColumns {
	return HistoryColumns{TaxIDCol: 0, IDCol: 2, SymbolCol: 3}
}

// Validate prüft die Spaltenkonfiguration, bevor irgendetwas geparst wird.
func (c HistoryColumns) Validate() error {
	if c.TaxIDCol < 0 || c.IDCol < 0 || c.SymbolCol < 0 {
		return fmt.Errorf("column numbers must not be negative: tax_id=%d id=%d symbol=%d",
			c.TaxIDCol, c.IDCol, c.SymbolCol)
	}
	return nil
}

// HistoryRecord ist eine geparste Zeile eines gene_history-Files:
// eine eingestellte Entrez-ID samt letztem bekannten Symbol.
type HistoryRecord struct {
	TaxID    string
	EntrezID int
	Symbol   string
}

// ParseGeneHistory liest ein tab-separiertes gene_history-File. Zeilen mit
// führendem '#' sind Kommentare. Eine Zeile, bei der eine konfigurierte
// Spalte außerhalb des Wertebereichs liegt, bricht den Lauf mit der
// Zeilennummer ab, damit Anwender die fehlerhafte Zeile finden.
func ParseGeneHistory(r io.Reader, cols HistoryColumns) ([]HistoryRecord, error) {
	if err := cols.Validate(); err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	var records []HistoryRecord
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(strings.TrimRight(line, "\r\n"), "\t")
		if bad := checkHistoryColumns(len(fields), cols); bad != "" {
			return nil, fmt.Errorf("gene_history line %d: column number of %s is out of range", lineNum, bad)
		}

		entrezid, err := strconv.Atoi(fields[cols.IDCol])
		if err != nil {
			return nil, fmt.Errorf("gene_history line %d: invalid discontinued gene id %q",
				lineNum, fields[cols.IDCol])
		}

		records = append(records, HistoryRecord{
			TaxID:    fields[cols.TaxIDCol],
			EntrezID: entrezid,
			Symbol:   fields[cols.SymbolCol],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read gene_history: %w", err)
	}
	return records, nil
}

// checkHistoryColumns liefert den Namen der ersten Spalte, die über die
// Zeilenbreite hinauszeigt, oder "" wenn alle passen.
func checkHistoryColumns(numFields int, cols HistoryColumns) string {
	switch {
	case cols.TaxIDCol >= numFields:
		return "tax_id_col"
	case cols.IDCol >= numFields:
		return "discontinued_id_col"
	case cols.SymbolCol >= numFields:
		return "discontinued_symbol_col"
	}
	return ""
}
