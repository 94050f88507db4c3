package loaders

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// geneInfoLine baut eine Zeile im NCBI-Standardlayout (15 Spalten).
func geneInfoLine(taxid, entrez, symbol, locusTag, synonyms, dbXrefs, chromosome, desc, status string) string {
	cols := []string{
		taxid, entrez, symbol, locusTag, synonyms, dbXrefs, chromosome,
		"-", desc, status, "-", "-", "-", "-", "-",
	}
	return strings.Join(cols, "\t")
}

func TestParseGeneInfo(t *testing.T) {
	input := strings.Join([]string{
		"#Format: tax_id GeneID Symbol LocusTag Synonyms dbXrefs chromosome map_location description type_of_gene ...",
		geneInfoLine("9606", "7157", "TP53", "-", "BCC7|LFS1|P53", "MIM:191170|HGNC:HGNC:11998|Ensembl:ENSG00000141510", "17", "tumor protein p53", "protein-coding"),
		geneInfoLine("9606", "4535", "ND1", "-", "-", "-", "MT", "NADH dehydrogenase subunit 1", "protein-coding"),
		geneInfoLine("10090", "22059", "Trp53", "-", "p53", "MGI:MGI:98834", "11", "transformation related protein 53", "protein-coding"),
	}, "\n")

	records, err := ParseGeneInfo(strings.NewReader(input), DefaultColumns())
	require.NoError(t, err)
	require.Len(t, records, 3)

	tp53 := records[0]
	assert.Equal(t, "9606", tp53.TaxID)
	assert.Equal(t, 7157, tp53.EntrezID)
	assert.Equal(t, "TP53", tp53.StandardName)
	assert.Equal(t, "-", tp53.SystematicName)
	assert.Equal(t, []string{"BCC7", "LFS1", "P53"}, tp53.Aliases)
	assert.Equal(t, "17", tp53.Chromosome)
	assert.Equal(t, "tumor protein p53", tp53.Description)
	assert.Equal(t, "protein-coding", tp53.Status)
	assert.Equal(t, []XRefPair{
		{DB: "MIM", ID: "191170"},
		{DB: "HGNC", ID: "HGNC:11998"},
		{DB: "Ensembl", ID: "ENSG00000141510"},
	}, tp53.XRefs)

	nd1 := records[1]
	assert.Equal(t, "MT", nd1.Chromosome)
	assert.Nil(t, nd1.Aliases)
	assert.Nil(t, nd1.XRefs)
}

func TestParseGeneInfoSkipsNewEntry(t *testing.T) {
	input := strings.Join([]string{
		geneInfoLine("9606", "1", "NEWENTRY", "-", "-", "-", "-", "Record to support submission of GeneRIFs", "other"),
		geneInfoLine("9606", "7157", "TP53", "-", "-", "-", "17", "tumor protein p53", "protein-coding"),
	}, "\n")

	records, err := ParseGeneInfo(strings.NewReader(input), DefaultColumns())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "TP53", records[0].StandardName)
}

func TestParseGeneInfoCustomColumns(t *testing.T) {
	// Hefe-Layout: das LocusTag enthält den systematischen Namen.
	input := geneInfoLine("559292", "852967", "CTT1", "YGR088W", "-", "SGD:S000003320", "VII", "catalase T", "protein-coding")

	records, err := ParseGeneInfo(strings.NewReader(input), ColumnConfig{SymbolCol: 2, SystematicCol: 3, AliasCol: 4})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "CTT1", records[0].StandardName)
	assert.Equal(t, "YGR088W", records[0].SystematicName)
}

func TestParseGeneInfoErrors(t *testing.T) {
	t.Run("short line aborts with line number", func(t *testing.T) {
		input := geneInfoLine("9606", "7157", "TP53", "-", "-", "-", "17", "tumor protein p53", "protein-coding") +
			"\n9606\t7157\tTP53"
		_, err := ParseGeneInfo(strings.NewReader(input), DefaultColumns())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 2")
	})

	t.Run("invalid entrez id aborts", func(t *testing.T) {
		input := geneInfoLine("9606", "abc", "TP53", "-", "-", "-", "17", "tumor protein p53", "protein-coding")
		_, err := ParseGeneInfo(strings.NewReader(input), DefaultColumns())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid entrez id")
	})

	t.Run("negative column config rejected", func(t *testing.T) {
		_, err := ParseGeneInfo(strings.NewReader(""), ColumnConfig{SymbolCol: -1, SystematicCol: 3, AliasCol: 4})
		require.Error(t, err)
	})
}

func TestParseXRefsDeduplicatesAndSkipsMalformed(t *testing.T) {
	pairs := parseXRefs("Ensembl:ENSG1|Ensembl:ENSG1|nosep|:empty|Ensembl:")
	assert.Equal(t, []XRefPair{{DB: "Ensembl", ID: "ENSG1"}}, pairs)
}
