package loaders

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUniProt(t *testing.T) {
	input := strings.Join([]string{
		"G4SLH0\tGeneID\t13205076",
		"G4SLH0\tEnsembl\tENSG00000141510",
		"",
		"G4SMP2\tUniGene\tCel.7967",
	}, "\n")

	mappings, err := ParseUniProt(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, mappings, 3)

	assert.Equal(t, UniProtMapping{UniProtID: "G4SLH0", Type: UniProtTypeGeneID, Value: "13205076"}, mappings[0])
	assert.Equal(t, UniProtMapping{UniProtID: "G4SLH0", Type: UniProtTypeEnsembl, Value: "ENSG00000141510"}, mappings[1])
	assert.Equal(t, "UniGene", mappings[2].Type)
}

func TestParseUniProtShortLineAborts(t *testing.T) {
	input := "G4SLH0\tGeneID\t13205076\nG4SMP2\tGeneID"
	_, err := ParseUniProt(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}
