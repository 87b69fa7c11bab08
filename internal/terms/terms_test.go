package terms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywords(t *testing.T) {
	assert.Equal(t, []string{"apex", "roofing"}, Keywords("Apex Roofing LLC"))
	assert.Equal(t, []string{"smith", "sons", "roofing"}, Keywords("Smith & Sons Roofing Co."))
	// Digits and short words never survive.
	assert.Empty(t, Keywords("A1 Co"))
	assert.Equal(t, []string{"red", "river"}, Keywords("The Red River Company"))
}

func TestKeywords_Empty(t *testing.T) {
	assert.Empty(t, Keywords(""))
	assert.Empty(t, Keywords("LLC Inc Corp"))
}

func TestSelectMinimal_GreedyCoverage(t *testing.T) {
	companies := []string{
		"Apex Roofing LLC",
		"Sunset Roofing Co",
		"Ridge Roofing Inc",
		"Delta Paving",
	}
	selected, uncoverable := SelectMinimal(companies)
	require.Len(t, selected, 2)
	assert.Empty(t, uncoverable)

	// "roofing" covers three names, so it goes first.
	assert.Equal(t, "roofing", selected[0].Term)
	assert.Equal(t, 3, selected[0].Covered)
	assert.Equal(t, 1, selected[1].Covered)
	assert.Contains(t, []string{"delta", "paving"}, selected[1].Term)
	// Ties break lexicographically.
	assert.Equal(t, "delta", selected[1].Term)
}

func TestSelectMinimal_UncoverableNames(t *testing.T) {
	selected, uncoverable := SelectMinimal([]string{"A1 Co", "Apex Roofing"})
	require.Len(t, selected, 1)
	assert.Equal(t, []string{"A1 Co"}, uncoverable)
}

func TestSelectMinimal_DuplicatesCountOnce(t *testing.T) {
	selected, _ := SelectMinimal([]string{"Apex Roofing", "Apex Roofing", "Apex Roofing"})
	require.Len(t, selected, 1)
	assert.Equal(t, 1, selected[0].Covered)
}

func TestSelectMinimal_Empty(t *testing.T) {
	selected, uncoverable := SelectMinimal(nil)
	assert.Empty(t, selected)
	assert.Empty(t, uncoverable)
}
