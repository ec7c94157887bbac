package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/amazon-piracy-detector/internal/models"
)

func TestReadDataset(t *testing.T) {
	in := "Título,Vendedor,Preço,Classe\n" +
		"Cartucho HP 667 compatível,Loja X,\"R$ 29,90\",suspeito\n" +
		"Cartucho HP 667 original,HP,89.90,original\n" +
		",sem título,1,suspeito\n"

	samples, err := ReadDataset(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, samples, 2)

	assert.Equal(t, "Cartucho HP 667 compatível", samples[0].Title)
	assert.Equal(t, "Loja X", samples[0].Seller)
	require.NotNil(t, samples[0].Price)
	assert.InDelta(t, 29.90, *samples[0].Price, 0.001)
	assert.Equal(t, models.LabelSuspicious, samples[0].Label)

	assert.Equal(t, models.LabelOriginal, samples[1].Label)
	assert.InDelta(t, 89.90, *samples[1].Price, 0.001)
}

func TestReadDataset_AcceptsResultsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	price := 19.9
	require.NoError(t, WriteResults(path, []models.AnalyzedRecord{analyzed("Cartucho HP 667 Compatível", "Marketplace BR", &price)}))

	samples, err := LoadDataset(path)
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, models.LabelSuspicious, samples[0].Label)
	assert.Equal(t, "Marketplace BR", samples[0].Seller)
}

func TestReadDataset_Errors(t *testing.T) {
	_, err := ReadDataset(strings.NewReader("name,price\nfoo,1\n"))
	assert.ErrorIs(t, err, ErrNoTitleColumn)

	samples, err := ReadDataset(strings.NewReader(""))
	assert.NoError(t, err)
	assert.Empty(t, samples)
}

func TestFindDataset(t *testing.T) {
	dir := t.TempDir()
	second := filepath.Join(dir, "base_dados.csv")
	require.NoError(t, os.WriteFile(second, []byte("title\n"), 0o644))

	got, err := FindDataset([]string{filepath.Join(dir, "data", "base_dados.csv"), second})
	require.NoError(t, err)
	assert.Equal(t, second, got)

	_, err = FindDataset([]string{filepath.Join(dir, "nope.csv")})
	assert.ErrorIs(t, err, ErrDatasetNotFound)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
