package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/maltedev/amazon-piracy-detector/internal/extract"
	"github.com/maltedev/amazon-piracy-detector/internal/models"
)

var (
	ErrDatasetNotFound = fmt.Errorf("dataset not found: %w", fs.ErrNotExist)
	ErrNoTitleColumn   = errors.New("dataset has no title column")
)

var (
	titleColumns  = []string{"title", "titulo", "título", "product_title"}
	sellerColumns = []string{"seller", "vendedor"}
	priceColumns  = []string{"price", "preco", "preço"}
	labelColumns  = []string{"label", "classe", "class", "rotulo", "rótulo", "ai_prediction", "is_suspicious"}
)

// FindDataset returns the first of paths that exists.
func FindDataset(paths []string) (string, error) {
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrDatasetNotFound, strings.Join(paths, ", "))
}

// LoadDataset reads labelled samples from a CSV file. Column names are
// matched case-insensitively; results files written by WriteResults are
// accepted as datasets too.
func LoadDataset(path string) ([]models.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadDataset(f)
}

func ReadDataset(r io.Reader) ([]models.Sample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset header: %w", err)
	}

	idx := indexColumns(header)
	title := column(idx, titleColumns)
	if title < 0 {
		return nil, ErrNoTitleColumn
	}
	seller := column(idx, sellerColumns)
	price := column(idx, priceColumns)
	label := column(idx, labelColumns)

	var samples []models.Sample
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read dataset row: %w", err)
		}

		s := models.Sample{Title: strings.TrimSpace(field(rec, title)), Label: models.LabelOriginal}
		if s.Title == "" {
			continue
		}
		s.Seller = strings.TrimSpace(field(rec, seller))
		if v, ok := extract.ParsePrice(field(rec, price)); ok {
			s.Price = &v
		}
		if label >= 0 {
			s.Label = models.ParseLabel(field(rec, label))
		}
		samples = append(samples, s)
	}

	return samples, nil
}

func indexColumns(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	return idx
}

func column(idx map[string]int, names []string) int {
	for _, n := range names {
		if i, ok := idx[n]; ok {
			return i
		}
	}
	return -1
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}
