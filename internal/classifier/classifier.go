package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/maltedev/amazon-piracy-detector/internal/models"
)

var (
	ErrNotTrained     = errors.New("classifier is not trained")
	ErrNoTrainingData = errors.New("no training data")
)

// DefaultConfidence is attached to labels produced by the heuristic rules.
const DefaultConfidence = 0.5

const modelVersion = 1

var labels = []models.Label{models.LabelSuspicious, models.LabelOriginal}

type Options struct {
	ConfidenceThreshold float64
	HighRiskThreshold   int
	MediumRiskThreshold int
}

func DefaultOptions() Options {
	return Options{
		ConfidenceThreshold: 0.7,
		HighRiskThreshold:   4,
		MediumRiskThreshold: 2,
	}
}

// KeywordClassifier is a multinomial naive Bayes model over title and seller
// tokens.
type KeywordClassifier struct {
	mu    sync.RWMutex
	opts  Options
	model *model
	now   func() time.Time
}

type model struct {
	Version     int                             `json:"version"`
	TrainedAt   time.Time                       `json:"trained_at"`
	Accuracy    float64                         `json:"accuracy"`
	Documents   map[models.Label]int            `json:"documents"`
	TokenCounts map[models.Label]map[string]int `json:"token_counts"`
	TokenTotals map[models.Label]int            `json:"token_totals"`
	Vocabulary  int                             `json:"vocabulary"`
}

func New(opts Options) *KeywordClassifier {
	return &KeywordClassifier{opts: opts, now: time.Now}
}

func (c *KeywordClassifier) IsTrained() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model != nil
}

// Train fits the model on samples and returns the accuracy measured on every
// fifth sample held out from a first fit. With fewer than five samples the
// accuracy is measured on the training set.
func (c *KeywordClassifier) Train(samples []models.Sample) (float64, error) {
	usable := make([]models.Sample, 0, len(samples))
	for _, s := range samples {
		if strings.TrimSpace(s.Title) != "" {
			usable = append(usable, s)
		}
	}
	if len(usable) == 0 {
		return 0, ErrNoTrainingData
	}

	var train, test []models.Sample
	if len(usable) >= 5 {
		for i, s := range usable {
			if i%5 == 4 {
				test = append(test, s)
			} else {
				train = append(train, s)
			}
		}
	} else {
		train, test = usable, usable
	}

	accuracy := evaluate(fit(train), test)

	m := fit(usable)
	m.Accuracy = accuracy
	m.TrainedAt = c.now()

	c.mu.Lock()
	c.model = m
	c.mu.Unlock()

	return accuracy, nil
}

func fit(samples []models.Sample) *model {
	m := &model{
		Version:     modelVersion,
		Documents:   make(map[models.Label]int),
		TokenCounts: make(map[models.Label]map[string]int),
		TokenTotals: make(map[models.Label]int),
	}
	for _, l := range labels {
		m.TokenCounts[l] = make(map[string]int)
	}

	vocab := make(map[string]bool)
	for _, s := range samples {
		label := s.Label
		if label != models.LabelSuspicious {
			label = models.LabelOriginal
		}
		m.Documents[label]++
		for _, tok := range tokens(s.Title, s.Seller) {
			m.TokenCounts[label][tok]++
			m.TokenTotals[label]++
			vocab[tok] = true
		}
	}
	m.Vocabulary = len(vocab)
	return m
}

func evaluate(m *model, samples []models.Sample) float64 {
	if len(samples) == 0 {
		return 0
	}
	correct := 0
	for _, s := range samples {
		want := s.Label
		if want != models.LabelSuspicious {
			want = models.LabelOriginal
		}
		if got, _ := m.predict(s.Title, s.Seller); got == want {
			correct++
		}
	}
	return float64(correct) / float64(len(samples))
}

// predict returns the most probable label and its posterior probability.
func (m *model) predict(title, seller string) (models.Label, float64) {
	total := 0
	for _, l := range labels {
		total += m.Documents[l]
	}

	toks := tokens(title, seller)
	scores := make(map[models.Label]float64, len(labels))
	for _, l := range labels {
		if m.Documents[l] == 0 {
			scores[l] = math.Inf(-1)
			continue
		}
		score := math.Log(float64(m.Documents[l]) / float64(total))
		denom := float64(m.TokenTotals[l] + m.Vocabulary + 1)
		for _, tok := range toks {
			score += math.Log(float64(m.TokenCounts[l][tok]+1) / denom)
		}
		scores[l] = score
	}

	best := models.LabelOriginal
	if scores[models.LabelSuspicious] > scores[models.LabelOriginal] {
		best = models.LabelSuspicious
	}

	var sum float64
	for _, l := range labels {
		sum += math.Exp(scores[l] - scores[best])
	}
	return best, 1 / sum
}

func (c *KeywordClassifier) Predict(records []models.AnalyzedRecord) ([]models.AnalyzedRecord, error) {
	c.mu.RLock()
	m := c.model
	c.mu.RUnlock()

	if m == nil {
		return nil, ErrNotTrained
	}

	out := make([]models.AnalyzedRecord, len(records))
	for i, r := range records {
		out[i] = r
		out[i].Prediction, out[i].Confidence = m.predict(r.Title, r.Seller)
	}
	return out, nil
}

// ApplyHeuristicRules labels a record without a trained model.
func (c *KeywordClassifier) ApplyHeuristicRules(r models.ProductRecord) models.Label {
	if r.IsSuspicious() {
		return models.LabelSuspicious
	}
	if !r.HasIdentifiedSeller() && !strings.Contains(strings.ToLower(r.Title), "original") {
		return models.LabelSuspicious
	}
	return models.LabelOriginal
}

// Accuracy is the held-out accuracy of the current model.
func (c *KeywordClassifier) Accuracy() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.model == nil {
		return 0
	}
	return c.model.Accuracy
}

func (c *KeywordClassifier) Save(path string) error {
	c.mu.RLock()
	m := c.model
	c.mu.RUnlock()

	if m == nil {
		return ErrNotTrained
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal model: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write model: %w", err)
	}
	return os.Rename(tmp, path)
}

func (c *KeywordClassifier) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var m model
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("failed to parse model %s: %w", path, err)
	}
	if m.Version != modelVersion {
		return fmt.Errorf("unsupported model version %d in %s", m.Version, path)
	}
	if m.TokenCounts == nil {
		m.TokenCounts = make(map[models.Label]map[string]int)
	}
	for _, l := range labels {
		if m.TokenCounts[l] == nil {
			m.TokenCounts[l] = make(map[string]int)
		}
	}

	c.mu.Lock()
	c.model = &m
	c.mu.Unlock()
	return nil
}

func tokens(title, seller string) []string {
	var out []string
	out = append(out, split(title, "")...)
	out = append(out, split(seller, "seller:")...)
	return out
}

func split(s, prefix string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) < 2 {
			continue
		}
		out = append(out, prefix+f)
	}
	return out
}
