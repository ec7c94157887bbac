package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/amazon-piracy-detector/internal/models"
	"github.com/maltedev/amazon-piracy-detector/internal/suspicion"
)

type MockScraper struct {
	mock.Mock
}

func (m *MockScraper) Harvest(ctx context.Context, term string) ([]models.ProductRecord, error) {
	args := m.Called(ctx, term)
	out, _ := args.Get(0).([]models.ProductRecord)
	return out, args.Error(1)
}

type MockClassifier struct {
	mock.Mock
}

func (m *MockClassifier) IsTrained() bool {
	return m.Called().Bool(0)
}

func (m *MockClassifier) Train(samples []models.Sample) (float64, error) {
	args := m.Called(samples)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockClassifier) Save(path string) error {
	return m.Called(path).Error(0)
}

func (m *MockClassifier) Load(path string) error {
	return m.Called(path).Error(0)
}

func (m *MockClassifier) Accuracy() float64 {
	return m.Called().Get(0).(float64)
}

func (m *MockClassifier) Predict(records []models.AnalyzedRecord) ([]models.AnalyzedRecord, error) {
	args := m.Called(records)
	if fn, ok := args.Get(0).(func([]models.AnalyzedRecord) []models.AnalyzedRecord); ok {
		return fn(records), args.Error(1)
	}
	out, _ := args.Get(0).([]models.AnalyzedRecord)
	return out, args.Error(1)
}

func (m *MockClassifier) ApplyHeuristicRules(r models.ProductRecord) models.Label {
	return m.Called(r).Get(0).(models.Label)
}

func (m *MockClassifier) AnalyzeRiskLevel(records []models.AnalyzedRecord) ([]models.AnalyzedRecord, error) {
	args := m.Called(records)
	if fn, ok := args.Get(0).(func([]models.AnalyzedRecord) []models.AnalyzedRecord); ok {
		return fn(records), args.Error(1)
	}
	out, _ := args.Get(0).([]models.AnalyzedRecord)
	return out, args.Error(1)
}

type MockAlerter struct {
	mock.Mock
}

func (m *MockAlerter) Alert(ctx context.Context, records []models.AnalyzedRecord) (int, error) {
	args := m.Called(ctx, records)
	return args.Int(0), args.Error(1)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

type countingLimiter struct{ waits int }

func (l *countingLimiter) Wait(context.Context) error  { l.waits++; return nil }
func (l *countingLimiter) SetDelay(_, _ time.Duration) {}

func highRisk(records []models.AnalyzedRecord) []models.AnalyzedRecord {
	for i := range records {
		records[i].RiskScore = 5
		records[i].RiskLevel = models.RiskHigh
	}
	return records
}

func price(v float64) *float64 { return &v }

type fixture struct {
	dir        string
	scraper    *MockScraper
	classifier *MockClassifier
	alerter    *MockAlerter
	closed     int
	opts       Options
}

func newFixture(t *testing.T, terms ...string) *fixture {
	dir := t.TempDir()
	return &fixture{
		dir:        dir,
		scraper:    new(MockScraper),
		classifier: new(MockClassifier),
		alerter:    new(MockAlerter),
		opts: Options{
			SearchTerms:  terms,
			DatasetFiles: []string{filepath.Join(dir, "base_dados.csv")},
			ModelFile:    filepath.Join(dir, "model.json"),
			ResultsFile:  filepath.Join(dir, "results", "results.csv"),
			ReportFile:   filepath.Join(dir, "results", "report.html"),
		},
	}
}

func (f *fixture) pipeline() *Pipeline {
	return New(Deps{
		Scraper:    f.scraper,
		Classifier: f.classifier,
		Assessor:   suspicion.New(suspicion.DefaultKeywords()),
		Alerter:    f.alerter,
		Closer:     closerFunc(func() error { f.closed++; return nil }),
	}, f.opts)
}

// untrained sets up a classifier with no saved model and no dataset.
func (f *fixture) untrained() {
	f.classifier.On("IsTrained").Return(false)
	f.classifier.On("Load", f.opts.ModelFile).Return(fmt.Errorf("open: %w", os.ErrNotExist))
}

func TestPipeline_ZeroRecordsStopsEarly(t *testing.T) {
	f := newFixture(t, "cartucho hp 664")
	f.untrained()
	f.scraper.On("Harvest", mock.Anything, "cartucho hp 664").Return(nil, nil)

	res, err := f.pipeline().Run(context.Background())

	require.NoError(t, err)
	assert.Empty(t, res.Records)
	assert.Zero(t, res.Harvested)
	assert.Empty(t, res.Failures)
	assert.Equal(t, 1, f.closed)

	f.classifier.AssertNotCalled(t, "Predict", mock.Anything)
	f.classifier.AssertNotCalled(t, "ApplyHeuristicRules", mock.Anything)
	f.classifier.AssertNotCalled(t, "AnalyzeRiskLevel", mock.Anything)
	f.alerter.AssertNotCalled(t, "Alert", mock.Anything, mock.Anything)

	assert.NoFileExists(t, f.opts.ResultsFile)
	assert.NoFileExists(t, f.opts.ReportFile)
}

func TestPipeline_MissingPriceStillClassified(t *testing.T) {
	f := newFixture(t, "cartucho hp 664")
	f.untrained()
	f.scraper.On("Harvest", mock.Anything, "cartucho hp 664").Return([]models.ProductRecord{
		{ASIN: "B000000001", Title: "Cartucho HP 664 Preto Original", Seller: "Amazon.com.br", SearchTerm: "cartucho hp 664"},
		{ASIN: "B000000002", Title: "Cartucho compatível 664 preto", Seller: "Loja X", Price: price(19.9), SearchTerm: "cartucho hp 664"},
	}, nil)
	f.classifier.On("ApplyHeuristicRules", mock.Anything).Return(models.LabelOriginal)
	f.classifier.On("AnalyzeRiskLevel", mock.Anything).Return(highRisk, nil)
	f.alerter.On("Alert", mock.Anything, mock.Anything).Return(2, nil)

	res, err := f.pipeline().Run(context.Background())

	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	assert.Nil(t, res.Records[0].Price)
	for _, r := range res.Records {
		assert.Equal(t, models.LabelOriginal, r.Prediction)
		assert.Equal(t, DefaultConfidence, r.Confidence)
		assert.Equal(t, models.RiskHigh, r.RiskLevel)
		assert.False(t, r.AnalyzedAt.IsZero())
	}
	assert.Equal(t, 2, res.HighRisk)
	assert.Equal(t, 1, res.Suspicious)
	assert.Empty(t, res.Failures)

	assert.FileExists(t, f.opts.ResultsFile)
	assert.FileExists(t, f.opts.ReportFile)
	f.alerter.AssertExpectations(t)
}

func TestPipeline_TermFailureDoesNotStopOthers(t *testing.T) {
	f := newFixture(t, "a", "b")
	f.untrained()
	f.scraper.On("Harvest", mock.Anything, "a").Return(nil, errors.New("navigation timeout"))
	f.scraper.On("Harvest", mock.Anything, "b").Return([]models.ProductRecord{
		{ASIN: "B000000003", Title: "Cartucho HP 662 Colorido", Seller: "Loja Y", SearchTerm: "b"},
	}, nil)
	f.classifier.On("ApplyHeuristicRules", mock.Anything).Return(models.LabelOriginal)
	f.classifier.On("AnalyzeRiskLevel", mock.Anything).Return(func(r []models.AnalyzedRecord) []models.AnalyzedRecord { return r }, nil)
	f.alerter.On("Alert", mock.Anything, mock.Anything).Return(0, nil)

	limiter := &countingLimiter{}
	p := f.pipeline()
	p.deps.Limiter = limiter

	res, err := p.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, res.Harvested)
	assert.Equal(t, "b", res.Records[0].SearchTerm)
	assert.Equal(t, 1, limiter.waits)
	assert.Empty(t, res.Failures)
}

func TestPipeline_StageFailureContinues(t *testing.T) {
	f := newFixture(t, "a")
	f.untrained()
	f.scraper.On("Harvest", mock.Anything, "a").Return([]models.ProductRecord{
		{ASIN: "B000000004", Title: "Cartucho HP 667 Preto", Seller: "Loja Z", SearchTerm: "a"},
	}, nil)
	f.classifier.On("ApplyHeuristicRules", mock.Anything).Return(models.LabelSuspicious)
	f.classifier.On("AnalyzeRiskLevel", mock.Anything).Return(nil, errors.New("boom"))
	f.alerter.On("Alert", mock.Anything, mock.Anything).Return(0, nil)

	res, err := f.pipeline().Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{StageRisk}, res.FailedStages())
	assert.ErrorContains(t, res.Failures[0], "boom")
	require.Len(t, res.Records, 1)
	assert.Equal(t, models.LabelSuspicious, res.Records[0].Prediction)

	assert.FileExists(t, f.opts.ResultsFile)
	assert.FileExists(t, f.opts.ReportFile)
	f.alerter.AssertExpectations(t)
}

func TestPipeline_ReportFailureDoesNotSkipAlert(t *testing.T) {
	f := newFixture(t, "a")
	blocker := filepath.Join(f.dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	f.opts.ReportFile = filepath.Join(blocker, "report.html")

	f.untrained()
	f.scraper.On("Harvest", mock.Anything, "a").Return([]models.ProductRecord{
		{ASIN: "B000000005", Title: "Cartucho HP 667XL Tricolor", Seller: "Loja Z", SearchTerm: "a"},
	}, nil)
	f.classifier.On("ApplyHeuristicRules", mock.Anything).Return(models.LabelSuspicious)
	f.classifier.On("AnalyzeRiskLevel", mock.Anything).Return(highRisk, nil)
	f.alerter.On("Alert", mock.Anything, mock.Anything).Return(1, nil)

	res, err := f.pipeline().Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{StageReport}, res.FailedStages())
	assert.FileExists(t, f.opts.ResultsFile)
	f.alerter.AssertExpectations(t)
}

func TestPipeline_PanickingStageIsContained(t *testing.T) {
	f := newFixture(t, "a")
	f.untrained()
	f.scraper.On("Harvest", mock.Anything, "a").Return([]models.ProductRecord{
		{ASIN: "B000000006", Title: "Cartucho HP 664 Tricolor", Seller: "Loja Z", SearchTerm: "a"},
	}, nil)
	f.classifier.On("ApplyHeuristicRules", mock.Anything).Return(models.LabelOriginal)
	f.classifier.On("AnalyzeRiskLevel", mock.Anything).Return(func(r []models.AnalyzedRecord) []models.AnalyzedRecord { return r }, nil)
	f.alerter.On("Alert", mock.Anything, mock.Anything).Panic("alert backend exploded")

	var res Result
	assert.NotPanics(t, func() {
		res, _ = f.pipeline().Run(context.Background())
	})
	assert.Equal(t, []string{StageAlert}, res.FailedStages())
	assert.Equal(t, 1, f.closed)
}

func TestPipeline_TrainsAndSavesFromDataset(t *testing.T) {
	f := newFixture(t, "a")
	dataset := "title,seller,label\nCartucho compatível,Loja X,SUSPICIOUS\nCartucho original HP,Amazon.com.br,ORIGINAL\n"
	require.NoError(t, os.WriteFile(f.opts.DatasetFiles[0], []byte(dataset), 0o644))

	f.classifier.On("IsTrained").Return(false).Once()
	f.classifier.On("IsTrained").Return(true)
	f.classifier.On("Load", f.opts.ModelFile).Return(os.ErrNotExist)
	f.classifier.On("Train", mock.MatchedBy(func(s []models.Sample) bool { return len(s) == 2 })).Return(1.0, nil)
	f.classifier.On("Save", f.opts.ModelFile).Return(nil)
	f.scraper.On("Harvest", mock.Anything, "a").Return([]models.ProductRecord{
		{ASIN: "B000000007", Title: "Cartucho compatível HP 664", Seller: "Loja X", SearchTerm: "a"},
	}, nil)
	f.classifier.On("Predict", mock.Anything).Return(func(r []models.AnalyzedRecord) []models.AnalyzedRecord {
		for i := range r {
			r[i].Prediction = models.LabelSuspicious
			r[i].Confidence = 0.9
		}
		return r
	}, nil)
	f.classifier.On("AnalyzeRiskLevel", mock.Anything).Return(func(r []models.AnalyzedRecord) []models.AnalyzedRecord { return r }, nil)
	f.alerter.On("Alert", mock.Anything, mock.Anything).Return(0, nil)

	res, err := f.pipeline().Run(context.Background())

	require.NoError(t, err)
	f.classifier.AssertCalled(t, "Train", mock.Anything)
	f.classifier.AssertCalled(t, "Save", f.opts.ModelFile)
	f.classifier.AssertNotCalled(t, "ApplyHeuristicRules", mock.Anything)
	require.Len(t, res.Records, 1)
	assert.Equal(t, 0.9, res.Records[0].Confidence)
}

func TestPipeline_LoadsSavedModel(t *testing.T) {
	f := newFixture(t)
	f.classifier.On("IsTrained").Return(false)
	f.classifier.On("Load", f.opts.ModelFile).Return(nil)
	f.classifier.On("Accuracy").Return(0.875)

	_, err := f.pipeline().Run(context.Background())

	require.NoError(t, err)
	f.classifier.AssertNotCalled(t, "Train", mock.Anything)
	f.classifier.AssertCalled(t, "Accuracy")
}

func TestPipeline_PredictErrorFallsBackToRules(t *testing.T) {
	f := newFixture(t, "a")
	f.classifier.On("IsTrained").Return(true)
	f.scraper.On("Harvest", mock.Anything, "a").Return([]models.ProductRecord{
		{ASIN: "B000000008", Title: "Cartucho HP 664 Preto", SearchTerm: "a", Seller: models.SellerUnidentified},
	}, nil)
	f.classifier.On("Predict", mock.Anything).Return(nil, errors.New("corrupt model"))
	f.classifier.On("ApplyHeuristicRules", mock.Anything).Return(models.LabelSuspicious)
	f.classifier.On("AnalyzeRiskLevel", mock.Anything).Return(func(r []models.AnalyzedRecord) []models.AnalyzedRecord { return r }, nil)
	f.alerter.On("Alert", mock.Anything, mock.Anything).Return(0, nil)

	res, err := f.pipeline().Run(context.Background())

	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, models.LabelSuspicious, res.Records[0].Prediction)
	assert.Equal(t, DefaultConfidence, res.Records[0].Confidence)
	assert.Empty(t, res.Failures)
}

func TestPipeline_MergePrefersDetailedValues(t *testing.T) {
	f := newFixture(t, "a")
	f.untrained()
	f.scraper.On("Harvest", mock.Anything, "a").Return([]models.ProductRecord{
		{
			ASIN: "B000000009", Title: "Cartucho HP 664 Preto", SearchTerm: "a",
			Seller: models.SellerUnidentified, Price: price(50),
			SellerDetailed: "Marketplace Terceiros", PriceDetailed: price(45.5),
		},
	}, nil)
	f.classifier.On("ApplyHeuristicRules", mock.Anything).Return(models.LabelSuspicious)
	f.classifier.On("AnalyzeRiskLevel", mock.Anything).Return(func(r []models.AnalyzedRecord) []models.AnalyzedRecord { return r }, nil)
	f.alerter.On("Alert", mock.Anything, mock.Anything).Return(0, nil)

	res, err := f.pipeline().Run(context.Background())

	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	r := res.Records[0]
	assert.Equal(t, "Marketplace Terceiros", r.Seller)
	assert.Equal(t, 45.5, *r.Price)
	assert.True(t, r.IsSuspicious())
	assert.Contains(t, r.SuspicionReasons(), "seller: 'marketplace'")
}

func TestPipeline_CancelledContext(t *testing.T) {
	f := newFixture(t, "a")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.pipeline().Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, f.closed)
	f.scraper.AssertNotCalled(t, "Harvest", mock.Anything, mock.Anything)
}
