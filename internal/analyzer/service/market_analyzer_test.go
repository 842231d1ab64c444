package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"etf-trend-analyzer/internal/analyzer/cache"
	"etf-trend-analyzer/internal/analyzer/config"
	"etf-trend-analyzer/internal/analyzer/dto"
	"etf-trend-analyzer/internal/entity"
	"etf-trend-analyzer/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[string][]byte)}
}

func (s *memStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, ok := s.entries[key]
	if !ok {
		return nil, cache.ErrNotFound
	}
	return payload, nil
}

func (s *memStore) Set(_ context.Context, key string, payload []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = payload
	return nil
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection refused")
}

func (failingStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}

type fakePriceRepo struct {
	series entity.PriceSeries
	err    error
	calls  int
}

func (f *fakePriceRepo) GetPriceHistory(context.Context, dto.GetPriceHistoryParam) (entity.PriceSeries, error) {
	f.calls++
	return f.series, f.err
}

type fakeNewsRepo struct {
	articles  []entity.NewsArticle
	err       error
	lastQuery string
}

func (f *fakeNewsRepo) GetNews(_ context.Context, param dto.GetNewsParam) ([]entity.NewsArticle, error) {
	f.lastQuery = param.Query
	return f.articles, f.err
}

type fakeRecordRepo struct {
	createErr error
	latestErr error
	latest    *entity.AnalysisRecord
	created   []*entity.AnalysisRecord
}

func (f *fakeRecordRepo) Create(_ context.Context, record *entity.AnalysisRecord) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, record)
	return nil
}

func (f *fakeRecordRepo) GetLatest(context.Context, string) (*entity.AnalysisRecord, error) {
	return f.latest, f.latestErr
}

func (f *fakeRecordRepo) GetRecent(context.Context, string, int) ([]entity.AnalysisRecord, error) {
	return nil, nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Analyzer.Symbol = "VWRA.L"
	cfg.Analyzer.Period = "1mo"
	cfg.Analyzer.ShortWindow = 5
	cfg.Analyzer.LongWindow = 10
	cfg.Analyzer.ChangePctPrecision = 2
	cfg.Cache.PriceTTL = time.Minute
	cfg.Cache.NewsTTL = time.Hour
	cfg.News.LookbackDays = 7
	cfg.News.Limit = 5
	cfg.News.BullishQuery = "market rally"
	cfg.News.BearishQuery = "market decline"
	return cfg
}

func testSeries(closes ...float64) entity.PriceSeries {
	if len(closes) == 0 {
		closes = []float64{139.5, 140.6, 141.4, 142.0, 142.9, 142.62, 142.9, 143.1, 143.2, 143.78}
	}
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	series := entity.PriceSeries{Symbol: "VWRA.L", Period: "1mo"}
	for i, c := range closes {
		series.Points = append(series.Points, entity.PricePoint{Date: start.AddDate(0, 0, i), Close: c})
	}
	return series
}

func testNews() []entity.NewsArticle {
	return []entity.NewsArticle{
		{Title: "Markets rally", URL: "https://example.com/a", PublishedAt: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), Source: "Example"},
		{Title: "Duplicate", URL: "https://example.com/a", PublishedAt: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), Source: "Example"},
		{Title: "Growth ahead", URL: "https://example.com/b", PublishedAt: time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC), Source: "Example"},
	}
}

func newTestService(store cache.Store, priceRepo *fakePriceRepo, newsRepo *fakeNewsRepo, recordRepo *fakeRecordRepo) MarketAnalyzerService {
	log := logger.NewNop()
	return NewMarketAnalyzerService(testConfig(), log, cache.New(store, log), priceRepo, newsRepo, recordRepo)
}

func TestAnalyze_Success(t *testing.T) {
	priceRepo := &fakePriceRepo{series: testSeries()}
	newsRepo := &fakeNewsRepo{articles: testNews()}
	recordRepo := &fakeRecordRepo{}

	svc := newTestService(newMemStore(), priceRepo, newsRepo, recordRepo)
	report, err := svc.Analyze(context.Background())
	require.NoError(t, err)

	assert.Equal(t, entity.VerdictBullish, report.TrendResult.Verdict)
	assert.InDelta(t, 3.07, report.TrendResult.ChangePct, 1e-9)
	assert.False(t, report.Degraded)
	assert.Len(t, report.News, 2, "news must be deduplicated by URL")
	assert.Equal(t, "market rally", newsRepo.lastQuery)

	require.Len(t, recordRepo.created, 1)
	persisted, err := recordRepo.created[0].DecodeTrendResult()
	require.NoError(t, err)
	assert.Equal(t, report.TrendResult, persisted)
}

func TestAnalyze_SecondRunServedFromCache(t *testing.T) {
	priceRepo := &fakePriceRepo{series: testSeries()}
	newsRepo := &fakeNewsRepo{articles: testNews()}
	recordRepo := &fakeRecordRepo{}

	svc := newTestService(newMemStore(), priceRepo, newsRepo, recordRepo)

	_, err := svc.Analyze(context.Background())
	require.NoError(t, err)
	_, err = svc.Analyze(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, priceRepo.calls, "second run within the bucket must be served from cache")
	assert.Len(t, recordRepo.created, 2, "every run is persisted regardless of cache hits")
}

func TestAnalyze_PriceFetchFailureIsFatal(t *testing.T) {
	priceRepo := &fakePriceRepo{err: errors.New("provider down")}
	svc := newTestService(newMemStore(), priceRepo, &fakeNewsRepo{}, &fakeRecordRepo{})

	_, err := svc.Analyze(context.Background())
	assert.ErrorIs(t, err, dto.ErrPriceUnavailable)
}

func TestAnalyze_EmptySeriesIsPriceUnavailable(t *testing.T) {
	priceRepo := &fakePriceRepo{series: entity.PriceSeries{Symbol: "VWRA.L"}}
	svc := newTestService(newMemStore(), priceRepo, &fakeNewsRepo{}, &fakeRecordRepo{})

	_, err := svc.Analyze(context.Background())
	assert.ErrorIs(t, err, dto.ErrPriceUnavailable)
}

func TestAnalyze_ShortSeriesIsInsufficientData(t *testing.T) {
	priceRepo := &fakePriceRepo{series: testSeries(100, 101, 102)}
	svc := newTestService(newMemStore(), priceRepo, &fakeNewsRepo{}, &fakeRecordRepo{})

	_, err := svc.Analyze(context.Background())
	assert.ErrorIs(t, err, dto.ErrInsufficientData)
}

func TestAnalyze_NewsFailureDegradesReport(t *testing.T) {
	priceRepo := &fakePriceRepo{series: testSeries()}
	newsRepo := &fakeNewsRepo{err: errors.New("news provider down")}
	recordRepo := &fakeRecordRepo{}

	svc := newTestService(newMemStore(), priceRepo, newsRepo, recordRepo)
	report, err := svc.Analyze(context.Background())
	require.NoError(t, err, "news is supplementary, its failure must not fail the run")

	assert.True(t, report.Degraded)
	assert.Empty(t, report.News)
	assert.Equal(t, entity.VerdictBullish, report.TrendResult.Verdict)
	assert.Len(t, recordRepo.created, 1)
}

func TestAnalyze_PersistenceFailureDegradesReport(t *testing.T) {
	priceRepo := &fakePriceRepo{series: testSeries()}
	recordRepo := &fakeRecordRepo{createErr: dto.ErrStorageUnavailable, latestErr: dto.ErrStorageUnavailable}

	svc := newTestService(newMemStore(), priceRepo, &fakeNewsRepo{articles: testNews()}, recordRepo)
	report, err := svc.Analyze(context.Background())
	require.NoError(t, err, "persistence is best-effort, its failure must not fail the run")

	assert.True(t, report.Degraded)
	assert.Equal(t, entity.VerdictBullish, report.TrendResult.Verdict)
	assert.NotEmpty(t, report.News)
}

func TestAnalyze_CacheUnavailableDegradesReport(t *testing.T) {
	priceRepo := &fakePriceRepo{series: testSeries()}
	recordRepo := &fakeRecordRepo{}

	svc := newTestService(failingStore{}, priceRepo, &fakeNewsRepo{articles: testNews()}, recordRepo)
	report, err := svc.Analyze(context.Background())
	require.NoError(t, err, "a dead cache store must never fail the run")

	assert.True(t, report.Degraded)
	assert.Equal(t, entity.VerdictBullish, report.TrendResult.Verdict)
	assert.Len(t, recordRepo.created, 1)
}

func TestAnalyze_BearishHistorySelectsBearishQuery(t *testing.T) {
	previous, err := entity.NewAnalysisRecord(entity.TrendResult{
		Symbol:  "VWRA.L",
		AsOf:    time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		Verdict: entity.VerdictBearish,
	}, nil)
	require.NoError(t, err)

	priceRepo := &fakePriceRepo{series: testSeries()}
	newsRepo := &fakeNewsRepo{articles: testNews()}
	svc := newTestService(newMemStore(), priceRepo, newsRepo, &fakeRecordRepo{latest: previous})

	_, err = svc.Analyze(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "market decline", newsRepo.lastQuery)
}

func TestAnalyze_CancelledRunIsNotPersisted(t *testing.T) {
	priceRepo := &fakePriceRepo{series: testSeries()}
	recordRepo := &fakeRecordRepo{}
	svc := newTestService(newMemStore(), priceRepo, &fakeNewsRepo{}, recordRepo)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Analyze(ctx)
	assert.Error(t, err)
	assert.Empty(t, recordRepo.created, "a cancelled run must not leave a partial record")
}
