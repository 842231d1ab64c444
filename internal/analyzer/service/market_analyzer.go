package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"etf-trend-analyzer/internal/analyzer/cache"
	"etf-trend-analyzer/internal/analyzer/config"
	"etf-trend-analyzer/internal/analyzer/dto"
	"etf-trend-analyzer/internal/analyzer/repository"
	"etf-trend-analyzer/internal/analyzer/trend"
	"etf-trend-analyzer/internal/entity"
	"etf-trend-analyzer/pkg/logger"
	"etf-trend-analyzer/pkg/utils"
)

// MarketAnalyzerService runs one analysis: resolve price and news through
// the cache layer, classify the trend, persist the outcome best-effort, and
// return a report for rendering and notification.
type MarketAnalyzerService interface {
	Analyze(ctx context.Context) (*dto.Report, error)
}

type marketAnalyzerService struct {
	cfg        *config.Config
	log        *logger.Logger
	dataCache  *cache.Cache
	priceRepo  repository.PriceRepository
	newsRepo   repository.NewsRepository
	recordRepo repository.AnalysisRecordRepository
	now        func() time.Time
}

// NewMarketAnalyzerService creates a new MarketAnalyzerService.
func NewMarketAnalyzerService(
	cfg *config.Config,
	log *logger.Logger,
	dataCache *cache.Cache,
	priceRepo repository.PriceRepository,
	newsRepo repository.NewsRepository,
	recordRepo repository.AnalysisRecordRepository,
) MarketAnalyzerService {
	return &marketAnalyzerService{
		cfg:        cfg,
		log:        log,
		dataCache:  dataCache,
		priceRepo:  priceRepo,
		newsRepo:   newsRepo,
		recordRepo: recordRepo,
		now:        time.Now,
	}
}

func (s *marketAnalyzerService) Analyze(ctx context.Context) (*dto.Report, error) {
	started := s.now()
	symbol := s.cfg.Analyzer.Symbol
	bucket := utils.DayBucket(started, s.cfg.Location())
	newsQuery := s.newsQuery(ctx, symbol)

	var (
		wg sync.WaitGroup

		series       entity.PriceSeries
		priceOutcome cache.Outcome
		priceErr     error

		news        []entity.NewsArticle
		newsOutcome cache.Outcome
		newsErr     error
	)

	// Price and news resolution are independent; run them concurrently and
	// keep their failures isolated from each other.
	wg.Add(2)
	utils.GoSafe(func() {
		defer wg.Done()
		series, priceOutcome, priceErr = cache.GetOrFetch(ctx, s.dataCache, cache.KindPrice, symbol, bucket, s.cfg.Cache.PriceTTL,
			func(ctx context.Context) (entity.PriceSeries, error) {
				return s.priceRepo.GetPriceHistory(ctx, dto.GetPriceHistoryParam{
					Symbol: symbol,
					Period: s.cfg.Analyzer.Period,
				})
			})
	})
	utils.GoSafe(func() {
		defer wg.Done()
		news, newsOutcome, newsErr = cache.GetOrFetch(ctx, s.dataCache, cache.KindNews, newsQuery, bucket, s.cfg.Cache.NewsTTL,
			func(ctx context.Context) ([]entity.NewsArticle, error) {
				return s.newsRepo.GetNews(ctx, dto.GetNewsParam{
					Query:      newsQuery,
					WindowDays: s.cfg.News.LookbackDays,
					Limit:      s.cfg.News.Limit,
				})
			})
	})
	wg.Wait()

	if priceErr != nil {
		return nil, fmt.Errorf("%w: %v", dto.ErrPriceUnavailable, priceErr)
	}
	if series.IsEmpty() {
		return nil, fmt.Errorf("%w: provider returned an empty series for %s", dto.ErrPriceUnavailable, symbol)
	}
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", dto.ErrPriceUnavailable, err)
	}

	degraded := priceOutcome.StoreDegraded || newsOutcome.StoreDegraded
	if newsErr != nil {
		// News is supplementary: degrade the report instead of failing it.
		s.log.WarnContext(ctx, "News fetch failed, continuing with empty snapshot",
			logger.StringField("query", newsQuery), logger.ErrorField(newsErr))
		news = nil
		degraded = true
	}
	news = entity.DeduplicateNewsByURL(news)

	result, err := trend.Classify(series, trend.Params{
		ShortWindow:        s.cfg.Analyzer.ShortWindow,
		LongWindow:         s.cfg.Analyzer.LongWindow,
		Epsilon:            s.cfg.Analyzer.MAEpsilon,
		ChangePctPrecision: s.cfg.Analyzer.ChangePctPrecision,
	})
	if err != nil {
		return nil, err
	}

	// A cancelled run must not leave a partial record behind.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if persistErr := s.persist(ctx, result, news); persistErr != nil {
		s.log.ErrorContext(ctx, "Failed to persist analysis record, continuing degraded",
			logger.StringField("symbol", symbol), logger.ErrorField(persistErr))
		degraded = true
	}

	s.log.InfoContext(ctx, "Analysis completed",
		logger.StringField("symbol", symbol),
		logger.StringField("verdict", string(result.Verdict)),
		logger.Field("change_pct", result.ChangePct),
		logger.Field("degraded", degraded),
		logger.DurationField("duration", time.Since(started)))

	return &dto.Report{
		TrendResult: result,
		PriceSeries: series,
		News:        news,
		Degraded:    degraded,
	}, nil
}

// persist appends the audit record. It runs only after classification has
// completed so a stored record always reflects a fully computed result.
func (s *marketAnalyzerService) persist(ctx context.Context, result entity.TrendResult, news []entity.NewsArticle) error {
	record, err := entity.NewAnalysisRecord(result, news)
	if err != nil {
		return err
	}
	return s.recordRepo.Create(ctx, record)
}

// newsQuery picks the query matching the previous run's verdict. First run,
// unreadable history, or a neutral previous verdict all fall back to the
// bullish query.
func (s *marketAnalyzerService) newsQuery(ctx context.Context, symbol string) string {
	latest, err := s.recordRepo.GetLatest(ctx, symbol)
	if err != nil {
		s.log.DebugContext(ctx, "Could not load previous analysis for news query selection", logger.ErrorField(err))
		return s.cfg.News.BullishQuery
	}
	if latest == nil {
		return s.cfg.News.BullishQuery
	}
	previous, err := latest.DecodeTrendResult()
	if err != nil {
		s.log.Warn("Failed to decode previous trend result", logger.ErrorField(err))
		return s.cfg.News.BullishQuery
	}
	if previous.Verdict == entity.VerdictBearish {
		return s.cfg.News.BearishQuery
	}
	return s.cfg.News.BullishQuery
}
