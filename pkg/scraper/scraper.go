package scraper

import (
	"context"
	"fmt"

	"tagscraper/pkg/checkpoint"
	"tagscraper/pkg/config"
	"tagscraper/pkg/danbooru"
	"tagscraper/pkg/errors"
	"tagscraper/pkg/ledger"
	"tagscraper/pkg/logger"
	"tagscraper/pkg/ratelimit"
)

// Scraper orchestrates the resumable tag collection run: fetch a page,
// project and dedup its records into the ledger, flush, checkpoint,
// sleep, advance.
type Scraper struct {
	client  TagClient
	cfg     *config.Config
	logger  logger.Logger
	pacer   *ratelimit.Pacer
	backoff ratelimit.BackoffStrategy
}

// New creates a new Scraper instance from the run configuration
func New(cfg *config.Config) (*Scraper, error) {
	log := logger.GetLogger()

	client := danbooru.NewClient(cfg.Danbooru.RequestTimeout, log)
	if cfg.Danbooru.BaseURL != "" {
		client.SetBaseURL(cfg.Danbooru.BaseURL)
	}
	if cfg.Danbooru.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.Danbooru.UserAgent)
	}
	if cfg.Danbooru.Username != "" && cfg.Danbooru.APIKey != "" {
		client.SetBasicAuth(cfg.Danbooru.Username, cfg.Danbooru.APIKey)
	}

	var backoff ratelimit.BackoffStrategy
	switch cfg.RateLimit.BackoffStrategy {
	case "exponential":
		backoff = ratelimit.NewExponentialBackoff(cfg.Scrape.Delay, cfg.RateLimit.MaxBackoff)
	default:
		backoff = &ratelimit.FixedBackoff{
			BaseDelay:  cfg.Scrape.Delay,
			Multiplier: cfg.RateLimit.BackoffMultiplier,
		}
	}

	return &Scraper{
		client:  client,
		cfg:     cfg,
		logger:  log,
		pacer:   ratelimit.NewPacer(cfg.Scrape.Delay),
		backoff: backoff,
	}, nil
}

// buildQuery assembles the page request from the run configuration
func (s *Scraper) buildQuery(page int) danbooru.TagQuery {
	q := danbooru.TagQuery{
		Page:         page,
		Order:        s.cfg.Scrape.Order,
		MinPostCount: s.cfg.Scrape.MinPostCount,
	}
	if cat, ok := danbooru.ParseCategory(s.cfg.Scrape.Category); ok {
		q.Category = &cat
	}
	return q
}

// Run executes the resumable scrape until the listing is exhausted,
// the context is canceled or a transport error occurs.
//
// A rate-limited page is retried after the backoff pause without
// advancing the page number, indefinitely. A transport error
// propagates with the checkpoint retained so a later run resumes at
// the same page; every other exit clears the checkpoint (interrupts
// too, unless keep_checkpoint_on_interrupt is set).
func (s *Scraper) Run(ctx context.Context, forceRestart bool) error {
	led, err := ledger.Load(s.cfg.Scrape.OutputFile)
	if err != nil {
		return fmt.Errorf("failed to load ledger: %w", err)
	}

	checkpoints := checkpoint.NewManager(s.cfg.Scrape.OutputFile)
	if forceRestart {
		if err := checkpoints.Clear(); err != nil {
			return fmt.Errorf("failed to clear checkpoint: %w", err)
		}
	}

	page, err := checkpoints.NextPage()
	if err != nil {
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}

	s.logger.InfoWithFields("starting scrape", map[string]interface{}{
		"output":    s.cfg.Scrape.OutputFile,
		"category":  s.cfg.Scrape.Category,
		"order":     s.cfg.Scrape.Order,
		"min_posts": s.cfg.Scrape.MinPostCount,
		"page":      page,
		"resumed":   led.Count() > 0,
	})

	interrupted := false
	attempt := 0

loop:
	for {
		if ctx.Err() != nil {
			interrupted = true
			break
		}

		tags, err := s.client.FetchTags(s.buildQuery(page))
		if err != nil {
			if errors.IsRateLimit(err) {
				attempt++
				delay := s.backoff.NextDelay(attempt)
				s.logger.WarnWithFields("rate limited, backing off", map[string]interface{}{
					"page":    page,
					"attempt": attempt,
					"delay":   delay,
				})
				if err := ratelimit.Sleep(ctx, delay); err != nil {
					interrupted = true
					break
				}
				// Retry the same page
				continue
			}

			// Transport errors are not handled here: the checkpoint
			// stays on disk so the next run resumes at this page.
			s.logger.ErrorWithFields("fetch failed, checkpoint retained", map[string]interface{}{
				"page":  page,
				"error": err.Error(),
			})
			return fmt.Errorf("failed to fetch page %d: %w", page, err)
		}

		attempt = 0
		s.backoff.Reset()

		if len(tags) == 0 {
			// End of data
			break
		}

		added := 0
		for _, tag := range tags {
			line, key, ok := projectTag(tag, s.cfg.Scrape.IncludeMetadata)
			if !ok {
				continue
			}
			if led.Append(line, key) {
				added++
			}
		}

		// Ledger first, checkpoint second: a kill between the two can
		// only lose the checkpoint, never point it past unsaved records.
		if err := led.Flush(); err != nil {
			return fmt.Errorf("failed to flush ledger: %w", err)
		}
		if err := checkpoints.Save(page + 1); err != nil {
			return fmt.Errorf("failed to save checkpoint: %w", err)
		}

		s.logger.InfoWithFields("page processed", map[string]interface{}{
			"page":  page,
			"added": added,
			"total": led.Count(),
		})

		page++

		if err := s.pacer.Wait(ctx); err != nil {
			interrupted = true
			break loop
		}
	}

	if interrupted {
		s.logger.Warn("interrupted, saving progress")
		if err := led.Flush(); err != nil {
			s.logger.WithError(err).Error("failed to flush ledger on interrupt")
		}
		if s.cfg.Scrape.KeepCheckpointOnInterrupt {
			s.logger.InfoWithFields("checkpoint retained for resume", map[string]interface{}{
				"path": checkpoints.Path(),
				"page": page,
			})
		} else if err := checkpoints.Clear(); err != nil {
			s.logger.WithError(err).Error("failed to clear checkpoint")
		}
	} else {
		s.logger.InfoWithFields("scrape complete, no more tags", map[string]interface{}{
			"total": led.Count(),
		})
		if err := checkpoints.Clear(); err != nil {
			s.logger.WithError(err).Error("failed to clear checkpoint")
		}
	}

	s.logger.InfoWithFields("saved tags", map[string]interface{}{
		"total":  led.Count(),
		"output": led.Path(),
	})

	return nil
}

// RunAll scrapes every category at once, sorted by post count. This is
// the degraded mode: no checkpointing, no resume, no filters. It
// starts from page 1 on every invocation and rewrites the ledger file
// per page, stopping only on exhaustion or error.
func (s *Scraper) RunAll(ctx context.Context) error {
	led := ledger.New(s.cfg.Scrape.OutputFile)

	s.logger.InfoWithFields("starting full dump", map[string]interface{}{
		"output": s.cfg.Scrape.OutputFile,
	})

	page := 1
	for {
		if ctx.Err() != nil {
			break
		}

		tags, err := s.client.FetchTags(danbooru.TagQuery{
			Page:  page,
			Order: "count",
		})
		if err != nil {
			s.logger.ErrorWithFields("fetch failed", map[string]interface{}{
				"page":  page,
				"error": err.Error(),
			})
			return fmt.Errorf("failed to fetch page %d: %w", page, err)
		}

		if len(tags) == 0 {
			break
		}

		for _, tag := range tags {
			line, key, ok := projectTag(tag, s.cfg.Scrape.IncludeMetadata)
			if !ok {
				continue
			}
			led.Append(line, key)
		}

		if err := led.Flush(); err != nil {
			return fmt.Errorf("failed to flush ledger: %w", err)
		}

		s.logger.InfoWithFields("page processed", map[string]interface{}{
			"page":  page,
			"total": led.Count(),
		})

		page++

		if err := s.pacer.Wait(ctx); err != nil {
			break
		}
	}

	s.logger.InfoWithFields("saved tags", map[string]interface{}{
		"total":  led.Count(),
		"output": led.Path(),
	})

	return nil
}
