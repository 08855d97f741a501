package scraper

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tagscraper/pkg/checkpoint"
	"tagscraper/pkg/config"
	"tagscraper/pkg/danbooru"
	"tagscraper/pkg/errors"
	"tagscraper/pkg/ledger"
	"tagscraper/pkg/logger"
	"tagscraper/pkg/ratelimit"
)

type fakeResponse struct {
	tags []danbooru.Tag
	err  error
}

// fakeClient serves a scripted sequence of page responses and records
// every query it receives. Once the script runs out it keeps returning
// empty pages.
type fakeClient struct {
	responses []fakeResponse
	queries   []danbooru.TagQuery
}

func (f *fakeClient) FetchTags(q danbooru.TagQuery) ([]danbooru.Tag, error) {
	f.queries = append(f.queries, q)
	if len(f.responses) == 0 {
		return []danbooru.Tag{}, nil
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp.tags, resp.err
}

func (f *fakeClient) pages() []int {
	pages := make([]int, len(f.queries))
	for i, q := range f.queries {
		pages[i] = q.Page
	}
	return pages
}

func rateLimitErr() error {
	return &errors.Error{Type: errors.ErrorTypeRateLimit, Message: "rate limit exceeded", Code: 429}
}

func newTestScraper(t *testing.T, client TagClient, cfg *config.Config) *Scraper {
	t.Helper()
	return &Scraper{
		client: client,
		cfg:    cfg,
		logger: logger.NewTestLogger(),
		pacer:  ratelimit.NewPacer(time.Millisecond),
		backoff: &ratelimit.FixedBackoff{
			BaseDelay:  time.Millisecond,
			Multiplier: 2.0,
		},
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Scrape.OutputFile = filepath.Join(t.TempDir(), "tags.txt")
	cfg.Scrape.Delay = time.Millisecond
	return cfg
}

func TestRun(t *testing.T) {
	t.Run("collects until exhaustion and clears checkpoint", func(t *testing.T) {
		cfg := testConfig(t)
		client := &fakeClient{responses: []fakeResponse{
			{tags: []danbooru.Tag{
				{Name: "1girl", PostCount: 500, Category: danbooru.CategoryGeneral},
				{Name: "solo", PostCount: 300, Category: danbooru.CategoryGeneral},
			}},
			{tags: []danbooru.Tag{
				{Name: "hatsune_miku", PostCount: 12000, Category: danbooru.CategoryCharacter},
			}},
			{tags: nil},
		}}

		s := newTestScraper(t, client, cfg)
		require.NoError(t, s.Run(context.Background(), false))

		assert.Equal(t, []int{1, 2, 3}, client.pages())

		content, err := os.ReadFile(cfg.Scrape.OutputFile)
		require.NoError(t, err)
		assert.Equal(t, "1girl\nsolo\nhatsune_miku", string(content))

		mgr := checkpoint.NewManager(cfg.Scrape.OutputFile)
		assert.False(t, mgr.Exists(), "checkpoint must be gone after a complete run")
	})

	t.Run("metadata projection", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Scrape.IncludeMetadata = true
		client := &fakeClient{responses: []fakeResponse{
			{tags: []danbooru.Tag{{Name: "1girl", PostCount: 500, Category: danbooru.CategoryGeneral}}},
		}}

		s := newTestScraper(t, client, cfg)
		require.NoError(t, s.Run(context.Background(), false))

		content, err := os.ReadFile(cfg.Scrape.OutputFile)
		require.NoError(t, err)
		assert.Equal(t, "1girl\t500\tgeneral", string(content))
	})

	t.Run("blank names are skipped", func(t *testing.T) {
		cfg := testConfig(t)
		client := &fakeClient{responses: []fakeResponse{
			{tags: []danbooru.Tag{
				{Name: "  ", PostCount: 1},
				{Name: "", PostCount: 2},
				{Name: "kept", PostCount: 3},
			}},
		}}

		s := newTestScraper(t, client, cfg)
		require.NoError(t, s.Run(context.Background(), false))

		content, err := os.ReadFile(cfg.Scrape.OutputFile)
		require.NoError(t, err)
		assert.Equal(t, "kept", string(content))
	})

	t.Run("rate limited page is retried without advancing", func(t *testing.T) {
		cfg := testConfig(t)
		client := &fakeClient{responses: []fakeResponse{
			{err: rateLimitErr()},
			{tags: []danbooru.Tag{{Name: "1girl"}}},
			{err: rateLimitErr()},
			{tags: []danbooru.Tag{{Name: "solo"}}},
			{tags: nil},
		}}

		s := newTestScraper(t, client, cfg)
		require.NoError(t, s.Run(context.Background(), false))

		assert.Equal(t, []int{1, 1, 2, 2, 3}, client.pages())

		content, err := os.ReadFile(cfg.Scrape.OutputFile)
		require.NoError(t, err)
		assert.Equal(t, "1girl\nsolo", string(content))
	})

	t.Run("transport error retains checkpoint and flushed pages", func(t *testing.T) {
		cfg := testConfig(t)
		client := &fakeClient{responses: []fakeResponse{
			{tags: []danbooru.Tag{{Name: "1girl"}}},
			{err: &errors.Error{Type: errors.ErrorTypeServerError, Message: "server error", Code: 502}},
		}}

		s := newTestScraper(t, client, cfg)
		err := s.Run(context.Background(), false)
		require.Error(t, err)

		content, readErr := os.ReadFile(cfg.Scrape.OutputFile)
		require.NoError(t, readErr)
		assert.Equal(t, "1girl", string(content))

		mgr := checkpoint.NewManager(cfg.Scrape.OutputFile)
		page, cpErr := mgr.NextPage()
		require.NoError(t, cpErr)
		assert.Equal(t, 2, page, "checkpoint must point at the failed page")
	})

	t.Run("resume starts at checkpointed page and skips known keys", func(t *testing.T) {
		cfg := testConfig(t)

		led := ledger.New(cfg.Scrape.OutputFile)
		led.Append("1girl", "1girl")
		led.Append("solo", "solo")
		require.NoError(t, led.Flush())
		require.NoError(t, checkpoint.NewManager(cfg.Scrape.OutputFile).Save(3))

		client := &fakeClient{responses: []fakeResponse{
			{tags: []danbooru.Tag{
				{Name: "solo"},
				{Name: "hatsune_miku"},
			}},
			{tags: nil},
		}}

		s := newTestScraper(t, client, cfg)
		require.NoError(t, s.Run(context.Background(), false))

		assert.Equal(t, []int{3, 4}, client.pages())

		content, err := os.ReadFile(cfg.Scrape.OutputFile)
		require.NoError(t, err)
		assert.Equal(t, "1girl\nsolo\nhatsune_miku", string(content))
	})

	t.Run("force restart ignores checkpoint", func(t *testing.T) {
		cfg := testConfig(t)
		require.NoError(t, checkpoint.NewManager(cfg.Scrape.OutputFile).Save(9))

		client := &fakeClient{responses: []fakeResponse{{tags: nil}}}
		s := newTestScraper(t, client, cfg)
		require.NoError(t, s.Run(context.Background(), true))

		assert.Equal(t, []int{1}, client.pages())
	})

	t.Run("interrupt clears checkpoint by default", func(t *testing.T) {
		cfg := testConfig(t)
		require.NoError(t, checkpoint.NewManager(cfg.Scrape.OutputFile).Save(5))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		client := &fakeClient{}
		s := newTestScraper(t, client, cfg)
		require.NoError(t, s.Run(ctx, false))

		assert.Empty(t, client.queries, "canceled context must stop before the first fetch")
		assert.False(t, checkpoint.NewManager(cfg.Scrape.OutputFile).Exists())
	})

	t.Run("interrupt keeps checkpoint when configured", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Scrape.KeepCheckpointOnInterrupt = true
		require.NoError(t, checkpoint.NewManager(cfg.Scrape.OutputFile).Save(5))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		s := newTestScraper(t, &fakeClient{}, cfg)
		require.NoError(t, s.Run(ctx, false))

		page, err := checkpoint.NewManager(cfg.Scrape.OutputFile).NextPage()
		require.NoError(t, err)
		assert.Equal(t, 5, page)
	})

	t.Run("query carries run configuration", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Scrape.Category = "character"
		cfg.Scrape.Order = "count"
		cfg.Scrape.MinPostCount = 50

		client := &fakeClient{responses: []fakeResponse{{tags: nil}}}
		s := newTestScraper(t, client, cfg)
		require.NoError(t, s.Run(context.Background(), false))

		require.Len(t, client.queries, 1)
		q := client.queries[0]
		assert.Equal(t, "count", q.Order)
		assert.Equal(t, 50, q.MinPostCount)
		require.NotNil(t, q.Category)
		assert.Equal(t, danbooru.CategoryCharacter, *q.Category)
	})

	t.Run("category all means no filter", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Scrape.Category = "all"

		client := &fakeClient{responses: []fakeResponse{{tags: nil}}}
		s := newTestScraper(t, client, cfg)
		require.NoError(t, s.Run(context.Background(), false))

		require.Len(t, client.queries, 1)
		assert.Nil(t, client.queries[0].Category)
	})
}

func TestRunAll(t *testing.T) {
	t.Run("full dump ignores existing content and checkpoints", func(t *testing.T) {
		cfg := testConfig(t)
		require.NoError(t, os.WriteFile(cfg.Scrape.OutputFile, []byte("stale_line\n"), 0644))

		client := &fakeClient{responses: []fakeResponse{
			{tags: []danbooru.Tag{{Name: "1girl", PostCount: 500}}},
			{tags: nil},
		}}

		s := newTestScraper(t, client, cfg)
		require.NoError(t, s.RunAll(context.Background()))

		require.Len(t, client.queries, 2)
		assert.Equal(t, "count", client.queries[0].Order)
		assert.Nil(t, client.queries[0].Category)
		assert.Zero(t, client.queries[0].MinPostCount)

		content, err := os.ReadFile(cfg.Scrape.OutputFile)
		require.NoError(t, err)
		assert.Equal(t, "1girl", string(content))

		assert.False(t, checkpoint.NewManager(cfg.Scrape.OutputFile).Exists())
	})

	t.Run("error propagates immediately", func(t *testing.T) {
		cfg := testConfig(t)
		client := &fakeClient{responses: []fakeResponse{
			{err: rateLimitErr()},
		}}

		s := newTestScraper(t, client, cfg)
		require.Error(t, s.RunAll(context.Background()))
		assert.Equal(t, []int{1}, client.pages())
	})
}

func TestProjectTag(t *testing.T) {
	t.Run("bare name", func(t *testing.T) {
		line, key, ok := projectTag(danbooru.Tag{Name: "1girl", PostCount: 500}, false)
		assert.True(t, ok)
		assert.Equal(t, "1girl", line)
		assert.Equal(t, "1girl", key)
	})

	t.Run("metadata tuple", func(t *testing.T) {
		tag := danbooru.Tag{Name: "hatsune_miku", PostCount: 12000, Category: danbooru.CategoryCharacter}
		line, key, ok := projectTag(tag, true)
		assert.True(t, ok)
		assert.Equal(t, "hatsune_miku\t12000\tcharacter", line)
		assert.Equal(t, "hatsune_miku", key)
	})

	t.Run("name is trimmed", func(t *testing.T) {
		line, _, ok := projectTag(danbooru.Tag{Name: "  solo  "}, false)
		assert.True(t, ok)
		assert.Equal(t, "solo", line)
	})

	t.Run("blank name skipped", func(t *testing.T) {
		_, _, ok := projectTag(danbooru.Tag{Name: "   "}, true)
		assert.False(t, ok)
	})
}
