
//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"cron-shell/internal/crawler"
	"cron-shell/internal/metrics"
	"cron-shell/internal/parser"
	"cron-shell/internal/runner"
	"cron-shell/internal/store"
	"cron-shell/pkg/logger"
)

func TestCommunityPage(t *testing.T) {
	// live moltbook community page (subject to change / blocking)
	url := "https://www.moltbook.com/m/agent-ops"

	client := crawler.NewHTTPClient(20*time.Second, 5*time.Second, 5*1024*1024, "")
	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	body, err := client.Fetch(ctx, url)
	if err != nil {
		t.Skipf("skipping: fetch failed due to network/bot protection: %v", err)
		return
	}
	if len(parser.ExtractPosts(body)) == 0 {
		t.Logf("no post links found; page markup may have changed")
	}
}

func TestRunAgainstLiveSite(t *testing.T) {
	st := store.NewFileStore(t.TempDir())
	client := crawler.NewHTTPClient(20*time.Second, 5*time.Second, 5*1024*1024, "")
	r := runner.New(st, crawler.NewTiered(st, client), "https://www.moltbook.com/m/", logger.NewNop(), metrics.New())

	opts := runner.Options{Targets: []string{"agent-ops"}, TTL: time.Hour}
	first, err := r.Run(context.Background(), opts)
	if err != nil {
		t.Skipf("skipping: live run failed: %v", err)
		return
	}
	if first.ReceiptPath == "" {
		t.Fatal("expected receipt path")
	}

	// a second run inside the TTL is served from cache and finds nothing new
	r.Now = func() time.Time { return time.Now().Add(2 * time.Second) }
	second, err := r.Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Decision != runner.DecisionNoNewSignal {
		t.Fatalf("want %s, got %s", runner.DecisionNoNewSignal, second.Decision)
	}
}
