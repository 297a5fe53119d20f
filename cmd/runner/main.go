package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"cron-shell/internal/config"
	"cron-shell/internal/crawler"
	"cron-shell/internal/ioformats"
	"cron-shell/internal/metrics"
	"cron-shell/internal/runner"
	"cron-shell/internal/store"
	"cron-shell/pkg/logger"
)

func main() {
	communities := flag.String("communities", config.DefaultTargets, "comma-separated community names")
	ttl := flag.Int("ttl", config.DefaultTTLSeconds, "cache TTL in seconds")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}
	l, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "init logger:", err)
		os.Exit(1)
	}

	err = run(cfg, l, ioformats.SplitList(*communities), time.Duration(*ttl)*time.Second)
	if err != nil {
		l.Errorf("run failed: %v", err)
	}
	_ = l.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config, l *logger.Logger, targets []string, ttl time.Duration) error {
	st := store.NewFileStore(cfg.Home)
	unlock, err := st.Lock(runner.LockKey)
	if err != nil {
		return err
	}
	defer unlock()

	client := crawler.NewHTTPClient(cfg.FetchTimeout, 5*time.Second, 5*1024*1024, cfg.UserAgent).WithLogger(l) // 5MB cap
	m := metrics.New()
	r := runner.New(st, crawler.NewTiered(st, client), cfg.BaseURL, l, m)

	out, runErr := r.Run(context.Background(), runner.Options{Targets: targets, TTL: ttl})
	if err := m.WriteTextfile(st.Path(metrics.TextfileKey)); err != nil {
		l.Warnf("metrics: %v", err)
	}
	if runErr != nil {
		return runErr
	}
	l.Infof("decision=%s result=%s receipt=%s digest=%s", out.Decision, out.ResultPath, out.ReceiptPath, out.DigestPath)
	return nil
}
