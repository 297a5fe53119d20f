// Package runner performs one pass over the configured community pages:
// fetch through the cache, extract posts, diff against the ids seen by
// earlier runs and write the result, receipt, digest and state.
package runner

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cron-shell/internal/classifier"
	"cron-shell/internal/digest"
	"cron-shell/internal/metrics"
	"cron-shell/internal/models"
	"cron-shell/internal/parser"
	"cron-shell/internal/receipt"
	"cron-shell/internal/store"
	"cron-shell/pkg/logger"
)

const (
	StateKey   = "state/state.json"
	LockKey    = "state/.runner.lock"
	ResultsDir = "artifacts/results/"

	// MaxSeenIDs bounds the persisted lastSeenIds list.
	MaxSeenIDs = 2000
	// SampleSize is how many new ids the digest lists.
	SampleSize = 5

	DecisionNoNewSignal = "no-new-signal-exit"
	noNewSignalNote     = "No new post ids compared to state.lastSeenIds"
)

// Kind is the branch a run ended in.
type Kind int

const (
	NoNewSignal Kind = iota
	NewItems
)

func (k Kind) String() string {
	if k == NewItems {
		return "new-items"
	}
	return "no-new-signal"
}

// PageFetcher returns a page body, from cache when younger than ttl.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string, ttl time.Duration) (models.FetchResult, error)
}

type Options struct {
	Targets []string
	TTL     time.Duration
}

// Outcome describes a finished run.
type Outcome struct {
	RunID       string
	Kind        Kind
	Decision    string
	NewIDs      []string
	ResultPath  string
	ReceiptPath string
	DigestPath  string
}

// Runner may be built as a literal. Nil Log, Metrics, Now and Receipts are
// filled with a no-op logger, a private registry, time.Now and a receipt
// writer over Store on first Run.
type Runner struct {
	Store    store.Store
	Fetcher  PageFetcher
	Receipts *receipt.Writer
	BaseURL  string
	Now      func() time.Time
	Log      *logger.Logger
	Metrics  *metrics.Metrics
}

func New(s store.Store, f PageFetcher, baseURL string, log *logger.Logger, m *metrics.Metrics) *Runner {
	if log == nil {
		log = logger.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	r := &Runner{
		Store:   s,
		Fetcher: f,
		BaseURL: baseURL,
		Now:     time.Now,
		Log:     log,
		Metrics: m,
	}
	r.Receipts = &receipt.Writer{Store: s, Now: func() time.Time { return r.Now() }}
	return r
}

// RunID formats t at second granularity so ids sort by time.
func RunID(t time.Time) string { return t.Format("20060102-150405") }

// InputsHash is the sha1 of the sorted-key JSON of the run inputs. Target
// order is significant.
func InputsHash(targets []string, ttl time.Duration) string {
	if targets == nil {
		targets = []string{}
	}
	b, _ := json.Marshal(map[string]any{"targets": targets, "ttl": int64(ttl / time.Second)})
	sum := sha1.Sum(b)
	return hex.EncodeToString(sum[:])
}

// DiffNew returns the ids not in seen, in order, each once.
func DiffNew(ids, seen []string) []string {
	skip := make(map[string]struct{}, len(seen)+len(ids))
	for _, id := range seen {
		skip[id] = struct{}{}
	}
	out := []string{}
	for _, id := range ids {
		if _, ok := skip[id]; ok {
			continue
		}
		skip[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// MergeSeen appends fresh to seen, keeps each id at its last position and
// retains the newest max entries.
func MergeSeen(seen, fresh []string, max int) []string {
	all := append(append([]string{}, seen...), fresh...)
	kept := map[string]struct{}{}
	rev := make([]string, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		if _, ok := kept[all[i]]; ok {
			continue
		}
		kept[all[i]] = struct{}{}
		rev = append(rev, all[i])
	}
	out := make([]string, len(rev))
	for i, id := range rev {
		out[len(rev)-1-i] = id
	}
	if len(out) > max {
		out = out[len(out)-max:]
	}
	return out
}

func (r *Runner) loadState() (models.RunState, error) {
	var st models.RunState
	if _, err := r.Store.Load(StateKey, &st); err != nil {
		return models.RunState{}, fmt.Errorf("load state: %w", err)
	}
	if st.LastSeenIDs == nil {
		st.LastSeenIDs = []string{}
	}
	return st, nil
}

// Run executes one pass. Any fetch failure aborts before anything is
// written for this run.
func (r *Runner) Run(ctx context.Context, opts Options) (Outcome, error) {
	if r.Log == nil {
		r.Log = logger.NewNop()
	}
	if r.Metrics == nil {
		r.Metrics = metrics.New()
	}
	if r.Now == nil {
		r.Now = time.Now
	}
	if r.Receipts == nil {
		r.Receipts = &receipt.Writer{Store: r.Store, Now: func() time.Time { return r.Now() }}
	}

	state, err := r.loadState()
	if err != nil {
		return Outcome{}, err
	}

	now := r.Now()
	runID := RunID(now)
	log := r.Log.With("run_id", runID)

	blocks := make([]models.TargetBlock, 0, len(opts.Targets))
	effects := []models.SideEffect{}
	for _, target := range opts.Targets {
		url := r.BaseURL + target
		start := time.Now()
		fr, err := r.Fetcher.Fetch(ctx, url, opts.TTL)
		if err != nil {
			r.Metrics.Fetches.WithLabelValues("error").Inc()
			return Outcome{}, fmt.Errorf("target %s: %w", target, err)
		}
		r.Metrics.ObserveFetch(fr.Source, time.Since(start))

		posts := parser.ExtractPosts(fr.Body)
		r.Metrics.PostsExtracted.Add(float64(len(posts)))
		log.Infof("fetched %s source=%s posts=%d", url, fr.Source, len(posts))

		blocks = append(blocks, models.TargetBlock{
			Target:    target,
			URL:       url,
			Source:    fr.Source,
			FetchedAt: fr.FetchedAt,
			Title:     parser.Title(fr.Body),
			Posts:     posts,
		})
		effects = append(effects, models.SideEffect{
			Type: "fetch", Target: url, Status: "ok",
			Details: map[string]string{"source": fr.Source},
		})
	}

	inputsHash := InputsHash(opts.Targets, opts.TTL)

	var flat []string
	first := map[string]models.Item{}
	for _, b := range blocks {
		for _, p := range b.Posts {
			flat = append(flat, p.Href)
			if _, ok := first[p.Href]; !ok {
				first[p.Href] = p
			}
		}
	}
	newIDs := DiffNew(flat, state.LastSeenIDs)
	newPosts := make([]models.Item, 0, len(newIDs))
	for _, id := range newIDs {
		newPosts = append(newPosts, first[id])
	}

	resultKey := ResultsDir + runID + ".json"
	if err := r.Store.Save(resultKey, models.RunResult{RunID: runID, Data: blocks, New: newIDs}); err != nil {
		return Outcome{}, fmt.Errorf("write result: %w", err)
	}
	out := Outcome{
		RunID:      runID,
		NewIDs:     newIDs,
		ResultPath: r.Store.Path(resultKey),
		DigestPath: r.Store.Path(digest.Key),
	}

	if len(newIDs) == 0 {
		err = r.finishNoNewSignal(&out, &state, inputsHash, effects, opts.TTL, now)
	} else {
		err = r.finishNewItems(&out, &state, inputsHash, effects, newPosts, now)
	}
	if err != nil {
		return Outcome{}, err
	}
	r.Metrics.ObserveRun(out.Kind.String(), len(newIDs), now)
	log.Infof("run finished decision=%s new=%d runs=%d", out.Decision, len(newIDs), state.Stats.Runs)
	return out, nil
}

// finishNoNewSignal leaves lastSeenIds untouched.
func (r *Runner) finishNoNewSignal(out *Outcome, state *models.RunState, inputsHash string, effects []models.SideEffect, ttl time.Duration, now time.Time) error {
	out.Kind = NoNewSignal
	out.Decision = DecisionNoNewSignal
	effects = append(effects, writeEffect(out.ResultPath))

	path, err := r.Receipts.Write(out.RunID, inputsHash, out.Decision, effects, noNewSignalNote)
	if err != nil {
		return err
	}
	out.ReceiptPath = path

	d := digest.Digest{
		Summary: []string{
			"No new posts this run (deduplicated against lastSeenIds)",
			fmt.Sprintf("Cache TTL=%ds; lower the TTL if you need fresher results", int64(ttl/time.Second)),
		},
		Evidence: []string{out.ResultPath, out.ReceiptPath},
		TODO:     "For deeper reading, fetch post bodies with a logged-in session, then summarise or draft comments",
		Draft:    "(no new signal, no post suggested this run)",
	}
	if err := r.Store.SaveText(digest.Key, d.Render()); err != nil {
		return fmt.Errorf("write digest: %w", err)
	}

	state.LastRunAt = now.Unix()
	state.Stats.Runs++
	if err := r.Store.Save(StateKey, state); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

func (r *Runner) finishNewItems(out *Outcome, state *models.RunState, inputsHash string, effects []models.SideEffect, newPosts []models.Item, now time.Time) error {
	n := len(out.NewIDs)
	out.Kind = NewItems
	out.Decision = fmt.Sprintf("new-items:%d", n)

	state.LastRunAt = now.Unix()
	state.LastSeenIDs = MergeSeen(state.LastSeenIDs, out.NewIDs, MaxSeenIDs)
	state.Stats.Runs++
	state.Stats.New = &n
	if err := r.Store.Save(StateKey, state); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	effects = append(effects, writeEffect(out.ResultPath), writeEffect(r.Store.Path(StateKey)))

	path, err := r.Receipts.Write(out.RunID, inputsHash, out.Decision, effects, "")
	if err != nil {
		return err
	}
	out.ReceiptPath = path

	sample := out.NewIDs
	if len(sample) > SampleSize {
		sample = sample[:SampleSize]
	}
	summary := []string{
		fmt.Sprintf("Found %d new post ids (from community page link previews only)", n),
		"Sample: " + strings.Join(sample, ", "),
	}
	if topics := classifier.Topics(newPosts, 5); len(topics) > 0 {
		summary = append(summary, "Topics: "+strings.Join(topics, ", "))
	}
	summary = append(summary, "Pick the top 1-2 posts to read in depth before commenting")

	d := digest.Digest{
		Summary:  summary,
		Evidence: []string{out.ResultPath, out.ReceiptPath},
		TODO:     "Pick one new post, fetch its body (login required) and break it down (A/B/C/Ops)",
		Draft: "Title: OpenClaw guardrails: dedup + no-new-signal exit\n" +
			"Body: Most of our recent stability gains came from two guardrails: dedup/TTL caching of tool calls, " +
			"and stopping to hand off to a human after two steps without new evidence. " +
			"Receipts (inputs/decision/side effects) keep the output auditable. " +
			"What other cheap, high-leverage reliability patterns are you using?",
	}
	if err := r.Store.SaveText(digest.Key, d.Render()); err != nil {
		return fmt.Errorf("write digest: %w", err)
	}
	return nil
}

func writeEffect(target string) models.SideEffect {
	return models.SideEffect{Type: "write", Target: target, Status: "ok"}
}
