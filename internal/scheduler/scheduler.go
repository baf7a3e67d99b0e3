// Package scheduler runs the autonomous posting loop and the manual
// triggers that share its persona selection, generation and publish path.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nidhogg/autoposter/internal/chance"
	"github.com/nidhogg/autoposter/internal/content"
	"github.com/nidhogg/autoposter/internal/memory"
	"github.com/nidhogg/autoposter/internal/persona"
	"github.com/nidhogg/autoposter/internal/publish"
	"github.com/nidhogg/autoposter/internal/tracker"
	"go.uber.org/zap"
)

var (
	ErrAlreadyRunning = errors.New("scheduler already running")
	ErrNotRunning     = errors.New("scheduler not running")
	// ErrStopping is returned by Start while the previous loop is still
	// finishing its post.
	ErrStopping = errors.New("scheduler still stopping")
)

// Generator produces post drafts.
type Generator interface {
	Generate(ctx context.Context, author persona.Persona, topic string) (*content.PostDraft, error)
}

// Publisher delivers drafts.
type Publisher interface {
	Publish(ctx context.Context, draft *content.PostDraft) (*publish.Result, error)
}

// Options tunes the scheduler.
type Options struct {
	// Interval is the configured nominal interval, reported in status.
	Interval      time.Duration
	PostsPerRun   int
	BatchCap      int
	Backoff       time.Duration
	MinPostDelay  time.Duration
	MaxPostDelay  time.Duration
	CleanupChance float64
}

func (o *Options) defaults() {
	if o.Interval == 0 {
		o.Interval = 30 * time.Minute
	}
	if o.PostsPerRun == 0 {
		o.PostsPerRun = 3
	}
	if o.BatchCap == 0 {
		o.BatchCap = 10
	}
	if o.Backoff == 0 {
		o.Backoff = time.Minute
	}
	if o.MinPostDelay == 0 {
		o.MinPostDelay = time.Minute
	}
	if o.MaxPostDelay == 0 {
		o.MaxPostDelay = 3 * time.Minute
	}
	if o.CleanupChance == 0 {
		o.CleanupChance = 0.1
	}
}

// PostResult is the outcome of one post attempt.
type PostResult struct {
	DraftID  string `json:"draft_id,omitempty"`
	PostID   string `json:"post_id,omitempty"`
	Persona  string `json:"username"`
	Topic    string `json:"topic,omitempty"`
	PostType string `json:"post_type,omitempty"`
	Images   int    `json:"images"`
	Content  string `json:"content,omitempty"`
	Error    string `json:"error,omitempty"`
}

// OK reports whether the post reached the backend.
func (r PostResult) OK() bool { return r.Error == "" }

// Report summarizes a run or a manual batch.
type Report struct {
	Requested int          `json:"requested"`
	Created   int          `json:"created"`
	Posts     []PostResult `json:"posts"`
}

// Status is the scheduler's externally visible state.
type Status struct {
	Running          bool   `json:"is_running"`
	Stopping         bool   `json:"is_stopping"`
	IntervalMinutes  int    `json:"interval_minutes"`
	PostsPerRun      int    `json:"posts_per_run"`
	NextRunInSeconds *int   `json:"next_run_in_seconds,omitempty"`
	LastDecision     string `json:"last_decision,omitempty"`
}

// Stats aggregates pool and scheduler counters.
type Stats struct {
	persona.Stats
	Running       bool       `json:"is_running"`
	Runs          int        `json:"runs"`
	PostsCreated  int        `json:"posts_created"`
	PostsFailed   int        `json:"posts_failed"`
	TrackedImages int        `json:"tracked_images"`
	LastRunAt     *time.Time `json:"last_run_at,omitempty"`
}

// Scheduler owns the Stopped/Running lifecycle.
type Scheduler struct {
	pool      *persona.Pool
	generator Generator
	publisher Publisher
	memory    *memory.Store
	tracker   *tracker.Tracker
	timing    *Timing
	rnd       chance.Source
	opts      Options
	now       func() time.Time
	logger    *zap.Logger

	// life is cancelled on Shutdown; background manual runs sleep on it.
	life       context.Context
	lifeCancel context.CancelFunc
	bg         sync.WaitGroup

	mu           sync.Mutex
	running      bool
	cancel       context.CancelFunc
	done         chan struct{}
	nextRunAt    time.Time
	lastDecision string
	runs         int
	created      int
	failed       int
	lastRunAt    time.Time
}

// New creates a stopped scheduler.
func New(pool *persona.Pool, gen Generator, pub Publisher, mem *memory.Store, tr *tracker.Tracker, timing *Timing, rnd chance.Source, opts Options, logger *zap.Logger) *Scheduler {
	opts.defaults()
	life, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		pool:       pool,
		generator:  gen,
		publisher:  pub,
		memory:     mem,
		tracker:    tr,
		timing:     timing,
		rnd:        rnd,
		opts:       opts,
		now:        time.Now,
		logger:     logger,
		life:       life,
		lifeCancel: cancel,
	}
}

// SetClock replaces the time source.
func (s *Scheduler) SetClock(now func() time.Time) {
	s.now = now
}

// Start launches the loop.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrAlreadyRunning
	}
	if s.stoppingLocked() {
		return ErrStopping
	}
	ctx, cancel := context.WithCancel(s.life)
	s.running = true
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.loop(ctx, s.done)
	s.logger.Info("scheduler started",
		zap.Duration("interval", s.opts.Interval),
		zap.Int("posts_per_run", s.opts.PostsPerRun))
	return nil
}

// Stop cancels the loop and waits for the in-flight post, if any, to
// finish. ctx bounds the wait only: when it expires the loop keeps
// finishing in the background and Start reports ErrStopping until it exits.
// Calling Stop again while stopping resumes the wait.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running && !s.stoppingLocked() {
		s.mu.Unlock()
		return ErrNotRunning
	}
	if s.running {
		s.running = false
		s.cancel()
		s.nextRunAt = time.Time{}
	}
	done := s.done
	s.mu.Unlock()

	select {
	case <-done:
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops the loop and any background runs.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	err := s.Stop(ctx)
	if errors.Is(err, ErrNotRunning) {
		err = nil
	}
	s.lifeCancel()
	waited := make(chan struct{})
	go func() {
		s.bg.Wait()
		close(waited)
	}()
	select {
	case <-waited:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// stoppingLocked reports whether a stopped loop has not exited yet.
func (s *Scheduler) stoppingLocked() bool {
	if s.running || s.done == nil {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// Running reports whether the loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	for ctx.Err() == nil {
		wait := s.cycle(ctx)
		s.mu.Lock()
		s.nextRunAt = s.now().Add(wait)
		s.mu.Unlock()
		s.logger.Info("next cycle scheduled", zap.Duration("in", wait))
		if err := sleep(ctx, wait); err != nil {
			return
		}
	}
}

// cycle runs one loop iteration and returns how long to wait afterwards.
// A panic is logged and turns into the fixed backoff.
func (s *Scheduler) cycle(ctx context.Context) (wait time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduler cycle failed", zap.Any("panic", r), zap.Stack("stack"))
			wait = s.opts.Backoff
		}
	}()

	ok, reason := s.timing.ShouldPostNow(s.now())
	s.mu.Lock()
	s.lastDecision = reason
	s.mu.Unlock()

	if ok {
		s.logger.Info("posting window open", zap.String("reason", reason))
		s.run(ctx, s.runSize())
	} else {
		s.logger.Info("waiting for better timing", zap.String("reason", reason))
	}
	if chance.Chance(s.rnd, s.opts.CleanupChance) {
		if n := s.pool.CleanupInactive(); n > 0 {
			s.logger.Info("retired inactive personas", zap.Int("count", n))
		}
	}
	return s.timing.SmartInterval(s.now())
}

func (s *Scheduler) runSize() int {
	return chance.Between(s.rnd, 1, max(1, min(3, s.opts.PostsPerRun)))
}

// run publishes n posts with distinct personas, pausing between posts.
// Cancelling ctx ends the run between posts; a post already in progress
// completes.
func (s *Scheduler) run(ctx context.Context, n int) Report {
	if added := s.pool.EnsureMinimum(); added > 0 {
		s.logger.Info("topped up persona pool", zap.Int("added", added))
	}
	work := context.WithoutCancel(ctx)
	report := Report{Requested: n}
	used := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		if i > 0 {
			delay := s.postDelay()
			s.logger.Debug("pausing before next post", zap.Duration("delay", delay))
			if err := sleep(ctx, delay); err != nil {
				break
			}
		}
		p := s.pool.SelectForRun(used)
		used[p.ID] = struct{}{}
		res, _ := s.post(work, p, "")
		report.add(res)
	}

	s.mu.Lock()
	s.runs++
	s.lastRunAt = s.now()
	s.mu.Unlock()

	st := s.pool.Stats()
	s.logger.Info("run finished",
		zap.Int("requested", report.Requested),
		zap.Int("created", report.Created),
		zap.Int("active_personas", st.ActivePersonas),
		zap.Int("total_posts", st.TotalPosts))
	return report
}

func (s *Scheduler) postDelay() time.Duration {
	lo, hi := int(s.opts.MinPostDelay/time.Millisecond), int(s.opts.MaxPostDelay/time.Millisecond)
	return time.Duration(chance.Between(s.rnd, lo, hi)) * time.Millisecond
}

// post generates and publishes one post for p and records the outcome.
// Generation failures do not count against the persona; publish failures do.
func (s *Scheduler) post(ctx context.Context, p persona.Persona, topic string) (PostResult, error) {
	res := PostResult{Persona: p.Handle, Topic: topic}
	draft, err := s.generator.Generate(ctx, p, topic)
	if err != nil || draft == nil {
		if err == nil {
			err = content.ErrNoContent
		}
		s.logger.Warn("content generation failed", zap.String("persona", p.Handle), zap.Error(err))
		res.Error = err.Error()
		s.count(false)
		return res, err
	}
	res.DraftID = draft.ID
	res.Topic = draft.Topic
	res.PostType = draft.PostType
	res.Images = len(draft.Images)
	res.Content = draft.Content

	out, err := s.publisher.Publish(ctx, draft)
	if err != nil {
		s.logger.Warn("publish failed", zap.String("persona", p.Handle), zap.Error(err))
		s.pool.UpdateActivity(p.ID, false)
		res.Error = err.Error()
		s.count(false)
		return res, err
	}
	if out != nil {
		res.PostID = out.PostID
	}
	s.pool.UpdateActivity(p.ID, true)
	s.memory.Record(p.ID, memory.Entry{
		Content:     draft.Caption,
		Topic:       draft.Topic,
		Mood:        draft.Mood,
		TimeContext: draft.TimeContext,
		RecordedAt:  s.now(),
	})
	s.count(true)
	s.logger.Info("post created",
		zap.String("persona", p.Handle),
		zap.String("topic", draft.Topic),
		zap.String("post_type", draft.PostType))
	return res, nil
}

func (s *Scheduler) count(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ok {
		s.created++
	} else {
		s.failed++
	}
}

func (r *Report) add(res PostResult) {
	r.Posts = append(r.Posts, res)
	if res.OK() {
		r.Created++
	}
}

// RunNow starts a run in the background, bypassing the timing decision.
// It returns the number of posts the run will attempt.
func (s *Scheduler) RunNow() int {
	n := s.runSize()
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("manual run failed", zap.Any("panic", r))
			}
		}()
		s.run(s.life, n)
	}()
	return n
}

// CreatePost publishes one post, choosing the persona by expertise when a
// topic is given. Once started, the post completes even if ctx is
// cancelled, so a dropped client never counts against the persona.
func (s *Scheduler) CreatePost(ctx context.Context, topic string) (PostResult, error) {
	return s.post(context.WithoutCancel(ctx), s.selectManual(topic, nil), topic)
}

// CreatePosts publishes up to count posts, capped at the batch limit.
// Cancelling ctx stops the batch between posts.
func (s *Scheduler) CreatePosts(ctx context.Context, topic string, count int) Report {
	report := Report{Requested: count}
	n := min(max(count, 1), s.opts.BatchCap)
	work := context.WithoutCancel(ctx)
	used := make(map[string]struct{}, n)
	for i := 0; i < n && ctx.Err() == nil; i++ {
		p := s.selectManual(topic, used)
		used[p.ID] = struct{}{}
		res, _ := s.post(work, p, topic)
		report.add(res)
	}
	return report
}

func (s *Scheduler) selectManual(topic string, used map[string]struct{}) persona.Persona {
	if topic != "" {
		return s.pool.SelectByExpertise(topic, used)
	}
	return s.pool.SelectForRun(used)
}

// Status returns the current lifecycle state.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		Running:         s.running,
		Stopping:        s.stoppingLocked(),
		IntervalMinutes: int(s.opts.Interval / time.Minute),
		PostsPerRun:     s.opts.PostsPerRun,
		LastDecision:    s.lastDecision,
	}
	if s.running && !s.nextRunAt.IsZero() {
		secs := max(0, int(s.nextRunAt.Sub(s.now()).Seconds()))
		st.NextRunInSeconds = &secs
	}
	return st
}

// Stats returns pool and scheduler counters.
func (s *Scheduler) Stats() Stats {
	st := Stats{Stats: s.pool.Stats(), TrackedImages: s.tracker.Stats().Tracked}
	s.mu.Lock()
	defer s.mu.Unlock()
	st.Running = s.running
	st.Runs = s.runs
	st.PostsCreated = s.created
	st.PostsFailed = s.failed
	if !s.lastRunAt.IsZero() {
		t := s.lastRunAt
		st.LastRunAt = &t
	}
	return st
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
