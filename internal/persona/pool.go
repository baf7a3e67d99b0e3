package persona

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nidhogg/autoposter/internal/chance"
	"go.uber.org/zap"
)

const (
	// topScorerBias is the probability of choosing among the top expertise
	// scorers instead of a uniformly random persona.
	topScorerBias = 0.8

	// retireBelowRatio retires personas whose recent success ratio falls
	// below this value once minOutcomes outcomes are known.
	retireBelowRatio = 0.3
	minOutcomes      = 5

	// engagementAlpha weighs the newest outcome in the engagement score.
	engagementAlpha = 0.1
)

// Options tunes pool growth and retirement.
type Options struct {
	MinSize         int
	MaxGrowthPerRun int
	// RemoveAfter is how long a retired persona stays listed before the
	// cleanup sweep drops it.
	RemoveAfter time.Duration
}

// Stats summarizes the pool.
type Stats struct {
	ActivePersonas int            `json:"active_bots"`
	TotalPersonas  int            `json:"total_bots"`
	TotalPosts     int            `json:"total_posts"`
	ByType         map[string]int `json:"by_type"`
}

// Pool owns the set of personas. Every read-then-write happens under mu, so
// the scheduler loop and manual triggers never observe a half-applied
// selection or activity update.
type Pool struct {
	personas map[string]*Persona
	opts     Options
	rnd      chance.Source
	now      func() time.Time
	mu       sync.Mutex
	logger   *zap.Logger
}

// NewPool creates a pool populated with the seed personas.
func NewPool(opts Options, rnd chance.Source, logger *zap.Logger) *Pool {
	if opts.MinSize <= 0 {
		opts.MinSize = len(Seeds)
	}
	if opts.MaxGrowthPerRun <= 0 {
		opts.MaxGrowthPerRun = 5
	}
	if opts.RemoveAfter <= 0 {
		opts.RemoveAfter = 24 * time.Hour
	}
	p := &Pool{
		personas: make(map[string]*Persona),
		opts:     opts,
		rnd:      rnd,
		now:      time.Now,
		logger:   logger,
	}
	for _, s := range Seeds {
		seed := s.clone()
		p.addLocked(&seed)
	}
	return p
}

// SetClock overrides the time source.
func (p *Pool) SetClock(now func() time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.now = now
}

// Add registers a persona, assigning an ID and timestamps when missing.
func (p *Pool) Add(in Persona) Persona {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := in.clone()
	return p.addLocked(&cp).clone()
}

func (p *Pool) addLocked(in *Persona) *Persona {
	if in.ID == "" {
		in.ID = uuid.New().String()
	}
	in.Type = ParseType(string(in.Type))
	if in.Avatar == "" {
		in.Avatar = avatarURL(in.Handle)
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = p.now()
	}
	if in.Engagement == 0 {
		in.Engagement = 0.5
	}
	in.Active = true
	p.personas[in.ID] = in
	p.logger.Info("registered persona",
		zap.String("id", in.ID),
		zap.String("handle", in.Handle),
		zap.String("type", string(in.Type)))
	return in
}

// Create generates and registers a new persona.
func (p *Pool) Create() Persona {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.createLocked().clone()
}

func (p *Pool) createLocked() *Persona {
	gen := Generate(p.rnd)
	return p.addLocked(&gen)
}

// EnsureMinimum creates personas until the active count reaches MinSize and
// returns how many were created.
func (p *Pool) EnsureMinimum() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	created := 0
	for len(p.activeLocked()) < p.opts.MinSize {
		p.createLocked()
		created++
	}
	return created
}

// Get returns a persona by ID.
func (p *Pool) Get(id string) (Persona, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	per, ok := p.personas[id]
	if !ok {
		return Persona{}, false
	}
	return per.clone(), true
}

// List returns all personas ordered by creation time.
func (p *Pool) List() []Persona {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Persona, 0, len(p.personas))
	for _, per := range p.sortedLocked() {
		out = append(out, per.clone())
	}
	return out
}

// Active returns all active personas ordered by creation time.
func (p *Pool) Active() []Persona {
	p.mu.Lock()
	defer p.mu.Unlock()
	active := p.activeLocked()
	out := make([]Persona, len(active))
	for i, per := range active {
		out[i] = per.clone()
	}
	return out
}

// SelectForRun returns an active persona whose ID is not in exclude. When
// every active persona is excluded it creates a new one while the run has
// used fewer than MaxGrowthPerRun personas, and otherwise picks from the
// whole active pool ignoring exclude.
func (p *Pool) SelectForRun(exclude map[string]struct{}) Persona {
	p.mu.Lock()
	defer p.mu.Unlock()

	active := p.activeLocked()
	if len(active) == 0 {
		return p.createLocked().clone()
	}

	var available []*Persona
	for _, per := range active {
		if _, skip := exclude[per.ID]; !skip {
			available = append(available, per)
		}
	}
	if len(available) > 0 {
		return chance.Pick(p.rnd, available).clone()
	}
	if len(exclude) < p.opts.MaxGrowthPerRun {
		created := p.createLocked()
		p.logger.Info("pool exhausted for run, grew pool",
			zap.String("persona", created.Handle),
			zap.Int("excluded", len(exclude)))
		return created.clone()
	}
	return chance.Pick(p.rnd, active).clone()
}

// SelectByExpertise scores active personas against topic: a keyword found
// in the topic is worth 2 points, a topic word found inside a keyword 1
// point. With probability 0.8 a persona tied at the top score is chosen,
// otherwise any candidate. Personas in exclude are skipped while any other
// active persona remains, so a batch on one topic spreads across experts.
func (p *Pool) SelectByExpertise(topic string, exclude map[string]struct{}) Persona {
	p.mu.Lock()
	defer p.mu.Unlock()

	active := p.activeLocked()
	if len(active) == 0 {
		return p.createLocked().clone()
	}
	candidates := active
	if len(exclude) > 0 {
		var available []*Persona
		for _, per := range active {
			if _, skip := exclude[per.ID]; !skip {
				available = append(available, per)
			}
		}
		if len(available) > 0 {
			candidates = available
		}
	}

	topicLower := strings.ToLower(topic)
	words := strings.Fields(topicLower)

	best := 0
	var top []*Persona
	for _, per := range candidates {
		score := expertiseScore(per.Keywords(), topicLower, words)
		switch {
		case score > best:
			best = score
			top = []*Persona{per}
		case score == best && score > 0:
			top = append(top, per)
		}
	}

	if best > 0 && chance.Chance(p.rnd, topScorerBias) {
		return chance.Pick(p.rnd, top).clone()
	}
	return chance.Pick(p.rnd, candidates).clone()
}

func expertiseScore(keywords []string, topic string, words []string) int {
	score := 0
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(topic, kw) {
			score += 2
			continue
		}
		for _, w := range words {
			if strings.Contains(kw, w) {
				score++
				break
			}
		}
	}
	return score
}

// UpdateActivity records a publish outcome. A single failure never retires
// a persona; retirement is left to CleanupInactive.
func (p *Pool) UpdateActivity(id string, success bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	per, ok := p.personas[id]
	if !ok {
		p.logger.Warn("activity for unknown persona", zap.String("id", id))
		return
	}
	outcome := 0.0
	if success {
		outcome = 1.0
		per.TotalPosts++
	}
	per.Engagement = (1-engagementAlpha)*per.Engagement + engagementAlpha*outcome
	per.LastActive = p.now()
	per.recordOutcome(success)
}

// CleanupInactive retires active personas with a poor recent success ratio
// and removes personas retired longer than RemoveAfter. It returns the
// number of personas retired by this sweep.
func (p *Pool) CleanupInactive() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	retired := 0
	for id, per := range p.personas {
		if !per.Active {
			if now.Sub(per.retiredAt) >= p.opts.RemoveAfter {
				delete(p.personas, id)
				p.logger.Info("removed retired persona", zap.String("handle", per.Handle))
			}
			continue
		}
		ratio, n := per.SuccessRatio()
		if n >= minOutcomes && ratio < retireBelowRatio {
			per.Active = false
			per.retiredAt = now
			retired++
			p.logger.Info("retired persona",
				zap.String("handle", per.Handle),
				zap.Float64("success_ratio", ratio))
		}
	}
	return retired
}

// Stats returns aggregate pool statistics.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := Stats{ByType: make(map[string]int)}
	for _, per := range p.personas {
		st.TotalPersonas++
		st.TotalPosts += per.TotalPosts
		if per.Active {
			st.ActivePersonas++
			st.ByType[string(per.Type)]++
		}
	}
	return st
}

// activeLocked returns active personas in creation order (caller must hold
// lock). Sorting keeps selection independent of map iteration order.
func (p *Pool) activeLocked() []*Persona {
	var out []*Persona
	for _, per := range p.sortedLocked() {
		if per.Active {
			out = append(out, per)
		}
	}
	return out
}

func (p *Pool) sortedLocked() []*Persona {
	out := make([]*Persona, 0, len(p.personas))
	for _, per := range p.personas {
		out = append(out, per)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
