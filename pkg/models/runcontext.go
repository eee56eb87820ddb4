package models

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// StrategyLog is the per-run record of which fallback heuristics succeeded.
// It is the input to drift detection between runs.
type StrategyLog struct {
	RunID                string            `json:"run_id"`
	Timestamp            time.Time         `json:"timestamp"`
	BaseURL              string            `json:"base_url"`
	SearchFrameStrategy  string            `json:"search_frame_strategy,omitempty"`
	ContentFrameStrategy string            `json:"content_frame_strategy,omitempty"`
	MenuClickStrategies  map[string]string `json:"menu_click_strategies,omitempty"`
	FrameNames           []string          `json:"frame_names_found"`
	SelectorsUsed        []string          `json:"selectors_used"`
}

// RunContext owns the mutable per-run state shared by the resolver and the
// orchestrator: the run identity and the strategy log. It replaces any
// process-wide singleton; exactly one RunContext exists per scrape run and is
// passed explicitly. All record methods are safe for concurrent workers.
type RunContext struct {
	RunID     string
	StartedAt time.Time
	BaseURL   string

	mu                   sync.Mutex
	searchFrameStrategy  string
	contentFrameStrategy string
	menuClickStrategies  map[string]string
	frameNames           map[string]struct{}
	selectorsUsed        map[string]struct{}
}

// NewRunContext creates a fresh run context with a unique run ID
func NewRunContext(baseURL string) *RunContext {
	return &RunContext{
		RunID:               uuid.NewString(),
		StartedAt:           time.Now(),
		BaseURL:             baseURL,
		menuClickStrategies: make(map[string]string),
		frameNames:          make(map[string]struct{}),
		selectorsUsed:       make(map[string]struct{}),
	}
}

// RecordSearchStrategy notes the strategy that located the search frame.
// Last writer wins; within one run all workers converge on the same strategy
// unless the site itself is drifting, which is exactly what the detector
// surfaces.
func (r *RunContext) RecordSearchStrategy(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.searchFrameStrategy = name
}

// RecordContentStrategy notes the strategy that located the content frame
func (r *RunContext) RecordContentStrategy(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contentFrameStrategy = name
}

// RecordMenuStrategy notes how a sidebar link was located for a section
func (r *RunContext) RecordMenuStrategy(section, strategy string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.menuClickStrategies[section] = strategy
}

// RecordFrameName adds an observed frame name to the run's set
func (r *RunContext) RecordFrameName(name string) {
	if name == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frameNames[name] = struct{}{}
}

// RecordSelector adds a selector that succeeded to the run's set
func (r *RunContext) RecordSelector(selector string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selectorsUsed[selector] = struct{}{}
}

// Snapshot freezes the current state into a StrategyLog suitable for
// persistence and comparison. Sets are emitted sorted for stable output.
func (r *RunContext) Snapshot() StrategyLog {
	r.mu.Lock()
	defer r.mu.Unlock()

	menu := make(map[string]string, len(r.menuClickStrategies))
	for k, v := range r.menuClickStrategies {
		menu[k] = v
	}

	return StrategyLog{
		RunID:                r.RunID,
		Timestamp:            time.Now(),
		BaseURL:              r.BaseURL,
		SearchFrameStrategy:  r.searchFrameStrategy,
		ContentFrameStrategy: r.contentFrameStrategy,
		MenuClickStrategies:  menu,
		FrameNames:           sortedKeys(r.frameNames),
		SelectorsUsed:        sortedKeys(r.selectorsUsed),
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
