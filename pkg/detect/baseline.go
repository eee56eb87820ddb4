// Package detect compares the strategies a run actually used against the
// previous run's baseline. A drifted frame layout or selector set shows up
// here before it shows up as silent data loss.
package detect

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/models"
)

const baselineFileName = "strategy_baseline.json"

// BaselineStore persists the strategy log of the most recent run. A single
// file is kept and overwritten, so the comparison is always against the
// directly preceding run.
type BaselineStore struct {
	stateDir string
	path     string
	mu       sync.Mutex
}

// NewBaselineStore creates a store rooted at stateDir
func NewBaselineStore(stateDir string) *BaselineStore {
	return &BaselineStore{
		stateDir: stateDir,
		path:     filepath.Join(stateDir, baselineFileName),
	}
}

// Load reads the previous run's strategy log. A missing file means a first
// run and returns (nil, nil).
func (s *BaselineStore) Load() (*models.StrategyLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read baseline file: %w", err)
	}

	var log models.StrategyLog
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, fmt.Errorf("failed to parse baseline file: %w", err)
	}
	return &log, nil
}

// Save overwrites the baseline with the given strategy log
func (s *BaselineStore) Save(log models.StrategyLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.stateDir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal baseline: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write baseline file: %w", err)
	}
	return nil
}
