package detect

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/models"
)

// ChangeDetector diffs the current run's strategy log against a stored
// baseline and reports human-readable change descriptions.
type ChangeDetector struct {
	store *BaselineStore
	log   *logrus.Entry
}

// NewChangeDetector creates a detector using the given baseline store
func NewChangeDetector(store *BaselineStore, log *logrus.Entry) *ChangeDetector {
	return &ChangeDetector{store: store, log: log}
}

// Compare loads the baseline, diffs it against current, logs every change
// and saves current as the new baseline. The returned slice is empty both
// on a first run and on an unchanged site.
func (d *ChangeDetector) Compare(current models.StrategyLog) ([]string, error) {
	baseline, err := d.store.Load()
	if err != nil {
		return nil, err
	}

	var changes []string
	if baseline != nil {
		changes = Diff(*baseline, current)
		for _, c := range changes {
			d.log.WithField("change", c).Warn("site structure changed since last run")
		}
	} else {
		d.log.Debug("no baseline found, recording first run")
	}

	if err := d.store.Save(current); err != nil {
		return changes, err
	}
	return changes, nil
}

// Diff describes every difference between two strategy logs. Frame and
// selector sets are compared as sets; order and duplicates do not matter.
func Diff(baseline, current models.StrategyLog) []string {
	var changes []string

	if baseline.BaseURL != current.BaseURL {
		changes = append(changes, fmt.Sprintf("base URL changed: %s → %s", baseline.BaseURL, current.BaseURL))
	}
	if baseline.SearchFrameStrategy != current.SearchFrameStrategy {
		changes = append(changes, fmt.Sprintf("search frame strategy changed: %s → %s",
			baseline.SearchFrameStrategy, current.SearchFrameStrategy))
	}
	if baseline.ContentFrameStrategy != current.ContentFrameStrategy {
		changes = append(changes, fmt.Sprintf("content frame strategy changed: %s → %s",
			baseline.ContentFrameStrategy, current.ContentFrameStrategy))
	}

	added, removed := diffSets(baseline.FrameNames, current.FrameNames)
	for _, name := range added {
		changes = append(changes, fmt.Sprintf("new frame appeared: %s", name))
	}
	for _, name := range removed {
		changes = append(changes, fmt.Sprintf("frame disappeared: %s", name))
	}

	added, removed = diffSets(baseline.SelectorsUsed, current.SelectorsUsed)
	for _, sel := range added {
		changes = append(changes, fmt.Sprintf("new selector in use: %s", sel))
	}
	for _, sel := range removed {
		changes = append(changes, fmt.Sprintf("selector no longer used: %s", sel))
	}

	return changes
}

func diffSets(before, after []string) (added, removed []string) {
	beforeSet := make(map[string]struct{}, len(before))
	for _, s := range before {
		beforeSet[s] = struct{}{}
	}
	afterSet := make(map[string]struct{}, len(after))
	for _, s := range after {
		afterSet[s] = struct{}{}
	}

	for s := range afterSet {
		if _, ok := beforeSet[s]; !ok {
			added = append(added, s)
		}
	}
	for s := range beforeSet {
		if _, ok := afterSet[s]; !ok {
			removed = append(removed, s)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}
