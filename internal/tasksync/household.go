package tasksync

import (
	"context"
	"os"
	"strconv"
	"strings"
)

// loadHousehold fetches the caller's household and roster, each bounded.
// On success the household id is persisted as a durable hint. Failures
// are classified and surfaced, never silently retried.
func (s *Syncer) loadHousehold(ctx context.Context) error {
	household, err := runBounded(ctx, s.cfg.LoadTimeout, s.cfg.Backend.Household)
	if err != nil {
		return err
	}

	members, err := runBounded(ctx, s.cfg.LoadTimeout, s.cfg.Backend.Members)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if !s.alive {
		s.mu.Unlock()
		return nil
	}
	s.household = household
	s.members = members
	s.mu.Unlock()

	s.writeHint(household.ID)
	return nil
}

// householdID returns the validated household id for writes. The durable
// hint is never a substitute: without a live resolved household the
// mutation must fail fast.
func (s *Syncer) householdID() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.household == nil {
		return 0, false
	}
	return s.household.ID, true
}

// HouseholdHint reads the last-known household id from the hint file.
// It survives restarts but is only a hint; it must be revalidated
// against a live session before any write trusts it.
func (s *Syncer) HouseholdHint() (int64, bool) {
	if s.cfg.HintPath == "" {
		return 0, false
	}
	data, err := os.ReadFile(s.cfg.HintPath)
	if err != nil {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (s *Syncer) writeHint(id int64) {
	if s.cfg.HintPath == "" {
		return
	}
	if err := os.WriteFile(s.cfg.HintPath, []byte(strconv.FormatInt(id, 10)), 0o600); err != nil {
		s.cfg.Logger.Warn("write household hint", "error", err)
	}
}
