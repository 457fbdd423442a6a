// Package store provides Repository implementations for the funding calculator.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rgehrsitz/ofmcalc/internal/calculation"
	"github.com/rgehrsitz/ofmcalc/internal/domain"
)

var _ calculation.Repository = (*Memory)(nil)

// Memory is an in-memory Repository, used by the CLI when no database is given and by tests
type Memory struct {
	mu          sync.RWMutex
	schedules   []domain.RateSchedule
	fundings    map[string]domain.Funding
	results     map[string][]*domain.FundingResult
	allocations map[string][]domain.SpaceAllocation
}

func NewMemory() *Memory {
	return &Memory{
		fundings:    make(map[string]domain.Funding),
		results:     make(map[string][]*domain.FundingResult),
		allocations: make(map[string][]domain.SpaceAllocation),
	}
}

// PutRateSchedule adds a schedule or replaces the one with the same ID
func (m *Memory) PutRateSchedule(_ context.Context, rs domain.RateSchedule) error {
	if rs.ID == "" {
		return errors.New("rate schedule id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.schedules {
		if m.schedules[i].ID == rs.ID {
			m.schedules[i] = rs
			return nil
		}
	}
	m.schedules = append(m.schedules, rs)
	return nil
}

// PutFunding adds a funding record or replaces the one with the same ID
func (m *Memory) PutFunding(_ context.Context, f domain.Funding) error {
	if f.ID == "" {
		return errors.New("funding id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fundings[f.ID] = f
	return nil
}

// LoadRateSchedules returns the schedules in insertion order
func (m *Memory) LoadRateSchedules(_ context.Context) ([]domain.RateSchedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]domain.RateSchedule, len(m.schedules))
	copy(result, m.schedules)
	return result, nil
}

func (m *Memory) GetFundingByID(_ context.Context, id string) (*domain.Funding, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.fundings[id]
	if !ok {
		return nil, fmt.Errorf("funding %s: %w", id, domain.ErrFundingNotFound)
	}
	return &f, nil
}

// ListFundingIDs returns every stored funding ID in order
func (m *Memory) ListFundingIDs(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.fundings))
	for id := range m.fundings {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// SaveFundingAmounts appends a result to the funding's history
func (m *Memory) SaveFundingAmounts(_ context.Context, result *domain.FundingResult) error {
	if result == nil {
		return errors.New("nil funding result")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	id := result.FundingID()
	if _, ok := m.fundings[id]; !ok {
		return fmt.Errorf("funding %s: %w", id, domain.ErrFundingNotFound)
	}
	m.results[id] = append(m.results[id], result)
	return nil
}

// SaveDefaultSpacesAllocation replaces the funding's stored allocations
func (m *Memory) SaveDefaultSpacesAllocation(_ context.Context, fundingID string, allocations []domain.SpaceAllocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.fundings[fundingID]; !ok {
		return fmt.Errorf("funding %s: %w", fundingID, domain.ErrFundingNotFound)
	}
	stored := make([]domain.SpaceAllocation, len(allocations))
	copy(stored, allocations)
	m.allocations[fundingID] = stored
	return nil
}

// FundingAmountsHistory returns every saved result for a funding, oldest first
func (m *Memory) FundingAmountsHistory(_ context.Context, fundingID string) ([]*domain.FundingResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*domain.FundingResult, len(m.results[fundingID]))
	copy(result, m.results[fundingID])
	return result, nil
}

// DefaultSpacesAllocation returns the saved allocations for a funding
func (m *Memory) DefaultSpacesAllocation(_ context.Context, fundingID string) ([]domain.SpaceAllocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]domain.SpaceAllocation, len(m.allocations[fundingID]))
	copy(result, m.allocations[fundingID])
	return result, nil
}
