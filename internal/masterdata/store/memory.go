package store

import (
	"context"
	"sync"

	"scriba/internal/masterdata"
)

// MemoryProvider keeps records in memory for development and tests.
type MemoryProvider struct {
	mu      sync.RWMutex
	records map[string]masterdata.Record
}

func NewMemory() *MemoryProvider {
	return &MemoryProvider{records: make(map[string]masterdata.Record)}
}

// Seed installs or replaces the record for a case.
func (p *MemoryProvider) Seed(caseID string, rec masterdata.Record) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records[caseID] = rec
}

func (p *MemoryProvider) Get(_ context.Context, caseID string) (masterdata.Record, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if rec, ok := p.records[caseID]; ok {
		return rec, nil
	}
	return nil, ErrNotFound
}
