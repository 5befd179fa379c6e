package store

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/angelcm/marketing-intel/internal/models"
)

var ErrNoDataset = errors.New("no dataset loaded")

// MemoryStore holds the current raw dataset. Reports are recomputed from it
// on every query, so nothing derived is cached here.
type MemoryStore struct {
	mu      sync.RWMutex
	current *models.Dataset
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// Put replaces the current dataset, stamping a fresh ID and load time.
func (s *MemoryStore) Put(ds models.Dataset) models.Dataset {
	ds.ID = uuid.NewString()
	ds.LoadedAt = s.now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = &ds
	return ds
}

// Replace swaps individual tables into the current dataset. Marketing tables
// replace loaded tables of the same channel; a business table with a source
// replaces the loaded one. With nothing loaded it behaves like Put.
func (s *MemoryStore) Replace(mkt []models.MarketingTable, biz *models.BusinessTable) models.Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ds models.Dataset
	if s.current != nil {
		ds = *s.current
		ds.Marketing = append([]models.MarketingTable(nil), ds.Marketing...)
	}
	for _, t := range mkt {
		replaced := false
		for i := range ds.Marketing {
			if t.Channel != "" && ds.Marketing[i].Channel == t.Channel {
				ds.Marketing[i] = t
				replaced = true
				break
			}
		}
		if !replaced {
			ds.Marketing = append(ds.Marketing, t)
		}
	}
	if biz != nil {
		ds.Business = *biz
	}
	ds.ID = uuid.NewString()
	ds.LoadedAt = s.now().UTC()
	s.current = &ds
	return ds
}

// Current returns the loaded dataset or ErrNoDataset.
func (s *MemoryStore) Current() (models.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return models.Dataset{}, ErrNoDataset
	}
	return *s.current, nil
}

func (s *MemoryStore) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil
}
