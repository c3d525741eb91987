// Package store loads and saves the whole account collection as one JSON
// document under a fixed key of a metadata.Repository.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/questkeeper/internal/common"
	"github.com/dmitrijs2005/questkeeper/internal/logging"
	"github.com/dmitrijs2005/questkeeper/internal/metrics"
	"github.com/dmitrijs2005/questkeeper/internal/models"
	"github.com/dmitrijs2005/questkeeper/internal/repositories/metadata"
)

const DatasetKey = "accountTracker_accounts"

type Store struct {
	repo    metadata.Repository
	log     logging.Logger
	metrics *metrics.Recorder
}

func New(repo metadata.Repository, log logging.Logger, m *metrics.Recorder) *Store {
	if log == nil {
		log = logging.Nop()
	}
	return &Store{repo: repo, log: log.With("module", "store"), metrics: m}
}

// Load returns the stored collection in stored order. A missing dataset is
// an empty collection. So is a dataset that cannot be decoded: that case is
// logged and counted but not returned as an error. Only a failing
// repository read is an error.
func (s *Store) Load(ctx context.Context) ([]models.Account, error) {
	raw, err := s.repo.Get(ctx, DatasetKey)
	if errors.Is(err, common.ErrCorruptData) {
		s.reset(ctx, err)
		return []models.Account{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	if raw == nil {
		return []models.Account{}, nil
	}

	accounts, err := Decode(raw)
	if err != nil {
		s.reset(ctx, err)
		return []models.Account{}, nil
	}
	return accounts, nil
}

// Save replaces the stored collection.
func (s *Store) Save(ctx context.Context, accounts []models.Account) error {
	raw, err := Encode(accounts)
	if err != nil {
		return err
	}
	if err := s.repo.Set(ctx, DatasetKey, raw); err != nil {
		return fmt.Errorf("failed to save accounts: %w", err)
	}
	s.metrics.StoreSaved()
	return nil
}

func (s *Store) reset(ctx context.Context, err error) {
	s.log.Warn(ctx, "stored accounts are unreadable, starting empty", "error", err)
	s.metrics.StoreLoadReset()
}

func Encode(accounts []models.Account) ([]byte, error) {
	if accounts == nil {
		accounts = []models.Account{}
	}
	raw, err := json.Marshal(accounts)
	if err != nil {
		return nil, fmt.Errorf("failed to encode accounts: %w", err)
	}
	return raw, nil
}

// Decode parses a dataset and normalizes every record. Records without an
// id are rejected since nothing could address them afterwards.
func Decode(raw []byte) ([]models.Account, error) {
	var accounts []models.Account
	if err := json.Unmarshal(raw, &accounts); err != nil {
		return nil, fmt.Errorf("failed to decode accounts: %w", common.ErrCorruptData)
	}
	if accounts == nil {
		return nil, fmt.Errorf("failed to decode accounts: %w", common.ErrCorruptData)
	}
	for i := range accounts {
		if accounts[i].ID == "" {
			return nil, fmt.Errorf("account #%d has no id: %w", i+1, common.ErrCorruptData)
		}
		accounts[i].Normalize()
	}
	return accounts, nil
}
