package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
)

const merchantCacheTTL = 5 * time.Minute

// GetMerchants returns every known merchant ordered by name.
func (s *SQLiteStorage) GetMerchants(ctx context.Context) ([]model.Merchant, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, created_at
		FROM merchants
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query merchants: %w", err)
	}
	defer rows.Close()

	var merchants []model.Merchant
	for rows.Next() {
		var m model.Merchant
		if err := rows.Scan(&m.ID, &m.Name, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan merchant: %w", err)
		}
		merchants = append(merchants, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating merchants: %w", err)
	}

	s.warmMerchantCache(merchants)
	return merchants, nil
}

// GetMerchantByName looks up a merchant by exact name.
func (s *SQLiteStorage) GetMerchantByName(ctx context.Context, name string) (*model.Merchant, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	merchant, err := s.getMerchantByNameTx(ctx, s.db, name)
	if err != nil {
		return nil, err
	}
	s.cacheMerchant(merchant.Name, merchant.ID)
	return merchant, nil
}

func (s *SQLiteStorage) getMerchantByNameTx(ctx context.Context, q queryable, name string) (*model.Merchant, error) {
	var m model.Merchant
	err := q.QueryRowContext(ctx, `
		SELECT id, name, created_at
		FROM merchants
		WHERE name = ?
	`, name).Scan(&m.ID, &m.Name, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("merchant %q: %w", name, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get merchant: %w", err)
	}
	return &m, nil
}

// CreateMerchant inserts a merchant, returning the existing row if the name is taken.
func (s *SQLiteStorage) CreateMerchant(ctx context.Context, name string) (*model.Merchant, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := s.ensureMerchantTx(ctx, tx, name); err != nil {
		return nil, err
	}
	merchant, err := s.getMerchantByNameTx(ctx, tx, name)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit merchant: %w", err)
	}
	s.cacheMerchant(merchant.Name, merchant.ID)
	return merchant, nil
}

// EnsureMerchants resolves each name to a merchant id, creating merchants that
// do not exist yet. Blank names and the unknown sentinel are ignored.
func (s *SQLiteStorage) EnsureMerchants(ctx context.Context, names []string) (map[string]int64, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	ids := make(map[string]int64, len(names))
	var missing []string
	for _, name := range names {
		name = strings.TrimSpace(name)
		if model.IsUnknownMerchant(name) {
			continue
		}
		if _, done := ids[name]; done {
			continue
		}
		if id, ok := s.getCachedMerchant(name); ok {
			ids[name] = id
			continue
		}
		ids[name] = 0
		missing = append(missing, name)
	}
	if len(missing) == 0 {
		return ids, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, name := range missing {
		id, err := s.ensureMerchantTx(ctx, tx, name)
		if err != nil {
			return nil, err
		}
		ids[name] = id
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit merchants: %w", err)
	}

	for _, name := range missing {
		s.cacheMerchant(name, ids[name])
	}
	return ids, nil
}

func (s *SQLiteStorage) ensureMerchantTx(ctx context.Context, q queryable, name string) (int64, error) {
	if _, err := q.ExecContext(ctx, `INSERT OR IGNORE INTO merchants (name) VALUES (?)`, name); err != nil {
		return 0, fmt.Errorf("failed to create merchant %q: %w", name, err)
	}
	var id int64
	if err := q.QueryRowContext(ctx, `SELECT id FROM merchants WHERE name = ?`, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to resolve merchant %q: %w", name, err)
	}
	return id, nil
}

// getCachedMerchant retrieves a merchant id from the cache.
func (s *SQLiteStorage) getCachedMerchant(name string) (int64, bool) {
	s.cacheMutex.RLock()

	if time.Now().After(s.cacheExpiry) {
		s.cacheMutex.RUnlock()
		s.cacheMutex.Lock()
		defer s.cacheMutex.Unlock()

		// Double-check after acquiring write lock
		if time.Now().After(s.cacheExpiry) {
			s.merchantCache = make(map[string]int64)
		}
		return 0, false
	}

	id, ok := s.merchantCache[name]
	s.cacheMutex.RUnlock()
	return id, ok
}

// cacheMerchant adds a merchant to the cache.
func (s *SQLiteStorage) cacheMerchant(name string, id int64) {
	s.cacheMutex.Lock()
	defer s.cacheMutex.Unlock()

	if len(s.merchantCache) == 0 {
		s.cacheExpiry = time.Now().Add(merchantCacheTTL)
	}
	s.merchantCache[name] = id
}

func (s *SQLiteStorage) warmMerchantCache(merchants []model.Merchant) {
	s.cacheMutex.Lock()
	defer s.cacheMutex.Unlock()

	s.merchantCache = make(map[string]int64, len(merchants))
	for _, m := range merchants {
		s.merchantCache[m.Name] = m.ID
	}
	s.cacheExpiry = time.Now().Add(merchantCacheTTL)
}
