package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"csinventory/internal/metrics"
	"csinventory/internal/models"
	"csinventory/internal/repository"
)

const (
	defaultSearchLimit  = 15
	maxSearchLimit      = 50
	importProgressEvery = 100
)

// ItemCache is a read-through cache for catalog lookups.
type ItemCache interface {
	Get(ctx context.Context, nameID int64) (*models.Item, bool)
	Set(ctx context.Context, item *models.Item)
}

type ItemService struct {
	Repo   repository.Repository
	Cache  ItemCache
	Logger *zap.Logger
	Flags  *SystemSettingsService
	Now    func() time.Time
}

type CreateItemInput struct {
	MarketHashName string
	NameID         int64
	EnName         string
	CnName         string
}

// ImportResult summarises one catalog import.
type ImportResult struct {
	ImportedCount int      `json:"imported_count"`
	SkippedCount  int      `json:"skipped_count"`
	SkippedItems  []string `json:"skipped_items"`
	TotalItems    int      `json:"total_items"`
}

type importEntry struct {
	EnName string `json:"en_name"`
	CnName string `json:"cn_name"`
	NameID *int64 `json:"name_id"`
}

func (s *ItemService) Create(ctx context.Context, in CreateItemInput) (*models.Item, error) {
	hashName := strings.TrimSpace(in.MarketHashName)
	if hashName == "" {
		return nil, invalid("market_hash_name", "required")
	}
	if in.NameID <= 0 {
		return nil, invalid("name_id", "must be positive")
	}
	item := &models.Item{
		MarketHashName: hashName,
		NameID:         in.NameID,
		EnName:         strings.TrimSpace(in.EnName),
		CnName:         strings.TrimSpace(in.CnName),
		CreatedAt:      s.now(),
	}
	created, err := s.Repo.InsertItemIfAbsent(ctx, item)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateItem
		}
		return nil, fmt.Errorf("create item: %w", err)
	}
	if !created {
		return nil, ErrDuplicateItem
	}
	if s.Cache != nil {
		s.Cache.Set(ctx, item)
	}
	return item, nil
}

// Get looks the item up through the cache. A missing item is ErrItemNotFound.
func (s *ItemService) Get(ctx context.Context, nameID int64) (*models.Item, error) {
	if nameID <= 0 {
		return nil, invalid("name_id", "must be positive")
	}
	if s.Cache != nil {
		if item, ok := s.Cache.Get(ctx, nameID); ok {
			metrics.ItemCacheLookups.WithLabelValues("hit").Inc()
			return item, nil
		}
		metrics.ItemCacheLookups.WithLabelValues("miss").Inc()
	}
	item, err := s.Repo.GetItemByNameID(ctx, nameID)
	if err != nil {
		return nil, fmt.Errorf("get item %d: %w", nameID, err)
	}
	if item == nil {
		return nil, ErrItemNotFound
	}
	if s.Cache != nil {
		s.Cache.Set(ctx, item)
	}
	return item, nil
}

func (s *ItemService) Exists(ctx context.Context, nameID int64) (bool, error) {
	_, err := s.Get(ctx, nameID)
	if errors.Is(err, ErrItemNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *ItemService) List(ctx context.Context, limit, offset int) ([]models.Item, int64, error) {
	params := repository.ListItemsParams{Limit: limit, Offset: offset, OrderBy: "name_id", Asc: boolPtr(true)}
	items, err := s.Repo.ListItems(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Repo.CountItems(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Search matches the keyword against hash, English and Chinese names.
// The limit defaults to 15 and is capped at 50.
func (s *ItemService) Search(ctx context.Context, keyword string, limit int) ([]models.Item, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return []models.Item{}, nil
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	items, err := s.Repo.SearchItems(ctx, keyword, limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Item{}
	}
	return items, nil
}

// ImportJSON reads {marketHashName: {en_name, cn_name, name_id}} in document
// order. Entries whose hash name or name_id is already known are skipped,
// never overwritten; malformed entries are skipped too. A storage failure on
// one entry skips that entry and the run continues. Each skipped entry is
// reported as "<hash name> (<reason>)".
func (s *ItemService) ImportJSON(ctx context.Context, source string, r io.Reader) (*ImportResult, error) {
	if s.Flags != nil && !s.Flags.IsEnabled(ctx, FeatureItemImport, true) {
		return nil, ErrFeatureDisabled
	}
	started := s.now()
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return nil, invalid("json", "unreadable document")
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, invalid("json", "expected an object keyed by market hash name")
	}

	res := &ImportResult{SkippedItems: []string{}}
	for dec.More() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		keyTok, err := dec.Token()
		if err != nil {
			return nil, invalid("json", err.Error())
		}
		hashName, _ := keyTok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, invalid("json", err.Error())
		}
		res.TotalItems++

		imported, reason, err := s.importOne(ctx, hashName, raw)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if s.Logger != nil {
				s.Logger.Warn("item import entry failed",
					zap.String("source", source),
					zap.String("market_hash_name", hashName),
					zap.Error(err),
				)
			}
			reason = "error: " + err.Error()
		}
		if imported {
			res.ImportedCount++
			metrics.ItemsImported.WithLabelValues("imported").Inc()
		} else {
			res.SkippedCount++
			res.SkippedItems = append(res.SkippedItems, hashName+" ("+reason+")")
			metrics.ItemsImported.WithLabelValues("skipped").Inc()
		}
		if res.TotalItems%importProgressEvery == 0 && s.Logger != nil {
			s.Logger.Info("item import progress",
				zap.String("source", source),
				zap.Int("processed", res.TotalItems),
				zap.Int("imported", res.ImportedCount),
				zap.Int("skipped", res.SkippedCount),
			)
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, invalid("json", "unterminated object")
	}

	skipped, _ := json.Marshal(res.SkippedItems)
	record := &models.ItemImport{
		Source:        source,
		TotalItems:    res.TotalItems,
		ImportedCount: res.ImportedCount,
		SkippedCount:  res.SkippedCount,
		SkippedItems:  datatypes.JSON(skipped),
		StartedAt:     started,
		FinishedAt:    s.now(),
	}
	if err := s.Repo.InsertItemImport(ctx, record); err != nil && s.Logger != nil {
		s.Logger.Warn("record item import failed", zap.Error(err))
	}
	if s.Logger != nil {
		s.Logger.Info("item import finished",
			zap.String("source", source),
			zap.Int("total", res.TotalItems),
			zap.Int("imported", res.ImportedCount),
			zap.Int("skipped", res.SkippedCount),
		)
	}
	return res, nil
}

// Skip reasons recorded next to the hash name in ImportResult.SkippedItems.
const (
	skipEmptyKey      = "empty key"
	skipMalformed     = "malformed"
	skipMissingNameID = "missing name_id"
	skipExists        = "already exists"
)

// importOne reports whether the entry was inserted and, if not, why. A
// non-nil error is a storage failure for this entry only.
func (s *ItemService) importOne(ctx context.Context, hashName string, raw json.RawMessage) (bool, string, error) {
	hashName = strings.TrimSpace(hashName)
	if hashName == "" {
		return false, skipEmptyKey, nil
	}
	var entry importEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return false, skipMalformed, nil
	}
	if entry.NameID == nil || *entry.NameID <= 0 {
		return false, skipMissingNameID, nil
	}
	item := &models.Item{
		MarketHashName: hashName,
		NameID:         *entry.NameID,
		EnName:         strings.TrimSpace(entry.EnName),
		CnName:         strings.TrimSpace(entry.CnName),
		CreatedAt:      s.now(),
	}
	created, err := s.Repo.InsertItemIfAbsent(ctx, item)
	if err != nil {
		return false, "", err
	}
	if !created {
		return false, skipExists, nil
	}
	return true, "", nil
}

func (s *ItemService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func boolPtr(v bool) *bool { return &v }
