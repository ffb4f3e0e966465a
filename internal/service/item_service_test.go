package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"csinventory/internal/models"
	"csinventory/internal/repository/memory"
)

type mapCache struct {
	mu    sync.Mutex
	items map[int64]models.Item
	hits  int
}

func (c *mapCache) Get(ctx context.Context, nameID int64) (*models.Item, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.items[nameID]
	if ok {
		c.hits++
	}
	return &it, ok
}

func (c *mapCache) Set(ctx context.Context, item *models.Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.items == nil {
		c.items = map[int64]models.Item{}
	}
	c.items[item.NameID] = *item
}

func TestItemCreate_Duplicates(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	item, err := f.items.Create(ctx, CreateItemInput{MarketHashName: "  Chroma Case ", NameID: 10})
	require.NoError(t, err)
	assert.Equal(t, "Chroma Case", item.MarketHashName)

	_, err = f.items.Create(ctx, CreateItemInput{MarketHashName: "Chroma Case", NameID: 11})
	assert.ErrorIs(t, err, ErrDuplicateItem)
	_, err = f.items.Create(ctx, CreateItemInput{MarketHashName: "Chroma 2 Case", NameID: 10})
	assert.ErrorIs(t, err, ErrDuplicateItem)
	_, err = f.items.Create(ctx, CreateItemInput{NameID: 12})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestItemGet_ReadsThroughCache(t *testing.T) {
	f := newFixture(t, nil)
	cache := &mapCache{}
	f.items.Cache = cache
	ctx := context.Background()
	_, err := f.store.InsertItemIfAbsent(ctx, &models.Item{MarketHashName: "Spectrum Case", NameID: 20})
	require.NoError(t, err)

	got, err := f.items.Get(ctx, 20)
	require.NoError(t, err)
	assert.Equal(t, "Spectrum Case", got.MarketHashName)
	assert.Equal(t, 0, cache.hits)

	_, err = f.items.Get(ctx, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)

	ok, err := f.items.Exists(ctx, 21)
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = f.items.Get(ctx, 21)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestItemSearch(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.items.Create(ctx, CreateItemInput{MarketHashName: "AK-47 | Redline (Field-Tested)", NameID: 1, CnName: "AK-47 | 红线 (久经沙场)"})
	require.NoError(t, err)
	_, err = f.items.Create(ctx, CreateItemInput{MarketHashName: "AWP | Redline (Field-Tested)", NameID: 2})
	require.NoError(t, err)

	got, err := f.items.Search(ctx, "redline", 0)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = f.items.Search(ctx, "红线", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].NameID)

	got, err = f.items.Search(ctx, "   ", 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestImportJSON_SkipsKnownAndMalformed(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.items.Create(ctx, CreateItemInput{MarketHashName: "Existing", NameID: 500})
	require.NoError(t, err)

	doc := `{
		"AK-47 | Redline (Field-Tested)": {"en_name": "AK-47 | Redline", "cn_name": "红线", "name_id": 1},
		"No Id": {"en_name": "broken"},
		"Existing": {"name_id": 501},
		"Same Id": {"name_id": 1},
		"Wrong Shape": [1, 2],
		"AWP | Asiimov (Field-Tested)": {"name_id": 2}
	}`
	res, err := f.items.ImportJSON(ctx, "items.json", strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, 6, res.TotalItems)
	assert.Equal(t, 2, res.ImportedCount)
	assert.Equal(t, 4, res.SkippedCount)
	assert.Equal(t, []string{
		"No Id (missing name_id)",
		"Existing (already exists)",
		"Same Id (already exists)",
		"Wrong Shape (malformed)",
	}, res.SkippedItems)

	item, err := f.items.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "红线", item.CnName)

	runs := f.store.Imports()
	require.Len(t, runs, 1)
	assert.Equal(t, "items.json", runs[0].Source)
	var skipped []string
	require.NoError(t, json.Unmarshal(runs[0].SkippedItems, &skipped))
	assert.Equal(t, res.SkippedItems, skipped)

	// A second run changes nothing.
	res, err = f.items.ImportJSON(ctx, "items.json", strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, 0, res.ImportedCount)
	assert.Equal(t, 6, res.SkippedCount)
	assert.Equal(t, "AK-47 | Redline (Field-Tested) (already exists)", res.SkippedItems[0])
}

func TestImportJSON_EmptyKey(t *testing.T) {
	f := newFixture(t, nil)
	res, err := f.items.ImportJSON(context.Background(), "x", strings.NewReader(`{"  ": {"name_id": 3}}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"   (empty key)"}, res.SkippedItems)
}

type failingInserts struct {
	*memory.Store
	failOn string
}

func (f failingInserts) InsertItemIfAbsent(ctx context.Context, item *models.Item) (bool, error) {
	if item.MarketHashName == f.failOn {
		return false, errors.New("connection reset")
	}
	return f.Store.InsertItemIfAbsent(ctx, item)
}

func TestImportJSON_ContinuesPastStorageError(t *testing.T) {
	store := memory.New()
	f := newFixture(t, failingInserts{Store: store, failOn: "Revolution Case"})

	doc := `{
		"Clutch Case": {"name_id": 31},
		"Revolution Case": {"name_id": 32},
		"Kilowatt Case": {"name_id": 33}
	}`
	res, err := f.items.ImportJSON(context.Background(), "cases.json", strings.NewReader(doc))
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, 3, res.TotalItems)
	assert.Equal(t, 2, res.ImportedCount)
	assert.Equal(t, 1, res.SkippedCount)
	assert.Equal(t, []string{"Revolution Case (error: connection reset)"}, res.SkippedItems)

	ok, err := store.ItemExists(context.Background(), 33)
	require.NoError(t, err)
	assert.True(t, ok)

	runs := store.Imports()
	require.Len(t, runs, 1)
	assert.Equal(t, 2, runs[0].ImportedCount)
	assert.Equal(t, 1, runs[0].SkippedCount)
}

func TestImportJSON_StopsOnCancel(t *testing.T) {
	f := newFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.items.ImportJSON(ctx, "x", strings.NewReader(`{"Clutch Case": {"name_id": 31}}`))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.store.Imports())
}

func TestImportJSON_RejectsNonObject(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.items.ImportJSON(context.Background(), "x", strings.NewReader(`[1,2]`))
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.items.ImportJSON(context.Background(), "x", strings.NewReader(``))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestImportJSON_Disabled(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.flags.SetEnabled(ctx, FeatureItemImport, false))
	_, err := f.items.ImportJSON(ctx, "x", strings.NewReader(`{}`))
	assert.ErrorIs(t, err, ErrFeatureDisabled)
}

func TestEnsureDefaultSwitches_KeepsOperatorChoice(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.flags.SetEnabled(ctx, FeaturePoolSnapshot, false))
	require.NoError(t, f.flags.EnsureDefaultSwitches(ctx))

	assert.False(t, f.flags.IsEnabled(ctx, FeaturePoolSnapshot, true))
	assert.True(t, f.flags.IsEnabled(ctx, FeatureItemImport, false))
	assert.True(t, f.flags.IsEnabled(ctx, FeatureTradeRevert, false))
}
