package cache

import (
	"context"
	"testing"

	"csinventory/internal/models"
)

func TestItemCache_Key(t *testing.T) {
	c := NewItemCache(nil, 0, "")
	if got := c.key(42); got != "csinv:item:42" {
		t.Fatalf("key=%s want=csinv:item:42", got)
	}
	c = NewItemCache(nil, 0, "test")
	if got := c.key(7); got != "test:item:7" {
		t.Fatalf("key=%s want=test:item:7", got)
	}
}

func TestItemCache_NilClientIsMiss(t *testing.T) {
	c := NewItemCache(nil, 0, "")
	c.Set(context.Background(), &models.Item{NameID: 1})
	if _, ok := c.Get(context.Background(), 1); ok {
		t.Fatalf("expected miss without a redis client")
	}
	var nilCache *ItemCache
	if _, ok := nilCache.Get(context.Background(), 1); ok {
		t.Fatalf("expected miss on nil cache")
	}
}
