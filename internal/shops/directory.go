// Package shops resolves shop display names for the cart and order screens.
package shops

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/storefront-bff/pkg/backend"
	"github.com/angelmondragon/storefront-bff/pkg/logger"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// Placeholder is shown until a shop name resolves or when it cannot.
const Placeholder = "Shop"

const (
	defaultTTL   = time.Hour
	defaultLimit = 4
)

type shopFetcher interface {
	GetShop(ctx context.Context, caller backend.Caller, shopID string) (*backend.Shop, error)
}

type nameCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	ShopNameKey(shopID string) string
}

// Directory looks shop names up in Redis first and the backend second.
type Directory struct {
	shops shopFetcher
	cache nameCache
	ttl   time.Duration
	limit int
	logg  *logger.Logger
}

func NewDirectory(shops shopFetcher, cache nameCache, ttl time.Duration, limit int, logg *logger.Logger) (*Directory, error) {
	if shops == nil {
		return nil, fmt.Errorf("shop fetcher required")
	}
	if cache == nil {
		return nil, fmt.Errorf("name cache required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	return &Directory{shops: shops, cache: cache, ttl: ttl, limit: limit, logg: logg}, nil
}

// Name returns the display name of one shop.
func (d *Directory) Name(ctx context.Context, caller backend.Caller, shopID string) (string, error) {
	shopID = strings.TrimSpace(shopID)
	if shopID == "" {
		return Placeholder, nil
	}
	key := d.cache.ShopNameKey(shopID)
	cached, err := d.cache.Get(ctx, key)
	if err == nil && cached != "" {
		return cached, nil
	}
	if err != nil && !errors.Is(err, redis.Nil) {
		d.logg.Warn(d.logg.WithField(ctx, "shop_id", shopID), "shop name cache read failed")
	}

	shop, err := d.shops.GetShop(ctx, caller, shopID)
	if err != nil {
		return "", err
	}
	name := strings.TrimSpace(shop.Name)
	if name == "" {
		return Placeholder, nil
	}
	if err := d.cache.Set(ctx, key, name, d.ttl); err != nil {
		d.logg.Warn(d.logg.WithField(ctx, "shop_id", shopID), "shop name cache write failed")
	}
	return name, nil
}

// Names resolves several shops concurrently. A shop whose lookup fails maps
// to Placeholder; Names itself never fails.
func (d *Directory) Names(ctx context.Context, caller backend.Caller, shopIDs []string) map[string]string {
	out := make(map[string]string, len(shopIDs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.limit)
	seen := make(map[string]struct{}, len(shopIDs))
	for _, id := range shopIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		shopID := id
		g.Go(func() error {
			name, err := d.Name(gctx, caller, shopID)
			if err != nil {
				logCtx := d.logg.WithShopID(ctx, shopID)
				d.logg.Warn(logCtx, "shop name lookup failed; using placeholder")
				name = Placeholder
			}
			mu.Lock()
			out[shopID] = name
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}
