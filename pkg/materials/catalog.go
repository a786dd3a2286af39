package materials

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

var (
	// ErrMaterialExists is returned when saving over an existing name without
	// confirmation.
	ErrMaterialExists = errors.New("material already exists")
	// ErrMaterialNotFound is returned when a named material is absent.
	ErrMaterialNotFound = errors.New("material not found")
	// ErrReservedName guards the selector values "none" and "other" and the
	// predefined keys.
	ErrReservedName = errors.New("material name is reserved")
	ErrUserRequired = errors.New("user id required")
	ErrNameRequired = errors.New("material name required")
)

// Store persists custom materials, scoped to a single user.
type Store interface {
	ListMaterials(ctx context.Context, userID string) (map[string]Coefficients, error)
	GetMaterial(ctx context.Context, userID, name string) (Coefficients, error)
	SaveMaterial(ctx context.Context, userID, name string, c Coefficients, overwrite bool) error
	DeleteMaterial(ctx context.Context, userID, name string) error
}

// Catalog serves per-user material snapshots from a small LRU and refetches
// after every write made through it.
type Catalog struct {
	store Store
	cache *lru.Cache[string, map[string]Coefficients]
	logf  func(string, ...any)
	// writes counts completed saves and deletes. A fetch that overlapped a
	// write is returned but not cached.
	writes atomic.Uint64
}

// NewCatalog wraps store. size bounds the number of cached users.
func NewCatalog(store Store, size int, logf func(string, ...any)) (*Catalog, error) {
	if size <= 0 {
		size = 256
	}
	cache, err := lru.New[string, map[string]Coefficients](size)
	if err != nil {
		return nil, fmt.Errorf("material cache: %w", err)
	}
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Catalog{store: store, cache: cache, logf: logf}, nil
}

// Snapshot returns the user's saved materials. A failed fetch degrades to an
// empty set so the calculator still opens; the failure is not cached.
func (c *Catalog) Snapshot(ctx context.Context, userID string) map[string]Coefficients {
	if userID == "" {
		return map[string]Coefficients{}
	}
	if snap, ok := c.cache.Get(userID); ok {
		return copySnapshot(snap)
	}
	gen := c.writes.Load()
	snap, err := c.store.ListMaterials(ctx, userID)
	if err != nil {
		c.logf("custom materials for %s unavailable: %v", userID, err)
		return map[string]Coefficients{}
	}
	if snap == nil {
		snap = map[string]Coefficients{}
	}
	if c.writes.Load() == gen {
		c.cache.Add(userID, snap)
		// A write that landed between the check and Add invalidates it again.
		if c.writes.Load() != gen {
			c.cache.Remove(userID)
		}
	}
	return copySnapshot(snap)
}

// Save upserts a material. Without overwrite an existing name yields
// ErrMaterialExists and nothing changes.
func (c *Catalog) Save(ctx context.Context, userID, name string, coeff Coefficients, overwrite bool) error {
	name = strings.TrimSpace(name)
	if userID == "" {
		return ErrUserRequired
	}
	if err := checkName(name); err != nil {
		return err
	}
	if err := coeff.Validate(); err != nil {
		return err
	}
	defer c.invalidate(userID)
	return c.store.SaveMaterial(ctx, userID, name, coeff, overwrite)
}

// Delete removes a material.
func (c *Catalog) Delete(ctx context.Context, userID, name string) error {
	if userID == "" {
		return ErrUserRequired
	}
	defer c.invalidate(userID)
	return c.store.DeleteMaterial(ctx, userID, strings.TrimSpace(name))
}

// Get reads one material straight from the store.
func (c *Catalog) Get(ctx context.Context, userID, name string) (Coefficients, error) {
	if userID == "" {
		return Coefficients{}, ErrUserRequired
	}
	return c.store.GetMaterial(ctx, userID, strings.TrimSpace(name))
}

func (c *Catalog) invalidate(userID string) {
	c.writes.Add(1)
	c.cache.Remove(userID)
}

func checkName(name string) error {
	if name == "" {
		return ErrNameRequired
	}
	key := strings.ToLower(name)
	switch key {
	case "none", "no material", "other", "select", "choose", "placeholder":
		return fmt.Errorf("%q: %w", name, ErrReservedName)
	}
	if _, ok := predefined[key]; ok {
		return fmt.Errorf("%q: %w", name, ErrReservedName)
	}
	return nil
}

func copySnapshot(in map[string]Coefficients) map[string]Coefficients {
	out := make(map[string]Coefficients, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
