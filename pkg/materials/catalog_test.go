package materials

import (
	"context"
	"errors"
	"testing"
)

// memStore is an in-memory Store that counts list calls.
type memStore struct {
	data    map[string]map[string]Coefficients
	lists   int
	failing bool
	// afterList runs once the listing is taken, before it is returned.
	afterList func()
}

func newMemStore() *memStore {
	return &memStore{data: map[string]map[string]Coefficients{}}
}

func (m *memStore) ListMaterials(_ context.Context, userID string) (map[string]Coefficients, error) {
	m.lists++
	if m.failing {
		return nil, errors.New("backend down")
	}
	out := map[string]Coefficients{}
	for k, v := range m.data[userID] {
		out[k] = v
	}
	if hook := m.afterList; hook != nil {
		m.afterList = nil
		hook()
	}
	return out, nil
}

func (m *memStore) GetMaterial(_ context.Context, userID, name string) (Coefficients, error) {
	c, ok := m.data[userID][name]
	if !ok {
		return Coefficients{}, ErrMaterialNotFound
	}
	return c, nil
}

func (m *memStore) SaveMaterial(_ context.Context, userID, name string, c Coefficients, overwrite bool) error {
	if m.data[userID] == nil {
		m.data[userID] = map[string]Coefficients{}
	}
	if _, ok := m.data[userID][name]; ok && !overwrite {
		return ErrMaterialExists
	}
	m.data[userID][name] = c
	return nil
}

func (m *memStore) DeleteMaterial(_ context.Context, userID, name string) error {
	if _, ok := m.data[userID][name]; !ok {
		return ErrMaterialNotFound
	}
	delete(m.data[userID], name)
	return nil
}

func TestCatalogSnapshotCachedUntilWrite(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	cat, err := NewCatalog(store, 8, nil)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}

	if err := cat.Save(ctx, "u1", "Barite", Coefficients{AttenuationIr: 0.3, AttenuationSe: 0.4}, false); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got := cat.Snapshot(ctx, "u1"); len(got) != 1 {
		t.Fatalf("snapshot=%v", got)
	}
	cat.Snapshot(ctx, "u1")
	if store.lists != 1 {
		t.Fatalf("lists=%d want 1 (second snapshot cached)", store.lists)
	}

	err = cat.Save(ctx, "u1", "Barite", Coefficients{AttenuationIr: 0.5}, false)
	if !errors.Is(err, ErrMaterialExists) {
		t.Fatalf("Save without confirm err=%v", err)
	}
	if err := cat.Save(ctx, "u1", "Barite", Coefficients{AttenuationIr: 0.5}, true); err != nil {
		t.Fatalf("Save confirmed: %v", err)
	}
	if got := cat.Snapshot(ctx, "u1")["Barite"].AttenuationIr; got != 0.5 {
		t.Fatalf("after overwrite μ=%v want 0.5", got)
	}

	if err := cat.Delete(ctx, "u1", "Barite"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := cat.Snapshot(ctx, "u1"); len(got) != 0 {
		t.Fatalf("after delete snapshot=%v", got)
	}
	if got := cat.Snapshot(ctx, "u2"); len(got) != 0 {
		t.Fatalf("other user sees %v", got)
	}
}

func TestCatalogSnapshotIsCopy(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	cat, _ := NewCatalog(store, 8, nil)
	_ = cat.Save(ctx, "u1", "Barite", Coefficients{AttenuationIr: 0.3}, false)

	snap := cat.Snapshot(ctx, "u1")
	snap["Injected"] = Coefficients{AttenuationIr: 9}
	if _, ok := cat.Snapshot(ctx, "u1")["Injected"]; ok {
		t.Fatalf("snapshot mutation leaked into cache")
	}
}

func TestCatalogDegradesToEmpty(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	var logged int
	cat, _ := NewCatalog(store, 8, func(string, ...any) { logged++ })

	store.failing = true
	if got := cat.Snapshot(ctx, "u1"); got == nil || len(got) != 0 {
		t.Fatalf("snapshot=%v want empty", got)
	}
	if logged != 1 {
		t.Fatalf("logged=%d want 1", logged)
	}

	store.failing = false
	store.data["u1"] = map[string]Coefficients{"Barite": {AttenuationIr: 0.3}}
	if got := cat.Snapshot(ctx, "u1"); len(got) != 1 {
		t.Fatalf("failure was cached: %v", got)
	}
}

func TestCatalogRejectsReservedAndInvalid(t *testing.T) {
	ctx := context.Background()
	cat, _ := NewCatalog(newMemStore(), 8, nil)

	for _, name := range []string{"Other", "none", "Lead"} {
		if err := cat.Save(ctx, "u1", name, Coefficients{AttenuationIr: 1}, true); !errors.Is(err, ErrReservedName) {
			t.Fatalf("Save(%q) err=%v want ErrReservedName", name, err)
		}
	}
	if err := cat.Save(ctx, "u1", " ", Coefficients{}, true); !errors.Is(err, ErrNameRequired) {
		t.Fatalf("blank name err=%v", err)
	}
	if err := cat.Save(ctx, "", "Brick", Coefficients{}, true); !errors.Is(err, ErrUserRequired) {
		t.Fatalf("blank user err=%v", err)
	}
	if err := cat.Save(ctx, "u1", "Brick", Coefficients{AttenuationIr: -1}, true); err == nil {
		t.Fatalf("negative coefficient accepted")
	}
}

func TestCatalogDropsFetchOverlappingWrite(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	cat, _ := NewCatalog(store, 8, nil)

	store.afterList = func() {
		if err := cat.Save(ctx, "u1", "Barite", Coefficients{AttenuationIr: 0.3}, false); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	if got := cat.Snapshot(ctx, "u1"); len(got) != 0 {
		t.Fatalf("first snapshot=%v want the pre-write listing", got)
	}
	if got := cat.Snapshot(ctx, "u1"); got["Barite"].AttenuationIr != 0.3 {
		t.Fatalf("stale listing cached: %v", got)
	}
	if store.lists != 2 {
		t.Fatalf("lists=%d want 2", store.lists)
	}
}
