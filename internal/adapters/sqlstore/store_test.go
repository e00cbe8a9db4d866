package sqlstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"jupiter/internal/domain"
	"jupiter/internal/ports"
)

var testNow = time.Date(2022, time.May, 20, 9, 30, 0, 0, time.UTC)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), "sqlite://"+filepath.Join(t.TempDir(), "jupiter.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func inTx(t *testing.T, store *Store, fn func(tx ports.Tx) error) {
	t.Helper()
	if err := ports.InTx(context.Background(), store, fn); err != nil {
		t.Fatalf("transaction failed: %v", err)
	}
}

func TestParseURL(t *testing.T) {
	tests := []struct {
		url     string
		dialect string
		dsn     string
		wantErr bool
	}{
		{"sqlite:///var/lib/jupiter.db", "sqlite", "/var/lib/jupiter.db", false},
		{"/tmp/jupiter.db", "sqlite", "/tmp/jupiter.db", false},
		{"postgres://u:p@localhost/jupiter?sslmode=disable", "postgres", "postgres://u:p@localhost/jupiter?sslmode=disable", false},
		{"mysql://u:p@tcp(localhost:3306)/jupiter", "mysql", "u:p@tcp(localhost:3306)/jupiter", false},
		{"redis://localhost", "", "", true},
		{"sqlite://", "", "", true},
		{"", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			d, dsn, err := parseURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseURL() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if d.name != tt.dialect || dsn != tt.dsn {
				t.Errorf("parseURL() = (%s, %q), expected (%s, %q)", d.name, dsn, tt.dialect, tt.dsn)
			}
		})
	}
}

func TestRebind(t *testing.T) {
	q := `SELECT * FROM item_links WHERE parent_key = ? AND ref_id = ?`
	if got := postgresDialect.rebind(q); got != `SELECT * FROM item_links WHERE parent_key = $1 AND ref_id = $2` {
		t.Errorf("rebind() = %q", got)
	}
	if got := sqliteDialect.rebind(q); got != q {
		t.Errorf("sqlite rebind() should not change the query, got %q", got)
	}
}

func TestSchemaStatementsPerDialect(t *testing.T) {
	for _, d := range []dialect{sqliteDialect, postgresDialect, mysqlDialect} {
		t.Run(d.name, func(t *testing.T) {
			stmts := schemaStatements(d)
			if len(stmts) == 0 {
				t.Fatal("no statements")
			}
			for _, s := range stmts {
				if d.name == "mysql" && containsText(s, "CREATE INDEX") {
					t.Errorf("mysql statement uses CREATE INDEX IF NOT EXISTS: %s", s)
				}
				if d.name != "sqlite" && containsText(s, "AUTOINCREMENT") {
					t.Errorf("%s statement uses sqlite AUTOINCREMENT: %s", d.name, s)
				}
			}
		})
	}
}

func TestOpenRecordsSchemaVersion(t *testing.T) {
	store := openTestStore(t)
	v, err := store.SchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("SchemaVersion() error = %v", err)
	}
	if v != schemaVersion {
		t.Errorf("SchemaVersion() = %q, expected %q", v, schemaVersion)
	}
}

func TestLeafLifecycle(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	due := time.Date(2022, time.May, 20, 0, 0, 0, 0, time.UTC)

	var created domain.InboxTask
	inTx(t, store, func(tx ports.Tx) error {
		var err error
		created, err = tx.InboxTasks().Create(ctx, domain.NewLeaf(1, "Take kitty to the vet", domain.InboxTaskData{
			ProjectRefID: 1,
			Status:       domain.InboxTaskAccepted,
			Eisen:        domain.EisenImportant,
			Difficulty:   domain.DifficultyHard,
			DueDate:      &due,
		}, testNow))
		return err
	})
	if !created.RefID.IsSet() {
		t.Fatal("Create() did not assign a ref id")
	}

	inTx(t, store, func(tx ports.Tx) error {
		loaded, err := tx.InboxTasks().Load(ctx, created.RefID, false)
		if err != nil {
			return err
		}
		if loaded.Name != "Take kitty to the vet" || loaded.Payload.Eisen != domain.EisenImportant {
			t.Errorf("Load() = %+v", loaded)
		}
		if loaded.Payload.DueDate == nil || !loaded.Payload.DueDate.Equal(due) {
			t.Errorf("DueDate = %v, expected %v", loaded.Payload.DueDate, due)
		}
		if !loaded.LastModifiedTime.Equal(testNow) {
			t.Errorf("LastModifiedTime = %v, expected %v", loaded.LastModifiedTime, testNow)
		}

		_, err = tx.InboxTasks().Save(ctx, loaded.MarkArchived(testNow.Add(time.Hour)))
		return err
	})

	inTx(t, store, func(tx ports.Tx) error {
		if _, err := tx.InboxTasks().Load(ctx, created.RefID, false); !errors.Is(err, domain.ErrLocalNotFound) {
			t.Errorf("Load() of archived leaf error = %v, expected ErrLocalNotFound", err)
		}
		active, err := tx.InboxTasks().FindAll(ctx, ports.Filter{})
		if err != nil {
			return err
		}
		if len(active) != 0 {
			t.Errorf("FindAll() returned %d archived leaves", len(active))
		}
		all, err := tx.InboxTasks().FindAll(ctx, ports.Filter{AllowArchived: true, ParentRefIDs: []domain.EntityID{1}})
		if err != nil {
			return err
		}
		if len(all) != 1 || !all[0].Archived {
			t.Errorf("FindAll(AllowArchived) = %+v", all)
		}

		events, err := tx.Events().FindForEntity(ctx, domain.FamilyInboxTask, created.RefID)
		if err != nil {
			return err
		}
		if len(events) != 2 || events[0].Kind != "created" || events[1].Kind != "archived" {
			t.Errorf("events = %+v", events)
		}
		return nil
	})
}

func TestSaveWithoutRefIDIsInvariantViolation(t *testing.T) {
	store := openTestStore(t)
	tx, err := store.Begin(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer tx.Rollback()

	_, err = tx.Habits().Save(context.Background(), domain.NewLeaf(1, "Hit the gym", domain.HabitData{}, testNow))
	if !errors.Is(err, domain.ErrInvariantViolation) {
		t.Errorf("Save() error = %v, expected ErrInvariantViolation", err)
	}
}

func TestNaturalKeyIsUnique(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	key := "habit:7:weekly:2022:W20:0"

	inTx(t, store, func(tx ports.Tx) error {
		_, err := tx.InboxTasks().Create(ctx, domain.NewLeaf(1, "Hit the gym 22:W20", domain.InboxTaskData{GenKey: key}, testNow))
		return err
	})

	tx, err := store.Begin(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer tx.Rollback()

	found, err := tx.InboxTasks().FindByNaturalKey(ctx, key)
	if err != nil || !found.IsFound() {
		t.Fatalf("FindByNaturalKey() = (%v, %v)", found.IsFound(), err)
	}
	_, err = tx.InboxTasks().Create(ctx, domain.NewLeaf(1, "Hit the gym 22:W20", domain.InboxTaskData{GenKey: key}, testNow))
	if !errors.Is(err, domain.ErrDuplicateNaturalKey) {
		t.Errorf("second Create() error = %v, expected ErrDuplicateNaturalKey", err)
	}
}

func seedLinkParents(t *testing.T, store *Store) (domain.ScopeKey, domain.ScopeKey) {
	t.Helper()
	ctx := context.Background()
	trunk := domain.TrunkScope(1)
	collection := domain.CollectionScope(domain.FamilyInboxTask, 1)
	inTx(t, store, func(tx ports.Tx) error {
		if _, err := tx.Links(domain.LinkPage).Create(ctx, domain.NewScopeLink(domain.LinkPage, trunk, "", 1, "page-1", testNow)); err != nil {
			return err
		}
		_, err := tx.Links(domain.LinkCollection).Create(ctx, domain.NewScopeLink(domain.LinkCollection, collection, trunk, 1, "coll-1", testNow))
		return err
	})
	return trunk, collection
}

func TestLinkUniqueness(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	_, collection := seedLinkParents(t, store)

	inTx(t, store, func(tx ports.Tx) error {
		_, err := tx.Links(domain.LinkItem).Create(ctx, domain.NewLink(domain.LinkItem, collection, 3, "item-a", testNow))
		return err
	})

	tx, err := store.Begin(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer tx.Rollback()

	_, err = tx.Links(domain.LinkItem).Create(ctx, domain.NewLink(domain.LinkItem, collection, 3, "item-b", testNow))
	if !errors.Is(err, domain.ErrDuplicateLink) {
		t.Fatalf("Create() error = %v, expected ErrDuplicateLink", err)
	}

	links, err := tx.Links(domain.LinkItem).FindAllForScope(ctx, collection)
	if err != nil {
		t.Fatal(err)
	}
	if len(links) != 1 || links[0].RemoteID != "item-a" {
		t.Errorf("FindAllForScope() = %+v, expected the original link only", links)
	}
}

func TestLinkSaveLoadRemove(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	_, collection := seedLinkParents(t, store)
	key := collection.Leaf(5)

	inTx(t, store, func(tx ports.Tx) error {
		links := tx.Links(domain.LinkItem)

		if _, err := links.Save(ctx, domain.NewLink(domain.LinkItem, collection, 5, "x", testNow)); !errors.Is(err, domain.ErrLinkNotFound) {
			t.Errorf("Save() of missing link error = %v, expected ErrLinkNotFound", err)
		}
		if _, err := links.Load(ctx, key); !errors.Is(err, domain.ErrLinkNotFound) {
			t.Errorf("Load() of missing link error = %v, expected ErrLinkNotFound", err)
		}

		created, err := links.Create(ctx, domain.NewLink(domain.LinkItem, collection, 5, "item-5", testNow))
		if err != nil {
			return err
		}
		created.LastModifiedTime = testNow.Add(time.Minute)
		if _, err := links.Save(ctx, created); err != nil {
			return err
		}
		loaded, err := links.Load(ctx, key)
		if err != nil {
			return err
		}
		if loaded.RefID != 5 || loaded.ParentKey != collection || !loaded.LastModifiedTime.Equal(testNow.Add(time.Minute)) {
			t.Errorf("Load() = %+v", loaded)
		}

		if err := links.Remove(ctx, key); err != nil {
			return err
		}
		if err := links.Remove(ctx, key); err != nil {
			t.Errorf("second Remove() error = %v, expected idempotent removal", err)
		}
		opt, err := links.LoadOptional(ctx, key)
		if err != nil {
			return err
		}
		if opt.IsFound() {
			t.Error("link still present after Remove()")
		}
		return nil
	})
}

func TestRemovingCollectionLinkCascades(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	_, collection := seedLinkParents(t, store)

	inTx(t, store, func(tx ports.Tx) error {
		for _, id := range []domain.EntityID{1, 2} {
			if _, err := tx.Links(domain.LinkItem).Create(ctx, domain.NewLink(domain.LinkItem, collection, id, domain.RemoteID("item-"+id.String()), testNow)); err != nil {
				return err
			}
		}
		return tx.Links(domain.LinkCollection).Remove(ctx, collection)
	})

	inTx(t, store, func(tx ports.Tx) error {
		links, err := tx.Links(domain.LinkItem).FindAllForScope(ctx, collection)
		if err != nil {
			return err
		}
		if len(links) != 0 {
			t.Errorf("item links survived their collection link: %+v", links)
		}
		return nil
	})
}

func TestWorkspaceRepository(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	inTx(t, store, func(tx ports.Tx) error {
		if _, err := tx.Workspaces().Load(ctx); !errors.Is(err, domain.ErrWorkspaceNotFound) {
			t.Errorf("Load() error = %v, expected ErrWorkspaceNotFound", err)
		}
		ws, err := domain.NewWorkspace("Life", "Europe/Rome", "space-1", "secret", testNow)
		if err != nil {
			return err
		}
		ws, err = tx.Workspaces().Create(ctx, ws)
		if err != nil {
			return err
		}
		ws.DefaultProjectRefID = 4
		_, err = tx.Workspaces().Save(ctx, ws)
		return err
	})

	inTx(t, store, func(tx ports.Tx) error {
		ws, err := tx.Workspaces().Load(ctx)
		if err != nil {
			return err
		}
		if ws.Name != "Life" || ws.DefaultProjectRefID != 4 || ws.RemoteSpaceID != "space-1" {
			t.Errorf("Load() = %+v", ws)
		}
		return nil
	})
}

func containsText(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
