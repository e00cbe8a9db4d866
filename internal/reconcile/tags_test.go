package reconcile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jupiter/internal/domain"
	"jupiter/internal/ports"
)

func (h *harness) createSmartList(name string, tags ...string) (domain.SmartList, []domain.SmartListTag) {
	h.t.Helper()
	var list domain.SmartList
	var created []domain.SmartListTag
	h.inTx(func(tx ports.Tx) error {
		var err error
		list, err = tx.SmartLists().Create(h.ctx, domain.NewLeaf(h.ws.RefID, name, domain.SmartListData{Key: ProjectKey(name)}, h.clock.Now()))
		if err != nil {
			return err
		}
		for _, tag := range tags {
			t, err := tx.SmartListTags().Create(h.ctx, domain.NewLeaf(list.RefID, tag, domain.SmartListTagData{}, h.clock.Now()))
			if err != nil {
				return err
			}
			created = append(created, t)
		}
		return nil
	})
	return list, created
}

func (h *harness) tagOptions(coll Collection) domain.SchemaProperty {
	h.t.Helper()
	c, ok := h.remote.Collection(h.collectionID(coll))
	require.True(h.t, ok)
	return c.Schema[PropTags]
}

func TestTagSync(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	list, tags := h.createSmartList("Errands", "home")
	home := tags[0]
	coll := SmartListCollection(h.ws, list)
	sync := NewTagSync(h.engine)

	report, err := sync.Sync(ctx, list, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.LinksCreated)
	homeOpt, ok := h.tagOptions(coll).Option("home")
	require.True(t, ok)
	homeLink, ok := h.link(domain.LinkFieldTag, coll.Key.Leaf(home.RefID)).Get()
	require.True(t, ok)
	assert.Equal(t, domain.RemoteID(homeOpt.ID), homeLink.RemoteID)

	t.Run("option added on the remote becomes a tag", func(t *testing.T) {
		_, err := h.remote.AddItem(h.collectionID(coll), domain.Properties{
			domain.PropName: domain.TitleValue("Buy stamps"),
			PropTags:        domain.MultiSelectValue([]string{"post office"}),
		})
		require.NoError(t, err)

		report, err := sync.Sync(ctx, list, Options{})
		require.NoError(t, err)
		assert.Equal(t, 1, report.LocalCreated)
		h.inTx(func(tx ports.Tx) error {
			all, err := tx.SmartListTags().FindAll(ctx, ports.Filter{ParentRefIDs: []domain.EntityID{list.RefID}})
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"home", "post office"}, names(all))
			return nil
		})
	})

	t.Run("local rename keeps the option id", func(t *testing.T) {
		h.inTx(func(tx ports.Tx) error {
			_, err := tx.SmartListTags().Save(ctx, home.Rename("house", h.clock.Now()))
			return err
		})
		_, err := sync.Sync(ctx, list, Options{Prefer: PreferLocal})
		require.NoError(t, err)

		prop := h.tagOptions(coll)
		_, stale := prop.Option("home")
		assert.False(t, stale)
		house, ok := prop.Option("house")
		require.True(t, ok)
		assert.Equal(t, homeOpt.ID, house.ID)
	})

	t.Run("remote rename renames the tag", func(t *testing.T) {
		c, _ := h.remote.Collection(h.collectionID(coll))
		schema := c.Schema
		prop := schema[PropTags]
		for i, o := range prop.Options {
			if o.Name == "post office" {
				prop.Options[i].Name = "post"
			}
		}
		schema[PropTags] = prop
		_, err := h.remote.UpdateCollection(ctx, c.ID, c.Title, schema)
		require.NoError(t, err)

		report, err := sync.Sync(ctx, list, Options{Prefer: PreferRemote})
		require.NoError(t, err)
		assert.Equal(t, 1, report.LocalUpdated)
		h.inTx(func(tx ports.Tx) error {
			all, err := tx.SmartListTags().FindAll(ctx, ports.Filter{ParentRefIDs: []domain.EntityID{list.RefID}})
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"house", "post"}, names(all))
			return nil
		})
	})
}

func names[P any](leaves []domain.Leaf[P]) []string {
	out := make([]string, 0, len(leaves))
	for _, l := range leaves {
		out = append(out, l.Name)
	}
	return out
}
