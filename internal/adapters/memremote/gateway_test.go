package memremote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jupiter/internal/domain"
)

func setup(t *testing.T) (*Gateway, *Clock, domain.RemoteCollection) {
	t.Helper()
	clock := NewClock(time.Date(2022, 5, 20, 9, 0, 0, 0, time.UTC))
	g := New(clock)
	ctx := context.Background()
	root, err := g.CreatePage(ctx, "", "Jupiter")
	require.NoError(t, err)
	coll, err := g.CreateCollection(ctx, root.ID, "Inbox Tasks", domain.Schema{
		domain.PropName:           {Type: domain.PropTitle},
		domain.PropRefID:          {Type: domain.PropRichText},
		"Status":                  {Type: domain.PropSelect, Options: []domain.SelectOption{{Name: "Accepted"}}},
		domain.PropLastEditedTime: {Type: domain.PropLastEditedType},
	})
	require.NoError(t, err)
	return g, clock, coll
}

func TestItemLifecycle(t *testing.T) {
	g, clock, coll := setup(t)
	ctx := context.Background()

	created, err := g.CreateItem(ctx, coll.ID, domain.Properties{domain.PropName: domain.TitleValue("Buy milk")})
	require.NoError(t, err)
	assert.Equal(t, clock.Now(), created.Properties[domain.PropLastEditedTime].Time)

	clock.Advance(time.Hour)
	updated, err := g.UpdateItem(ctx, created.ID, domain.Properties{"Status": domain.SelectValue("Done")})
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", updated.Name())
	assert.Equal(t, clock.Now(), updated.LastEditedTime)

	got, ok := g.Collection(coll.ID)
	require.True(t, ok)
	opt, found := got.Schema["Status"].Option("Done")
	require.True(t, found)
	assert.NotEmpty(t, opt.ID)

	require.NoError(t, g.DeleteItem(ctx, created.ID))
	_, err = g.GetItem(ctx, created.ID)
	assert.True(t, domain.IsRemoteNotFound(err))
	assert.Equal(t, 5, g.Writes())
}

func TestUnknownPropertyIsSchemaMismatch(t *testing.T) {
	g, _, coll := setup(t)
	_, err := g.CreateItem(context.Background(), coll.ID, domain.Properties{"Nope": domain.TextValue("x")})
	assert.True(t, errors.Is(err, domain.ErrSchemaMismatch))
}

func TestFaultInjection(t *testing.T) {
	g, _, coll := setup(t)
	ctx := context.Background()

	g.FailNext("ListItems", domain.ErrRemoteUnavailable)
	_, err := g.ListItems(ctx, coll.ID)
	assert.True(t, errors.Is(err, domain.ErrRemoteUnavailable))
	_, err = g.ListItems(ctx, coll.ID)
	assert.NoError(t, err)

	g.SetUnavailable(true)
	_, err = g.GetCollection(ctx, coll.ID)
	assert.True(t, errors.Is(err, domain.ErrRemoteUnavailable))
	assert.Equal(t, 2, g.Calls("ListItems"))
}

func TestOutOfBandEditsAreNotCounted(t *testing.T) {
	g, _, coll := setup(t)
	g.ResetCounters()

	id, err := g.AddItem(coll.ID, domain.Properties{domain.PropName: domain.TitleValue("From the UI")})
	require.NoError(t, err)
	require.NoError(t, g.Edit(id, domain.Properties{domain.PropName: domain.TitleValue("Renamed")}))
	assert.Zero(t, g.Writes())

	items, err := g.ListItems(context.Background(), coll.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Renamed", items[0].Name())

	g.Drop(id)
	_, ok := g.Item(id)
	assert.False(t, ok)
}

func TestArchivedCollectionHidesItems(t *testing.T) {
	g, _, coll := setup(t)
	ctx := context.Background()
	it, err := g.CreateItem(ctx, coll.ID, domain.Properties{domain.PropName: domain.TitleValue("x")})
	require.NoError(t, err)

	require.NoError(t, g.DeleteCollection(ctx, coll.ID))
	_, err = g.GetItem(ctx, it.ID)
	assert.True(t, domain.IsRemoteNotFound(err))
	_, err = g.ListItems(ctx, coll.ID)
	assert.True(t, domain.IsRemoteNotFound(err))
}

func TestBlocks(t *testing.T) {
	g, _, coll := setup(t)
	ctx := context.Background()
	it, err := g.CreateItem(ctx, coll.ID, domain.Properties{domain.PropName: domain.TitleValue("x")})
	require.NoError(t, err)

	created, err := g.AppendBlocks(ctx, it.ID, []domain.Block{{Text: "one"}, {Type: domain.BlockToDo, Text: "two"}})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, domain.BlockParagraph, created[0].Type)

	require.NoError(t, g.DeleteBlock(ctx, created[0].ID))
	blocks, err := g.ListBlocks(ctx, it.ID)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "two", blocks[0].Text)

	assert.True(t, domain.IsRemoteNotFound(g.DeleteBlock(ctx, created[0].ID)))
}
