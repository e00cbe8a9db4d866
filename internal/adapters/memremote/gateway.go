// Package memremote is an in-memory ports.RemoteGateway used as the remote
// twin in tests and dry runs.
package memremote

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"jupiter/internal/domain"
	"jupiter/internal/ports"
)

// Clock is a settable time source
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(now time.Time) *Clock { return &Clock{now: now.UTC()} }

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t.UTC()
	c.mu.Unlock()
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type item struct {
	domain.RemoteItem
	archived bool
}

// Gateway keeps pages, collections, items and blocks in maps. Writes made
// through the gateway methods are counted; Edit and Drop simulate changes
// made by a person in the remote UI and are not.
type Gateway struct {
	mu          sync.Mutex
	clock       ports.Clock
	pages       map[domain.RemoteID]*domain.RemotePage
	collections map[domain.RemoteID]*domain.RemoteCollection
	items       map[domain.RemoteID]*item
	blocks      map[domain.RemoteID][]domain.Block
	order       []domain.RemoteID
	calls       map[string]int
	writes      int
	faults      map[string][]error
	down        bool
}

var _ ports.RemoteGateway = (*Gateway)(nil)

func New(clock ports.Clock) *Gateway {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &Gateway{
		clock:       clock,
		pages:       map[domain.RemoteID]*domain.RemotePage{},
		collections: map[domain.RemoteID]*domain.RemoteCollection{},
		items:       map[domain.RemoteID]*item{},
		blocks:      map[domain.RemoteID][]domain.Block{},
		calls:       map[string]int{},
		faults:      map[string][]error{},
	}
}

// FailNext makes the next call of op (a method name such as "UpdateItem")
// return err
func (g *Gateway) FailNext(op string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.faults[op] = append(g.faults[op], err)
}

// SetUnavailable makes every call fail with ErrRemoteUnavailable
func (g *Gateway) SetUnavailable(down bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.down = down
}

// Writes counts create, update and delete calls that succeeded
func (g *Gateway) Writes() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.writes
}

// Calls counts invocations of op, successful or not
func (g *Gateway) Calls(op string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[op]
}

func (g *Gateway) ResetCounters() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = map[string]int{}
	g.writes = 0
}

// enter must be called with the lock held
func (g *Gateway) enter(op string) error {
	g.calls[op]++
	if g.down {
		return fmt.Errorf("%w: %s", domain.ErrRemoteUnavailable, op)
	}
	if queued := g.faults[op]; len(queued) > 0 {
		g.faults[op] = queued[1:]
		return queued[0]
	}
	return nil
}

func notFound(what string, id domain.RemoteID) error {
	return fmt.Errorf("%w: %s %s", domain.ErrRemoteNotFound, what, id)
}

func newID() domain.RemoteID { return domain.RemoteID(uuid.NewString()) }

// --- pages ---

func (g *Gateway) CreatePage(_ context.Context, parent domain.RemoteID, title string) (domain.RemotePage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter("CreatePage"); err != nil {
		return domain.RemotePage{}, err
	}
	if parent != "" {
		if p, ok := g.pages[parent]; !ok || p.Archived {
			return domain.RemotePage{}, notFound("page", parent)
		}
	}
	p := &domain.RemotePage{ID: newID(), ParentID: parent, Title: title, LastEditedTime: g.clock.Now()}
	g.pages[p.ID] = p
	g.order = append(g.order, p.ID)
	g.writes++
	return *p, nil
}

func (g *Gateway) GetPage(_ context.Context, id domain.RemoteID) (domain.RemotePage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter("GetPage"); err != nil {
		return domain.RemotePage{}, err
	}
	p, ok := g.pages[id]
	if !ok || p.Archived {
		return domain.RemotePage{}, notFound("page", id)
	}
	return *p, nil
}

func (g *Gateway) UpdatePage(_ context.Context, id domain.RemoteID, title string) (domain.RemotePage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter("UpdatePage"); err != nil {
		return domain.RemotePage{}, err
	}
	p, ok := g.pages[id]
	if !ok || p.Archived {
		return domain.RemotePage{}, notFound("page", id)
	}
	p.Title = title
	p.LastEditedTime = g.clock.Now()
	g.writes++
	return *p, nil
}

func (g *Gateway) DeletePage(_ context.Context, id domain.RemoteID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter("DeletePage"); err != nil {
		return err
	}
	p, ok := g.pages[id]
	if !ok || p.Archived {
		return notFound("page", id)
	}
	p.Archived = true
	g.writes++
	return nil
}

func (g *Gateway) ListPages(_ context.Context, parent domain.RemoteID) ([]domain.RemotePage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter("ListPages"); err != nil {
		return nil, err
	}
	var out []domain.RemotePage
	for _, id := range g.order {
		if p, ok := g.pages[id]; ok && p.ParentID == parent && !p.Archived {
			out = append(out, *p)
		}
	}
	return out, nil
}

// --- collections ---

func cloneSchema(s domain.Schema) domain.Schema {
	out := make(domain.Schema, len(s))
	for name, p := range s {
		p.Name = name
		p.Options = slices.Clone(p.Options)
		for i := range p.Options {
			if p.Options[i].ID == "" {
				p.Options[i].ID = uuid.NewString()
			}
		}
		out[name] = p
	}
	return out
}

func (g *Gateway) CreateCollection(_ context.Context, parent domain.RemoteID, title string, schema domain.Schema) (domain.RemoteCollection, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter("CreateCollection"); err != nil {
		return domain.RemoteCollection{}, err
	}
	if p, ok := g.pages[parent]; !ok || p.Archived {
		return domain.RemoteCollection{}, notFound("page", parent)
	}
	c := &domain.RemoteCollection{
		ID:             newID(),
		ParentPageID:   parent,
		Title:          title,
		Schema:         cloneSchema(schema),
		LastEditedTime: g.clock.Now(),
	}
	g.collections[c.ID] = c
	g.order = append(g.order, c.ID)
	g.writes++
	return g.copyCollection(c), nil
}

func (g *Gateway) copyCollection(c *domain.RemoteCollection) domain.RemoteCollection {
	out := *c
	out.Schema = cloneSchema(c.Schema)
	return out
}

func (g *Gateway) liveCollection(id domain.RemoteID) (*domain.RemoteCollection, error) {
	c, ok := g.collections[id]
	if !ok || c.Archived {
		return nil, notFound("collection", id)
	}
	return c, nil
}

func (g *Gateway) GetCollection(_ context.Context, id domain.RemoteID) (domain.RemoteCollection, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter("GetCollection"); err != nil {
		return domain.RemoteCollection{}, err
	}
	c, err := g.liveCollection(id)
	if err != nil {
		return domain.RemoteCollection{}, err
	}
	return g.copyCollection(c), nil
}

func (g *Gateway) UpdateCollection(_ context.Context, id domain.RemoteID, title string, schema domain.Schema) (domain.RemoteCollection, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter("UpdateCollection"); err != nil {
		return domain.RemoteCollection{}, err
	}
	c, err := g.liveCollection(id)
	if err != nil {
		return domain.RemoteCollection{}, err
	}
	c.Title = title
	c.Schema = cloneSchema(schema)
	c.LastEditedTime = g.clock.Now()
	g.writes++
	return g.copyCollection(c), nil
}

func (g *Gateway) DeleteCollection(_ context.Context, id domain.RemoteID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter("DeleteCollection"); err != nil {
		return err
	}
	c, err := g.liveCollection(id)
	if err != nil {
		return err
	}
	c.Archived = true
	g.writes++
	return nil
}

func (g *Gateway) ListCollections(_ context.Context, parent domain.RemoteID) ([]domain.RemoteCollection, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter("ListCollections"); err != nil {
		return nil, err
	}
	var out []domain.RemoteCollection
	for _, id := range g.order {
		if c, ok := g.collections[id]; ok && c.ParentPageID == parent && !c.Archived {
			out = append(out, g.copyCollection(c))
		}
	}
	return out, nil
}

// --- items ---

// apply checks props against the schema and merges them into dst, adding
// unseen select options the way the hosted service does
func (g *Gateway) apply(c *domain.RemoteCollection, dst, props domain.Properties) error {
	for name, v := range props {
		prop, ok := c.Schema[name]
		if !ok {
			return fmt.Errorf("%w: %s is not a property of %s", domain.ErrSchemaMismatch, name, c.ID)
		}
		if prop.Type == domain.PropLastEditedType {
			continue
		}
		if v.Type != prop.Type {
			return fmt.Errorf("%w: %s expects %s, got %s", domain.ErrSchemaMismatch, name, prop.Type, v.Type)
		}
		if prop.Type.IsSelect() {
			values := v.MultiSelect
			if prop.Type == domain.PropSelect && v.Select != "" {
				values = []string{v.Select}
			}
			for _, value := range values {
				if _, found := prop.Option(value); !found {
					prop.Options = append(prop.Options, domain.SelectOption{ID: uuid.NewString(), Name: value, Color: "default"})
				}
			}
			c.Schema[name] = prop
		}
		v.MultiSelect = slices.Clone(v.MultiSelect)
		dst[name] = v
	}
	return nil
}

func (g *Gateway) copyItem(it *item) domain.RemoteItem {
	out := it.RemoteItem
	out.Properties = it.Properties.Clone()
	if c, ok := g.collections[it.CollectionID]; ok {
		for name, p := range c.Schema {
			if p.Type == domain.PropLastEditedType {
				out.Properties[name] = domain.PropValue{Type: p.Type, Time: it.LastEditedTime}
			}
		}
	}
	return out
}

func (g *Gateway) liveItem(id domain.RemoteID) (*item, error) {
	it, ok := g.items[id]
	if !ok || it.archived {
		return nil, notFound("item", id)
	}
	if c, ok := g.collections[it.CollectionID]; !ok || c.Archived {
		return nil, notFound("item", id)
	}
	return it, nil
}

func (g *Gateway) CreateItem(_ context.Context, collection domain.RemoteID, props domain.Properties) (domain.RemoteItem, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter("CreateItem"); err != nil {
		return domain.RemoteItem{}, err
	}
	c, err := g.liveCollection(collection)
	if err != nil {
		return domain.RemoteItem{}, err
	}
	it := &item{RemoteItem: domain.RemoteItem{
		ID:             newID(),
		CollectionID:   collection,
		Properties:     domain.Properties{},
		LastEditedTime: g.clock.Now(),
	}}
	if err := g.apply(c, it.Properties, props); err != nil {
		return domain.RemoteItem{}, err
	}
	g.items[it.ID] = it
	g.order = append(g.order, it.ID)
	g.writes++
	return g.copyItem(it), nil
}

func (g *Gateway) GetItem(_ context.Context, id domain.RemoteID) (domain.RemoteItem, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter("GetItem"); err != nil {
		return domain.RemoteItem{}, err
	}
	it, err := g.liveItem(id)
	if err != nil {
		return domain.RemoteItem{}, err
	}
	return g.copyItem(it), nil
}

func (g *Gateway) UpdateItem(_ context.Context, id domain.RemoteID, props domain.Properties) (domain.RemoteItem, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter("UpdateItem"); err != nil {
		return domain.RemoteItem{}, err
	}
	it, err := g.liveItem(id)
	if err != nil {
		return domain.RemoteItem{}, err
	}
	if err := g.apply(g.collections[it.CollectionID], it.Properties, props); err != nil {
		return domain.RemoteItem{}, err
	}
	it.LastEditedTime = g.clock.Now()
	g.writes++
	return g.copyItem(it), nil
}

func (g *Gateway) DeleteItem(_ context.Context, id domain.RemoteID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter("DeleteItem"); err != nil {
		return err
	}
	it, err := g.liveItem(id)
	if err != nil {
		return err
	}
	it.archived = true
	g.writes++
	return nil
}

func (g *Gateway) ListItems(_ context.Context, collection domain.RemoteID) ([]domain.RemoteItem, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter("ListItems"); err != nil {
		return nil, err
	}
	if _, err := g.liveCollection(collection); err != nil {
		return nil, err
	}
	var out []domain.RemoteItem
	for _, id := range g.order {
		if it, ok := g.items[id]; ok && it.CollectionID == collection && !it.archived {
			out = append(out, g.copyItem(it))
		}
	}
	return out, nil
}

// --- blocks ---

func (g *Gateway) blockParentExists(id domain.RemoteID) bool {
	if p, ok := g.pages[id]; ok && !p.Archived {
		return true
	}
	_, err := g.liveItem(id)
	return err == nil
}

func (g *Gateway) ListBlocks(_ context.Context, parent domain.RemoteID) ([]domain.Block, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter("ListBlocks"); err != nil {
		return nil, err
	}
	if !g.blockParentExists(parent) {
		return nil, notFound("block parent", parent)
	}
	return slices.Clone(g.blocks[parent]), nil
}

func (g *Gateway) AppendBlocks(_ context.Context, parent domain.RemoteID, blocks []domain.Block) ([]domain.Block, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter("AppendBlocks"); err != nil {
		return nil, err
	}
	if !g.blockParentExists(parent) {
		return nil, notFound("block parent", parent)
	}
	created := make([]domain.Block, 0, len(blocks))
	for _, b := range blocks {
		b.ID = newID()
		if b.Type == "" {
			b.Type = domain.BlockParagraph
		}
		created = append(created, b)
	}
	g.blocks[parent] = append(g.blocks[parent], created...)
	g.writes++
	return created, nil
}

func (g *Gateway) DeleteBlock(_ context.Context, id domain.RemoteID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter("DeleteBlock"); err != nil {
		return err
	}
	for parent, blocks := range g.blocks {
		for i, b := range blocks {
			if b.ID == id {
				g.blocks[parent] = slices.Delete(blocks, i, i+1)
				g.writes++
				return nil
			}
		}
	}
	return notFound("block", id)
}

// --- out-of-band edits ---

// Edit changes item properties as a person would in the remote UI
func (g *Gateway) Edit(id domain.RemoteID, props domain.Properties) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	it, err := g.liveItem(id)
	if err != nil {
		return err
	}
	if err := g.apply(g.collections[it.CollectionID], it.Properties, props); err != nil {
		return err
	}
	it.LastEditedTime = g.clock.Now()
	return nil
}

// AddItem creates an item as a person would in the remote UI
func (g *Gateway) AddItem(collection domain.RemoteID, props domain.Properties) (domain.RemoteID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, err := g.liveCollection(collection)
	if err != nil {
		return "", err
	}
	it := &item{RemoteItem: domain.RemoteItem{
		ID:             newID(),
		CollectionID:   collection,
		Properties:     domain.Properties{},
		LastEditedTime: g.clock.Now(),
	}}
	if err := g.apply(c, it.Properties, props); err != nil {
		return "", err
	}
	g.items[it.ID] = it
	g.order = append(g.order, it.ID)
	return it.ID, nil
}

// Drop removes any object outright, as if deleted from the trash
func (g *Gateway) Drop(id domain.RemoteID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.pages, id)
	delete(g.collections, id)
	delete(g.items, id)
	delete(g.blocks, id)
}

// Item reads a live item without counting a call
func (g *Gateway) Item(id domain.RemoteID) (domain.RemoteItem, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	it, ok := g.items[id]
	if !ok || it.archived {
		return domain.RemoteItem{}, false
	}
	return g.copyItem(it), true
}

// Collection reads a live collection
func (g *Gateway) Collection(id domain.RemoteID) (domain.RemoteCollection, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, err := g.liveCollection(id)
	if err != nil {
		return domain.RemoteCollection{}, false
	}
	return g.copyCollection(c), true
}
