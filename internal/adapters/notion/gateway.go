package notion

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"jupiter/internal/domain"
)

const pageSize = 100

func idPath(prefix string, id domain.RemoteID, suffix string) string {
	return prefix + url.PathEscape(string(id)) + suffix
}

// --- pages ---

func (c *Client) CreatePage(ctx context.Context, parent domain.RemoteID, title string) (domain.RemotePage, error) {
	body := map[string]any{
		"parent":     wireParent{Type: "page_id", PageID: string(parent)},
		"properties": map[string]any{"title": map[string]any{"title": textParts(title)}},
	}
	var out wirePage
	if err := c.do(ctx, http.MethodPost, "/v1/pages", body, &out); err != nil {
		return domain.RemotePage{}, err
	}
	return decodePage(out), nil
}

func (c *Client) GetPage(ctx context.Context, id domain.RemoteID) (domain.RemotePage, error) {
	var out wirePage
	if err := c.do(ctx, http.MethodGet, idPath("/v1/pages/", id, ""), nil, &out); err != nil {
		return domain.RemotePage{}, err
	}
	if out.Archived {
		return domain.RemotePage{}, fmt.Errorf("%w: page %s is archived", domain.ErrRemoteNotFound, id)
	}
	return decodePage(out), nil
}

func (c *Client) UpdatePage(ctx context.Context, id domain.RemoteID, title string) (domain.RemotePage, error) {
	body := map[string]any{
		"properties": map[string]any{"title": map[string]any{"title": textParts(title)}},
	}
	var out wirePage
	if err := c.do(ctx, http.MethodPatch, idPath("/v1/pages/", id, ""), body, &out); err != nil {
		return domain.RemotePage{}, err
	}
	return decodePage(out), nil
}

func (c *Client) DeletePage(ctx context.Context, id domain.RemoteID) error {
	return c.do(ctx, http.MethodPatch, idPath("/v1/pages/", id, ""), map[string]any{"archived": true}, nil)
}

func (c *Client) ListPages(ctx context.Context, parent domain.RemoteID) ([]domain.RemotePage, error) {
	children, err := c.listChildren(ctx, parent)
	if err != nil {
		return nil, err
	}
	var pages []domain.RemotePage
	for _, b := range children {
		if b.Type == "child_page" && b.ChildPage != nil && !b.Archived {
			pages = append(pages, domain.RemotePage{ID: domain.RemoteID(b.ID), ParentID: parent, Title: b.ChildPage.Title})
		}
	}
	return pages, nil
}

// --- collections ---

func (c *Client) CreateCollection(ctx context.Context, parent domain.RemoteID, title string, schema domain.Schema) (domain.RemoteCollection, error) {
	body := map[string]any{
		"parent":     wireParent{Type: "page_id", PageID: string(parent)},
		"title":      textParts(title),
		"properties": encodeSchema(schema),
	}
	var out wireDatabase
	if err := c.do(ctx, http.MethodPost, "/v1/databases", body, &out); err != nil {
		return domain.RemoteCollection{}, err
	}
	return decodeDatabase(out), nil
}

func (c *Client) GetCollection(ctx context.Context, id domain.RemoteID) (domain.RemoteCollection, error) {
	var out wireDatabase
	if err := c.do(ctx, http.MethodGet, idPath("/v1/databases/", id, ""), nil, &out); err != nil {
		return domain.RemoteCollection{}, err
	}
	if out.Archived {
		return domain.RemoteCollection{}, fmt.Errorf("%w: collection %s is archived", domain.ErrRemoteNotFound, id)
	}
	return decodeDatabase(out), nil
}

func (c *Client) UpdateCollection(ctx context.Context, id domain.RemoteID, title string, schema domain.Schema) (domain.RemoteCollection, error) {
	body := map[string]any{
		"title":      textParts(title),
		"properties": encodeSchema(schema),
	}
	var out wireDatabase
	if err := c.do(ctx, http.MethodPatch, idPath("/v1/databases/", id, ""), body, &out); err != nil {
		return domain.RemoteCollection{}, err
	}
	return decodeDatabase(out), nil
}

func (c *Client) DeleteCollection(ctx context.Context, id domain.RemoteID) error {
	return c.do(ctx, http.MethodPatch, idPath("/v1/databases/", id, ""), map[string]any{"archived": true}, nil)
}

func (c *Client) ListCollections(ctx context.Context, parent domain.RemoteID) ([]domain.RemoteCollection, error) {
	children, err := c.listChildren(ctx, parent)
	if err != nil {
		return nil, err
	}
	var out []domain.RemoteCollection
	for _, b := range children {
		if b.Type != "child_database" || b.Archived {
			continue
		}
		coll, err := c.GetCollection(ctx, domain.RemoteID(b.ID))
		if err != nil {
			if domain.IsRemoteNotFound(err) {
				continue
			}
			return nil, err
		}
		out = append(out, coll)
	}
	return out, nil
}

// --- items ---

func (c *Client) CreateItem(ctx context.Context, collection domain.RemoteID, props domain.Properties) (domain.RemoteItem, error) {
	body := map[string]any{
		"parent":     wireParent{Type: "database_id", DatabaseID: string(collection)},
		"properties": encodeProperties(props, c.loc),
	}
	var out wirePage
	if err := c.do(ctx, http.MethodPost, "/v1/pages", body, &out); err != nil {
		return domain.RemoteItem{}, err
	}
	return decodeItem(out), nil
}

func (c *Client) GetItem(ctx context.Context, id domain.RemoteID) (domain.RemoteItem, error) {
	var out wirePage
	if err := c.do(ctx, http.MethodGet, idPath("/v1/pages/", id, ""), nil, &out); err != nil {
		return domain.RemoteItem{}, err
	}
	if out.Archived {
		return domain.RemoteItem{}, fmt.Errorf("%w: item %s is archived", domain.ErrRemoteNotFound, id)
	}
	return decodeItem(out), nil
}

func (c *Client) UpdateItem(ctx context.Context, id domain.RemoteID, props domain.Properties) (domain.RemoteItem, error) {
	body := map[string]any{"properties": encodeProperties(props, c.loc)}
	var out wirePage
	if err := c.do(ctx, http.MethodPatch, idPath("/v1/pages/", id, ""), body, &out); err != nil {
		return domain.RemoteItem{}, err
	}
	return decodeItem(out), nil
}

func (c *Client) DeleteItem(ctx context.Context, id domain.RemoteID) error {
	return c.do(ctx, http.MethodPatch, idPath("/v1/pages/", id, ""), map[string]any{"archived": true}, nil)
}

// ListItems pages through the whole collection
func (c *Client) ListItems(ctx context.Context, collection domain.RemoteID) ([]domain.RemoteItem, error) {
	var items []domain.RemoteItem
	cursor := ""
	for {
		body := map[string]any{"page_size": pageSize}
		if cursor != "" {
			body["start_cursor"] = cursor
		}
		var out wireList[wirePage]
		if err := c.do(ctx, http.MethodPost, idPath("/v1/databases/", collection, "/query"), body, &out); err != nil {
			return nil, err
		}
		for _, p := range out.Results {
			if !p.Archived {
				items = append(items, decodeItem(p))
			}
		}
		if !out.HasMore || out.NextCursor == nil || *out.NextCursor == "" {
			return items, nil
		}
		cursor = *out.NextCursor
	}
}

// --- blocks ---

func (c *Client) listChildren(ctx context.Context, parent domain.RemoteID) ([]wireBlock, error) {
	var blocks []wireBlock
	cursor := ""
	for {
		q := url.Values{"page_size": {fmt.Sprint(pageSize)}}
		if cursor != "" {
			q.Set("start_cursor", cursor)
		}
		var out wireList[wireBlock]
		if err := c.do(ctx, http.MethodGet, idPath("/v1/blocks/", parent, "/children?"+q.Encode()), nil, &out); err != nil {
			return nil, err
		}
		blocks = append(blocks, out.Results...)
		if !out.HasMore || out.NextCursor == nil || *out.NextCursor == "" {
			return blocks, nil
		}
		cursor = *out.NextCursor
	}
}

func (c *Client) ListBlocks(ctx context.Context, parent domain.RemoteID) ([]domain.Block, error) {
	children, err := c.listChildren(ctx, parent)
	if err != nil {
		return nil, err
	}
	var blocks []domain.Block
	for _, w := range children {
		if b, ok := decodeBlock(w); ok && !w.Archived {
			blocks = append(blocks, b)
		}
	}
	return blocks, nil
}

func (c *Client) AppendBlocks(ctx context.Context, parent domain.RemoteID, blocks []domain.Block) ([]domain.Block, error) {
	children := make([]map[string]any, 0, len(blocks))
	for _, b := range blocks {
		children = append(children, encodeBlock(b))
	}
	var out wireList[wireBlock]
	if err := c.do(ctx, http.MethodPatch, idPath("/v1/blocks/", parent, "/children"), map[string]any{"children": children}, &out); err != nil {
		return nil, err
	}
	var created []domain.Block
	for _, w := range out.Results {
		if b, ok := decodeBlock(w); ok {
			created = append(created, b)
		}
	}
	return created, nil
}

func (c *Client) DeleteBlock(ctx context.Context, id domain.RemoteID) error {
	return c.do(ctx, http.MethodDelete, idPath("/v1/blocks/", id, ""), nil, nil)
}
