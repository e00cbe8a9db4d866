package reconcile

import (
	"context"
	"fmt"
	"strings"

	"jupiter/internal/domain"
	"jupiter/internal/ports"
)

// BodyBlocks splits text into paragraph blocks, one per non-empty line
func BodyBlocks(text string) []domain.Block {
	var blocks []domain.Block
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		b := domain.Block{Type: domain.BlockParagraph, Text: line}
		switch {
		case strings.HasPrefix(line, "- [ ] "), strings.HasPrefix(line, "- [x] "):
			b.Type, b.Checked, b.Text = domain.BlockToDo, line[3] == 'x', line[6:]
		case strings.HasPrefix(line, "- "):
			b.Type, b.Text = domain.BlockBullet, line[2:]
		case strings.HasPrefix(line, "## "):
			b.Type, b.Text = domain.BlockHeading, line[3:]
		}
		blocks = append(blocks, b)
	}
	return blocks
}

// WriteBody replaces the content blocks of the remote item linked under
// itemKey with the blocks of text, and records them as block links
func (e *Engine) WriteBody(ctx context.Context, itemKey domain.ScopeKey, text string) error {
	var item domain.Link
	var old []domain.Link
	err := ports.InTx(ctx, e.store, func(tx ports.Tx) error {
		var err error
		if item, err = tx.Links(domain.LinkItem).Load(ctx, itemKey); err != nil {
			return err
		}
		old, err = tx.Links(domain.LinkBlock).FindAllForScope(ctx, itemKey)
		return err
	})
	if err != nil {
		return err
	}

	for _, b := range old {
		if err := e.remote.DeleteBlock(ctx, b.RemoteID); err != nil && !domain.IsRemoteNotFound(err) {
			return fmt.Errorf("failed to delete block %s: %w", b.RemoteID, err)
		}
	}
	var created []domain.Block
	if blocks := BodyBlocks(text); len(blocks) > 0 {
		if created, err = e.remote.AppendBlocks(ctx, item.RemoteID, blocks); err != nil {
			return fmt.Errorf("failed to write body of %s: %w", itemKey, err)
		}
	}

	now := e.clock.Now()
	return ports.InTx(ctx, e.store, func(tx ports.Tx) error {
		links := tx.Links(domain.LinkBlock)
		for _, b := range old {
			if err := links.Remove(ctx, b.Key); err != nil {
				return err
			}
		}
		for i, b := range created {
			if _, err := links.Create(ctx, domain.NewLink(domain.LinkBlock, itemKey, domain.EntityID(i+1), b.ID, now)); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReadBody renders the remote content blocks of an item as text
func (e *Engine) ReadBody(ctx context.Context, remoteID domain.RemoteID) (string, error) {
	blocks, err := e.remote.ListBlocks(ctx, remoteID)
	if err != nil {
		return "", err
	}
	lines := make([]string, 0, len(blocks))
	for _, b := range blocks {
		switch b.Type {
		case domain.BlockToDo:
			mark := " "
			if b.Checked {
				mark = "x"
			}
			lines = append(lines, "- ["+mark+"] "+b.Text)
		case domain.BlockBullet:
			lines = append(lines, "- "+b.Text)
		case domain.BlockHeading:
			lines = append(lines, "## "+b.Text)
		default:
			lines = append(lines, b.Text)
		}
	}
	return strings.Join(lines, "\n"), nil
}
