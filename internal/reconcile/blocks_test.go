package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jupiter/internal/domain"
	"jupiter/internal/ports"
)

func TestBodyBlocks(t *testing.T) {
	blocks := BodyBlocks("## Context\n\nReply to Bob\n- [ ] check the thread\n- [x] read it\n- ask Alice\n")
	require.Len(t, blocks, 5)
	assert.Equal(t, domain.Block{Type: domain.BlockHeading, Text: "Context"}, blocks[0])
	assert.Equal(t, domain.Block{Type: domain.BlockParagraph, Text: "Reply to Bob"}, blocks[1])
	assert.Equal(t, domain.Block{Type: domain.BlockToDo, Text: "check the thread"}, blocks[2])
	assert.Equal(t, domain.Block{Type: domain.BlockToDo, Text: "read it", Checked: true}, blocks[3])
	assert.Equal(t, domain.Block{Type: domain.BlockBullet, Text: "ask Alice"}, blocks[4])
	assert.Empty(t, BodyBlocks("\n  \n"))
}

func TestWriteBodyReplacesBlocks(t *testing.T) {
	h := newHarness(t)
	task := h.createInboxTask("Reply on slack", nil)
	link, err := NewPublisher(h.engine, InboxTaskFamily).Publish(h.ctx, h.inboxColl(), task)
	require.NoError(t, err)

	blockLinks := func() []domain.Link {
		var out []domain.Link
		h.inTx(func(tx ports.Tx) error {
			var err error
			out, err = tx.Links(domain.LinkBlock).FindAllForScope(h.ctx, link.Key)
			return err
		})
		return out
	}

	require.NoError(t, h.engine.WriteBody(h.ctx, link.Key, "Reply to Bob\n- [ ] check the thread"))
	assert.Len(t, blockLinks(), 2)
	body, err := h.engine.ReadBody(h.ctx, link.RemoteID)
	require.NoError(t, err)
	assert.Equal(t, "Reply to Bob\n- [ ] check the thread", body)

	require.NoError(t, h.engine.WriteBody(h.ctx, link.Key, "Done"))
	assert.Len(t, blockLinks(), 1)
	blocks, err := h.remote.ListBlocks(h.ctx, link.RemoteID)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "Done", blocks[0].Text)
}
