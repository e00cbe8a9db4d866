package ports

import (
	"context"

	"jupiter/internal/domain"
)

// PageGateway manages single named documents
type PageGateway interface {
	CreatePage(ctx context.Context, parent domain.RemoteID, title string) (domain.RemotePage, error)
	GetPage(ctx context.Context, id domain.RemoteID) (domain.RemotePage, error)
	UpdatePage(ctx context.Context, id domain.RemoteID, title string) (domain.RemotePage, error)
	DeletePage(ctx context.Context, id domain.RemoteID) error
	ListPages(ctx context.Context, parent domain.RemoteID) ([]domain.RemotePage, error)
}

// CollectionGateway manages databases and their schemas
type CollectionGateway interface {
	CreateCollection(ctx context.Context, parent domain.RemoteID, title string, schema domain.Schema) (domain.RemoteCollection, error)
	GetCollection(ctx context.Context, id domain.RemoteID) (domain.RemoteCollection, error)
	UpdateCollection(ctx context.Context, id domain.RemoteID, title string, schema domain.Schema) (domain.RemoteCollection, error)
	DeleteCollection(ctx context.Context, id domain.RemoteID) error
	ListCollections(ctx context.Context, parent domain.RemoteID) ([]domain.RemoteCollection, error)
}

// ItemGateway manages collection rows. UpdateItem only touches the given
// properties.
type ItemGateway interface {
	CreateItem(ctx context.Context, collection domain.RemoteID, props domain.Properties) (domain.RemoteItem, error)
	GetItem(ctx context.Context, id domain.RemoteID) (domain.RemoteItem, error)
	UpdateItem(ctx context.Context, id domain.RemoteID, props domain.Properties) (domain.RemoteItem, error)
	DeleteItem(ctx context.Context, id domain.RemoteID) error
	ListItems(ctx context.Context, collection domain.RemoteID) ([]domain.RemoteItem, error)
}

// BlockGateway manages the content blocks of an item body
type BlockGateway interface {
	ListBlocks(ctx context.Context, parent domain.RemoteID) ([]domain.Block, error)
	AppendBlocks(ctx context.Context, parent domain.RemoteID, blocks []domain.Block) ([]domain.Block, error)
	DeleteBlock(ctx context.Context, id domain.RemoteID) error
}

// RemoteGateway is the typed surface of the hosted document service.
// Implementations map missing objects to domain.ErrRemoteNotFound and
// exhausted rate-limit retries to domain.ErrRemoteUnavailable.
type RemoteGateway interface {
	PageGateway
	CollectionGateway
	ItemGateway
	BlockGateway
}
