package marketplace

import (
	"context"

	"relist/internal/catalog"
)

// Publisher is the narrow interface the workflow engine calls when an item
// reaches the published stage. Implementations return the external listing
// identifier assigned by the marketplace.
//
// The engine invokes Publish only after the local transition has durably
// committed; a returned error is recorded for remediation, never used to
// roll the stage back.
type Publisher interface {
	Publish(ctx context.Context, item *catalog.Item) (string, error)
}

// AccountSource resolves marketplace credentials for an item. *catalog.Store
// satisfies it.
type AccountSource interface {
	GetMarketplaceAccount(ctx context.Context, id int64) (*catalog.MarketplaceAccount, error)
	TouchAccountSync(ctx context.Context, id int64) error
}
