package orders

import (
	"context"
	"time"
)

// PageQuery describes one page request against the order source. Either
// Cursor or UpdatedAtMin drives the query: when Cursor is set the source
// continues an existing scan and ignores the window.
type PageQuery struct {
	Cursor       string
	UpdatedAtMin time.Time
	PageSize     int
}

// OrderPage is one page of remote order records. NextCursor is empty on
// the final page.
type OrderPage struct {
	Records    []RemoteOrder
	NextCursor string
}

// OrderSource fetches order pages from the remote system. Implementations
// handle transport-level retries; errors surfaced here are terminal for
// the current run.
type OrderSource interface {
	FetchPage(ctx context.Context, query PageQuery) (*OrderPage, error)
}
