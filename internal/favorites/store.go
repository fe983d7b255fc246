// Package favorites persists the user's favorited record ids across
// sessions. The set is read once at startup and owned in memory afterwards;
// every toggle writes the full set back. Favorites are a small user-owned
// list, so wholesale replacement wins over incremental diffing: the write
// is one transaction and the stored state can never drift from memory.
package favorites

import "context"

// Store is the persistence seam. Implementations must treat Replace as
// authoritative: after it returns, exactly the given ids are stored.
type Store interface {
	Load(ctx context.Context) ([]string, error)
	Replace(ctx context.Context, ids []string) error
	Close() error
}
