package store

import (
	"context"

	"github.com/easelhq/easel/backend/internal/board"
)

// Bridge is the narrow durable-storage interface the sync core consumes.
// LoadSnapshot is called once per room incarnation, on first creation;
// SaveSnapshot runs on the snapshot service's interval, so a room's
// in-memory state may be ahead of the durable copy by up to one interval.
// That staleness window is deliberate.
type Bridge interface {
	LoadSnapshot(ctx context.Context, boardID string) ([]board.Element, bool, error)
	SaveSnapshot(ctx context.Context, boardID, owner string, elements []board.Element) error
}
