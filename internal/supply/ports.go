package supply

import (
	"context"

	"finboard/internal/core"
)

// Ports for inbound entity suppliers.
type (
	// Reader fetches the full entity bundle for one workspace. Implementations
	// return normalized snapshots; callers never re-check amounts or statuses.
	Reader interface {
		Snapshot(ctx context.Context, workspaceID string) (*core.Snapshot, error)
	}

	// WorkspaceLister enumerates the workspaces a supplier knows about.
	// Optional; suppliers backed by a fixed spreadsheet may not implement it.
	WorkspaceLister interface {
		Workspaces(ctx context.Context) ([]string, error)
	}
)
