package model

import "context"

// SnapshotStore is the read side used by the chat path.
type SnapshotStore interface {
	LatestSnapshot(ctx context.Context, indexID string) (Snapshot, error)
}

// SnapshotImporter loads snapshot documents into a store.
type SnapshotImporter interface {
	InsertSnapshots(ctx context.Context, docs []Snapshot) (int, error)
}

type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (ModelResponse, error)
}
