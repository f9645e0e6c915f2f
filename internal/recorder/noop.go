package recorder

import "context"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordSnapshot(context.Context, *SnapshotRecord) error { return nil }
func (n *NoopRecorder) RecordWarmup(context.Context, *WarmupEvent) error       { return nil }
func (n *NoopRecorder) Close() error                                          { return nil }

func (n *NoopRecorder) History(context.Context, string, int) ([]SnapshotRow, error) {
	return nil, nil
}
