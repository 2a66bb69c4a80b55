package telemetry

import (
	"context"

	"github.com/petasbytes/travel-agent/internal/metrics"
)

// EmitLocalFeatures records size features of the caller's request.
func (s *Sink) EmitLocalFeatures(ctx context.Context, request string) {
	if !s.Enabled() {
		return
	}
	sessionID, _ := SessionIDFromContext(ctx)
	f := metrics.CountFeatures(request)
	s.Emit(EventLocalFeatures, map[string]any{
		"session_id":       sessionID,
		"features_version": "1",
		"request": map[string]any{
			"bytes": f.Bytes,
			"runes": f.Runes,
			"words": f.Words,
			"lines": f.Lines,
		},
	})
}
