package telemetry

import (
	"context"

	"github.com/Shoislam0311/Jervis/internal/metrics"
)

// EmitTurnCompleted closes out a turn with cheap text features: sizes
// of the user input and the reply, plus whether search augmentation
// fired.
func EmitTurnCompleted(ctx context.Context, user, reply string, augmented bool) {
	if !ObserveEnabled() {
		return
	}
	turnID, _ := TurnIDFromContext(ctx)
	Emit("turn_completed", map[string]any{
		"turn_id":          turnID,
		"features_version": "1",
		"augmented":        augmented,
		"user":             metrics.CountText(user).Fields(),
		"reply":            metrics.CountText(reply).Fields(),
	})
}
