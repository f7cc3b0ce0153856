package sweep

import "context"

const TriggerSchedule = "schedule"

type triggerKey struct{}

// WithTrigger tags ctx with what started a sweep. RunSweep logs the tag so a
// manual run can be matched to the request that asked for it.
func WithTrigger(ctx context.Context, trigger string) context.Context {
	return context.WithValue(ctx, triggerKey{}, trigger)
}

func TriggerFrom(ctx context.Context) string {
	if trigger, ok := ctx.Value(triggerKey{}).(string); ok && trigger != "" {
		return trigger
	}

	return "direct"
}
