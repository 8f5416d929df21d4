package scheduler

import (
	"context"

	"kaisan-bot/model"
)

// Dispatcher is the boundary the engine fires through. Disband may be
// re-delivered after a crash (removal of the task is the commit point),
// so implementations must treat already-absent targets as success.
type Dispatcher interface {
	Disband(ctx context.Context, task model.ScheduledTask) error
	Remind(ctx context.Context, task model.ScheduledTask, offsetMinutes int) error
}
