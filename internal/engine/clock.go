package engine

import "github.com/Dicklesworthstone/gunicorn_console/internal/model"

// animate moves every pending group one frame along the animation cycle,
// wrapping back to the first frame. Groups stay pending until a poll
// supplies a real count.
func (e *Engine) animate() {
	for _, g := range e.groups {
		if !g.Workers.IsPending() {
			continue
		}
		g.Workers = model.Pending((g.Workers.Frame() + 1) % e.frames)
	}
}
