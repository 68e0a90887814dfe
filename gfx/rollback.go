package gfx

// rollback collects undo steps while a multi-step construction runs. Unless
// disarmed, run executes them in reverse order, so a failure after step N
// releases exactly steps 1..N.
type rollback struct {
	undo     []func()
	disarmed bool
}

func (r *rollback) push(undo func()) {
	r.undo = append(r.undo, undo)
}

func (r *rollback) disarm() {
	r.disarmed = true
}

func (r *rollback) run() {
	if r.disarmed {
		return
	}
	for i := len(r.undo) - 1; i >= 0; i-- {
		r.undo[i]()
	}
	r.undo = nil
}
