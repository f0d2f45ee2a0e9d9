package checker

// InitializeRunner builds a runner from the raw request, before any
// front-end has parsed it, using the first transport that applies. It
// returns nil when no transport claims the request.
//
// A runner created this way is marked as initialized early, so a front-end
// that later sets different parameters is rejected instead of silently
// running a different request.
func InitializeRunner(src RequestSource, transports []Transport, opts ...RunnerOption) *Runner {
	for _, t := range transports {
		if !t.IsApplicable(src) {
			continue
		}
		opts = append(append([]RunnerOption(nil), opts...), WithInitializedEarly())
		return NewRunner(t, src, opts...)
	}
	return nil
}

// RunnerFor returns early if it was created for the same transport, else a
// fresh runner for src.
func RunnerFor(early *Runner, t Transport, src RequestSource, opts ...RunnerOption) *Runner {
	if early != nil && early.transport.Name() == t.Name() {
		return early
	}
	return NewRunner(t, src, opts...)
}
