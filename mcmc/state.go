package mcmc

// RunState describes the sampler lifecycle.
type RunState int

const (
	// Initialized means the chain holds only the initial state.
	Initialized RunState = iota
	// Running means stepping is in progress.
	Running
	// Completed means the configured number of iterations was
	// performed.
	Completed
)

func (s RunState) String() string {
	switch s {
	case Initialized:
		return "initialized"
	case Running:
		return "running"
	case Completed:
		return "completed"
	}
	return "unknown"
}
