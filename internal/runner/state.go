package runner

// State is the lifecycle state of a StubRunner.
type State string

const (
	StateCreated State = "created"
	StateRunning State = "running"
	StateStopped State = "stopped"
	// StateFailed is terminal: the runner never held a bound server.
	StateFailed State = "failed"
)

func (s State) String() string {
	return string(s)
}
