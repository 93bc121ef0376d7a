package components

type PanicHandlerFunc func()

type Action uint32

const (
	Shutdown Action = iota + 1
)

// ControlAction is used to communicate with components.
type ControlAction struct {
	Action       Action
	ResponseChan chan error // channel to send a response channel on.
}
