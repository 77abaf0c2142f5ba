package enums

// ActionState is the lifecycle of a single user-triggered async action.
type ActionState string

const (
	ActionStateIdle    ActionState = "idle"
	ActionStatePending ActionState = "pending"
	ActionStateSuccess ActionState = "success"
	ActionStateFailed  ActionState = "failed"
)

// String implements fmt.Stringer.
func (s ActionState) String() string {
	return string(s)
}

// Busy reports whether the triggering control must stay disabled.
func (s ActionState) Busy() bool {
	return s == ActionStatePending
}
