package domain

// State is the lifecycle of a translatable entity.
type State string

const (
	// StateActive entities have at least one translation.
	StateActive State = "active"
	// StateSoftDeleted entities lost their last translation. The state is terminal.
	StateSoftDeleted State = "soft_deleted"
)

// NextState returns the state after a translation removal left remaining rows.
func NextState(current State, remaining int) State {
	if current == StateSoftDeleted {
		return StateSoftDeleted
	}
	if remaining <= 0 {
		return StateSoftDeleted
	}
	return StateActive
}
