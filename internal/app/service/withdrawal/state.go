package withdrawal

// State of a withdrawal request. Only StateCompleted is ever persisted.
type State string

const (
	StateValidating     State = "validating"
	StateDuplicateCheck State = "duplicate_check"
	StateBalanceCheck   State = "balance_check"
	StateCommitting     State = "committing"
	StateCompleted      State = "completed"
	StateAborted        State = "aborted"
)
