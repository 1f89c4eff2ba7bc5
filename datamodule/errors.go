package datamodule

import "fmt"

// PreconditionError reports an operation invoked before the lifecycle stage
// it requires, or against a module whose state forbids it.
type PreconditionError struct {
	Op     string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("precondition failed: %s: %s", e.Op, e.Reason)
}

// NotSupportedError reports access to the test split outside an active test
// data gate.
type NotSupportedError struct {
	Op string
}

func (e *NotSupportedError) Error() string {
	return fmt.Sprintf("%s: test data is not enabled; wrap the call in WithTestData or an active TestGate", e.Op)
}
