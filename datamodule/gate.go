package datamodule

// TestGate scopes access to the test split. While a gate is active the
// module's TestLoader works; on deactivation the test dataset references are
// cleared and TestLoader fails again. Evaluation code therefore cannot reach
// the test split without an explicit, lexically visible opt-in.
type TestGate struct {
	dm     *DataModule
	active bool
}

// NewTestGate creates an inactive gate bound to dm.
func NewTestGate(dm *DataModule) *TestGate { return &TestGate{dm: dm} }

// Activate builds the test dataset pair and enables TestLoader. At most one
// gate may be active per module; activating a second one fails fast instead
// of silently corrupting the first gate's state.
func (g *TestGate) Activate() error {
	if g.dm.stage < stageReady {
		return &PreconditionError{Op: "TestGate.Activate", Reason: "Setup has not run"}
	}
	if g.dm.testEnabled {
		return &PreconditionError{Op: "TestGate.Activate", Reason: "a test data gate is already active"}
	}
	p, err := g.dm.buildPair("test")
	if err != nil {
		return err
	}
	g.dm.test = p
	g.dm.testEnabled = true
	g.active = true
	return nil
}

// Deactivate clears the test dataset references and disables TestLoader.
// Deactivating an inactive gate is a no-op, so it is safe to defer.
func (g *TestGate) Deactivate() {
	if !g.active {
		return
	}
	g.dm.test = pair{}
	g.dm.testEnabled = false
	g.active = false
}

// WithTestData runs fn with the module's test split enabled and guarantees
// deactivation on every exit path, including a panic inside fn.
func WithTestData(dm *DataModule, fn func(*DataModule) error) error {
	g := NewTestGate(dm)
	if err := g.Activate(); err != nil {
		return err
	}
	defer g.Deactivate()
	return fn(dm)
}
