package datamodule

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func readyModule(t *testing.T) *DataModule {
	t.Helper()
	root := buildFixture(t, 4, 4, 2, 2)
	cfg := testConfig()
	dm, _, err := New(cfg, cfg.Target, root)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := dm.Setup("fit"); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	return dm
}

func TestTestLoader_GatedAccess(t *testing.T) {
	dm := readyModule(t)

	var nerr *NotSupportedError
	if _, err := dm.TestLoader(); !errors.As(err, &nerr) {
		t.Fatalf("TestLoader outside gate: expected NotSupportedError, got %v", err)
	}

	err := WithTestData(dm, func(dm *DataModule) error {
		dl, err := dm.TestLoader()
		if err != nil {
			return err
		}
		defer dl.Stop()
		b, err := dl.Next()
		if err != nil {
			return err
		}
		if b.Size != 1 {
			return fmt.Errorf("test batch size = %d, want 1", b.Size)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithTestData failed: %v", err)
	}

	// Leaving the scope disables the loader again.
	if _, err := dm.TestLoader(); !errors.As(err, &nerr) {
		t.Fatalf("TestLoader after gate exit: expected NotSupportedError, got %v", err)
	}
}

func TestTestLoader_FullEpoch(t *testing.T) {
	dm := readyModule(t)

	err := WithTestData(dm, func(dm *DataModule) error {
		dl, err := dm.TestLoader()
		if err != nil {
			return err
		}
		var samples int
		for {
			_, err := dl.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				return err
			}
			samples++
		}
		// 2 synthetic + 2 real test pixels, one per batch.
		if samples != 4 {
			return fmt.Errorf("test epoch yielded %d samples, want 4", samples)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithTestData failed: %v", err)
	}
}

func TestTestGate_NestedActivation(t *testing.T) {
	dm := readyModule(t)

	outer := NewTestGate(dm)
	if err := outer.Activate(); err != nil {
		t.Fatalf("outer Activate failed: %v", err)
	}
	defer outer.Deactivate()

	inner := NewTestGate(dm)
	err := inner.Activate()
	var perr *PreconditionError
	if !errors.As(err, &perr) {
		t.Fatalf("nested Activate: expected PreconditionError, got %v", err)
	}

	// The failed inner gate must not tear down the outer one.
	inner.Deactivate()
	if _, err := dm.TestLoader(); err != nil {
		t.Fatalf("TestLoader under outer gate failed: %v", err)
	}
}

func TestTestGate_RequiresSetup(t *testing.T) {
	root := buildFixture(t, 4, 4, 2, 2)
	cfg := testConfig()
	dm, _, err := New(cfg, cfg.Target, root)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	g := NewTestGate(dm)
	var perr *PreconditionError
	if err := g.Activate(); !errors.As(err, &perr) {
		t.Fatalf("Activate before Setup: expected PreconditionError, got %v", err)
	}
}

func TestWithTestData_ErrorPropagates(t *testing.T) {
	dm := readyModule(t)
	boom := errors.New("evaluation failed")

	err := WithTestData(dm, func(dm *DataModule) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("WithTestData returned %v, want the callback error", err)
	}

	// The gate deactivated despite the error.
	var nerr *NotSupportedError
	if _, err := dm.TestLoader(); !errors.As(err, &nerr) {
		t.Fatalf("TestLoader after failed callback: expected NotSupportedError, got %v", err)
	}
}

func TestTestGate_DeactivateIdempotent(t *testing.T) {
	dm := readyModule(t)
	g := NewTestGate(dm)
	if err := g.Activate(); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	g.Deactivate()
	g.Deactivate()

	// A fresh gate can activate again.
	g2 := NewTestGate(dm)
	if err := g2.Activate(); err != nil {
		t.Fatalf("re-Activate failed: %v", err)
	}
	g2.Deactivate()
}
