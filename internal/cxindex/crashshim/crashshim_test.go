package crashshim

import (
	"errors"
	"os"
	"testing"
)

func TestRunSafelyRecoversPanicWhenArmed(t *testing.T) {
	os.Unsetenv(EnvVar)
	Reload()

	completed, err := RunSafely(func() error {
		panic("boom")
	})
	if completed {
		t.Error("completed should be false after a recovered panic")
	}
	var ce *CrashError
	if !errors.As(err, &ce) {
		t.Fatalf("expected a *CrashError, got %v (%T)", err, err)
	}
	if ce.Value != "boom" {
		t.Errorf("CrashError.Value = %v, want boom", ce.Value)
	}
}

func TestRunSafelyPassesThroughStructuredError(t *testing.T) {
	os.Unsetenv(EnvVar)
	Reload()

	want := errors.New("parse failed")
	completed, err := RunSafely(func() error {
		return want
	})
	if !completed {
		t.Error("completed should be true when fn returns normally")
	}
	if !errors.Is(err, want) {
		t.Errorf("err = %v, want %v", err, want)
	}
}

func TestRunSafelyDisarmedPropagatesPanic(t *testing.T) {
	os.Setenv(EnvVar, "0")
	Reload()
	defer func() {
		os.Unsetenv(EnvVar)
		Reload()
	}()

	defer func() {
		if recover() == nil {
			t.Error("expected the panic to propagate when disarmed")
		}
	}()
	RunSafely(func() error {
		panic("should not be caught")
	})
}
