package compute

import (
	"testing"
)

func TestRegistryGetUnknownBackend(t *testing.T) {
	if _, err := Get("not-a-real-backend"); err == nil {
		t.Fatalf("expected an error for an unregistered backend name")
	}
}

func TestRegistryCPUAlwaysAvailable(t *testing.T) {
	found := false
	for _, name := range Available() {
		if name == "cpu" {
			found = true
		}
	}
	if !found {
		t.Fatalf("cpu backend not found in Available(): %v", Available())
	}
}

func TestRegistryGetCPU(t *testing.T) {
	b, err := Get("cpu")
	if err != nil {
		t.Fatalf("Get(cpu): %v", err)
	}
	defer b.Close()
	if b.Name() != "cpu" {
		t.Fatalf("Name() = %q, want cpu", b.Name())
	}
}

func TestRegistryRegisterAndUnregister(t *testing.T) {
	Register("test-fake", func() (Backend, error) { return NewCPUBackend(1), nil })
	defer Unregister("test-fake")

	b, err := Get("test-fake")
	if err != nil {
		t.Fatalf("Get(test-fake): %v", err)
	}
	b.Close()

	found := false
	for _, name := range Available() {
		if name == "test-fake" {
			found = true
		}
	}
	if !found {
		t.Fatalf("test-fake not listed in Available() after Register")
	}

	Unregister("test-fake")
	if _, err := Get("test-fake"); err == nil {
		t.Fatalf("expected an error after Unregister")
	}
}

func TestAutoNeverFindsCUDA(t *testing.T) {
	// No CUDA binding is registered anywhere in this module; Auto must
	// fall through the priority list to wgpu or cpu rather than erroring.
	for _, name := range Available() {
		if name == "cuda" {
			t.Fatalf("a \"cuda\" backend is registered; this test's premise (no CUDA binding exists) no longer holds")
		}
	}
	b, err := Auto()
	if err != nil {
		t.Fatalf("Auto(): %v", err)
	}
	defer b.Close()
	if b.Name() == "cuda" {
		t.Fatalf("Auto() returned a cuda backend, which should never be registered")
	}
}

func TestAutoFallsBackToCPUWhenHigherPriorityFails(t *testing.T) {
	Register("cuda", func() (Backend, error) {
		return nil, &BackendError{Kind: Unsupported, Backend: "cuda", Message: "no device"}
	})
	defer Unregister("cuda")

	b, err := Auto()
	if err != nil {
		t.Fatalf("Auto(): %v", err)
	}
	defer b.Close()
	if b.Name() == "cuda" {
		t.Fatalf("Auto() should skip a cuda factory that fails to construct")
	}
}

func TestBackendErrorUnwrap(t *testing.T) {
	cause := &BackendError{Kind: Unsupported, Message: "inner"}
	outer := &BackendError{Kind: DeviceLost, Backend: "cpu", Message: "outer", Cause: cause}
	if outer.Unwrap() != cause {
		t.Fatalf("Unwrap() did not return the wrapped cause")
	}
	if outer.Error() == "" {
		t.Fatalf("Error() returned an empty string")
	}
}
