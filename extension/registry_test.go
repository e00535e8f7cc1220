package extension

import (
	"errors"
	"fmt"
	"testing"
	"testing/fstest"
)

const testContract = ContractKey("runkit.test.Contract")

func declFS(content string) fstest.MapFS {
	return fstest.MapFS{
		"runkit.extensions": &fstest.MapFile{Data: []byte(content)},
	}
}

func TestResolveMergeAndDedupe(t *testing.T) {
	r := NewRegistry()
	r.AddLocation(declFS("runkit.test.Contract=a,b\n"), "runkit.extensions")
	r.AddLocation(declFS("runkit.test.Contract=b,c,a\n"), "runkit.extensions")

	ids, err := r.Resolve(testContract)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	want := []string{"a", "b", "c"}
	if len(ids) != len(want) {
		t.Fatalf("expected %v, got %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("position %d: expected %q, got %q (full %v)", i, want[i], ids[i], ids)
		}
	}
}

func TestResolveUndeclaredContract(t *testing.T) {
	r := NewRegistry()
	ids, err := r.Resolve(ContractKey("runkit.test.Missing"))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("expected empty resolution, got %v", ids)
	}
}

func TestResolveCommentsAndBlankLines(t *testing.T) {
	r := NewRegistry()
	r.AddLocation(declFS("# listeners\n\nrunkit.test.Contract=a, b ,\n"), "runkit.extensions")

	ids, err := r.Resolve(testContract)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("expected [a b], got %v", ids)
	}
}

func TestResolveMalformedDeclaration(t *testing.T) {
	r := NewRegistry()
	r.AddLocation(declFS("not a declaration\n"), "runkit.extensions")

	_, err := r.Resolve(testContract)
	var de *DiscoveryError
	if !errors.As(err, &de) {
		t.Fatalf("expected DiscoveryError, got %T: %v", err, err)
	}
}

func TestResolveCacheInvalidatedByNewLocation(t *testing.T) {
	r := NewRegistry()
	r.AddLocation(declFS("runkit.test.Contract=a\n"), "runkit.extensions")
	if _, err := r.Resolve(testContract); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	r.AddLocation(declFS("runkit.test.Contract=b\n"), "runkit.extensions")
	ids, err := r.Resolve(testContract)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(ids) != 2 || ids[1] != "b" {
		t.Errorf("expected merged [a b] after adding a location, got %v", ids)
	}
}

func TestInstantiateMissingFactory(t *testing.T) {
	r := NewRegistry()
	r.AddLocation(declFS("runkit.test.Contract=ghost\n"), "runkit.extensions")

	_, err := r.Instantiate(testContract, RunInput{})
	var de *DiscoveryError
	if !errors.As(err, &de) {
		t.Fatalf("expected DiscoveryError, got %T: %v", err, err)
	}
	if de.Implementation != "ghost" {
		t.Errorf("expected implementation 'ghost', got %q", de.Implementation)
	}
}

func TestInstantiateConstructorFailure(t *testing.T) {
	r := NewRegistry()
	r.AddLocation(declFS("runkit.test.Contract=bad\n"), "runkit.extensions")
	boom := fmt.Errorf("boom")
	r.RegisterFactory(testContract, "bad", func(run RunInput) (any, error) {
		return nil, boom
	})

	_, err := r.Instantiate(testContract, RunInput{})
	var de *DiscoveryError
	if !errors.As(err, &de) {
		t.Fatalf("expected DiscoveryError, got %T: %v", err, err)
	}
	if !errors.Is(err, boom) {
		t.Error("expected the constructor error to be wrapped")
	}
}

type greeter interface{ Greet() string }

type hello struct{ args []string }

func (h *hello) Greet() string { return "hello" }

func TestInstancesTyped(t *testing.T) {
	r := NewRegistry()
	r.AddLocation(declFS("runkit.test.Contract=hello\n"), "runkit.extensions")

	var constructed int
	r.RegisterFactory(testContract, "hello", func(run RunInput) (any, error) {
		constructed++
		return &hello{args: run.Args}, nil
	})

	run := RunInput{Args: []string{"--x=1"}, RunID: "r1"}
	got, err := Instances[greeter](r, testContract, run)
	if err != nil {
		t.Fatalf("Instances failed: %v", err)
	}
	if len(got) != 1 || got[0].Greet() != "hello" {
		t.Fatalf("unexpected instances: %v", got)
	}

	// Fresh instances per call: the factory runs again.
	if _, err := Instances[greeter](r, testContract, run); err != nil {
		t.Fatalf("Instances failed: %v", err)
	}
	if constructed != 2 {
		t.Errorf("expected 2 constructions, got %d", constructed)
	}
}

func TestInstancesWrongType(t *testing.T) {
	r := NewRegistry()
	r.AddLocation(declFS("runkit.test.Contract=num\n"), "runkit.extensions")
	r.RegisterFactory(testContract, "num", func(run RunInput) (any, error) {
		return 42, nil
	})

	_, err := Instances[greeter](r, testContract, RunInput{})
	var de *DiscoveryError
	if !errors.As(err, &de) {
		t.Fatalf("expected DiscoveryError, got %T: %v", err, err)
	}
	if de.Implementation != "num" {
		t.Errorf("expected implementation 'num', got %q", de.Implementation)
	}
}
