package logward

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestCorrelationIDShape(t *testing.T) {
	t.Parallel()

	id := NewCorrelationID()
	assertEqual(t, ValidCorrelationID(id), true)

	assertEqual(t, ValidCorrelationID("0f8fad5b-d9cb-469f-a165-70867728950e"), true)
	assertEqual(t, ValidCorrelationID("0F8FAD5B-D9CB-469F-A165-70867728950E"), true) // case-insensitive
	assertEqual(t, ValidCorrelationID("not-a-uuid"), false)
	assertEqual(t, ValidCorrelationID(""), false)
	assertEqual(t, ValidCorrelationID("0f8fad5bd9cb469fa16570867728950e"), false) // missing dashes
}

func TestWithCorrelationSanitizes(t *testing.T) {
	t.Parallel()

	const valid = "0f8fad5b-d9cb-469f-a165-70867728950e"

	ctx := WithCorrelation(context.Background(), valid)
	id, ok := CorrelationFromContext(ctx)
	assertEqual(t, ok, true)
	assertEqual(t, id, valid)

	// An invalid inbound id is replaced, never propagated verbatim.
	ctx = WithCorrelation(context.Background(), "spoofed; drop table logs")
	id, ok = CorrelationFromContext(ctx)
	assertEqual(t, ok, true)
	assertEqual(t, ValidCorrelationID(id), true)
	if id == "spoofed; drop table logs" {
		t.Fatal("invalid id propagated verbatim")
	}
}

func TestCorrelationChildInheritanceAndIsolation(t *testing.T) {
	t.Parallel()

	parentID := NewCorrelationID()
	parent := WithCorrelation(context.Background(), parentID)

	var (
		wg       sync.WaitGroup
		childIDs [2]string
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			// Both children observe the parent's id.
			got := Correlation(parent)
			if got != parentID {
				childIDs[i] = "inherit failed: " + got
				return
			}

			// A mutation in the child derives a new context, never
			// touching the parent or the sibling.
			child := WithCorrelation(parent, NewCorrelationID())
			childIDs[i], _ = CorrelationFromContext(child)
		}(i)
	}
	wg.Wait()

	assertEqual(t, ValidCorrelationID(childIDs[0]), true)
	assertEqual(t, ValidCorrelationID(childIDs[1]), true)
	if childIDs[0] == childIDs[1] {
		t.Fatalf("sibling ids not isolated: %s", childIDs[0])
	}

	got, _ := CorrelationFromContext(parent)
	assertEqual(t, got, parentID) // parent unchanged after the children complete
}

// The ambient tests share the process-wide fallback slot, so they are
// deliberately not parallel.

func TestAmbientCorrelationFallback(t *testing.T) {
	defer ClearCorrelation()

	ambientID := NewCorrelationID()
	SetCorrelation(ambientID)
	assertEqual(t, AmbientCorrelation(), ambientID)

	// A bare context falls back to the ambient slot.
	assertEqual(t, Correlation(context.Background()), ambientID)

	// The context tier takes precedence over ambient.
	contextID := NewCorrelationID()
	ctx := WithCorrelation(context.Background(), contextID)
	assertEqual(t, Correlation(ctx), contextID)

	ClearCorrelation()
	assertEqual(t, Correlation(context.Background()), "")
	assertEqual(t, Correlation(ctx), contextID) // context tier unaffected
}

func TestSetCorrelationSanitizes(t *testing.T) {
	defer ClearCorrelation()

	SetCorrelation("bogus")
	assertEqual(t, ValidCorrelationID(AmbientCorrelation()), true)
}

func TestCorrelationScope(t *testing.T) {
	defer ClearCorrelation()

	outerID := NewCorrelationID()
	SetCorrelation(outerID)

	scopeID := NewCorrelationID()
	err := WithCorrelationScope(context.Background(), scopeID, func(ctx context.Context) error {
		// Both tiers carry the scope id inside the block.
		id, ok := CorrelationFromContext(ctx)
		assertEqual(t, ok, true)
		assertEqual(t, id, scopeID)
		assertEqual(t, AmbientCorrelation(), scopeID)
		return nil
	})
	assertNoError(t, err)

	// The previous ambient id is restored on exit.
	assertEqual(t, AmbientCorrelation(), outerID)
}

func TestCorrelationScopeRestoresOnError(t *testing.T) {
	defer ClearCorrelation()

	outerID := NewCorrelationID()
	SetCorrelation(outerID)

	sentinel := errors.New("scope failed")
	err := WithCorrelationScope(context.Background(), NewCorrelationID(), func(ctx context.Context) error {
		return sentinel
	})
	assertErrorIs(t, err, sentinel)
	assertEqual(t, AmbientCorrelation(), outerID)
}

func TestCorrelationScopeRestoresOnPanic(t *testing.T) {
	defer ClearCorrelation()

	outerID := NewCorrelationID()
	SetCorrelation(outerID)

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic to propagate")
			}
		}()
		WithCorrelationScope(context.Background(), NewCorrelationID(), func(ctx context.Context) error {
			panic("inside the scope")
		})
	}()

	assertEqual(t, AmbientCorrelation(), outerID)
}

func TestWithNewCorrelationScope(t *testing.T) {
	defer ClearCorrelation()

	var seen string
	err := WithNewCorrelationScope(context.Background(), func(ctx context.Context) error {
		seen, _ = CorrelationFromContext(ctx)
		return nil
	})
	assertNoError(t, err)
	assertEqual(t, ValidCorrelationID(seen), true)
}
