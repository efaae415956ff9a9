package views

import (
	"errors"
	"testing"

	"github.com/chainstate/views/backend/memory"
	"github.com/chainstate/views/codec/msgpackcodec"
)

func testContext(t *testing.T, root string) Context {
	t.Helper()
	store := memory.NewStore()
	t.Cleanup(func() {
		_ = store.Close()
	})
	return NewContext(store, []byte(root))
}

func saveViews(t *testing.T, ctx Context, views ...View) {
	t.Helper()
	batch := &Batch{}
	for _, view := range views {
		if err := view.Flush(batch); err != nil {
			t.Fatalf("failed to flush view; %v", err)
		}
	}
	if err := ctx.WriteBatch(batch); err != nil {
		t.Fatalf("failed to write batch; %v", err)
	}
	for _, view := range views {
		view.MarkSaved()
	}
}

func TestRegisterImplementsView(t *testing.T) {
	var register RegisterView[uint64]
	var _ View = &register
}

func TestRegisterDefaultsToZeroValue(t *testing.T) {
	ctx := testContext(t, "chain-1")
	register := NewRegisterView[uint64](ctx, msgpackcodec.New())
	value, err := register.Get()
	if err != nil {
		t.Fatalf("failed to read fresh register; %v", err)
	}
	if value != 0 {
		t.Errorf("fresh register should be zero, got %d", value)
	}
	if register.IsDirty() {
		t.Errorf("fresh register should be clean")
	}
}

func TestRegisterRoundTrip(t *testing.T) {
	ctx := testContext(t, "chain-1")
	c := msgpackcodec.New()

	register := NewRegisterView[string](ctx, c)
	register.Set("owner-a")
	if !register.IsDirty() {
		t.Errorf("set should mark the register dirty")
	}
	saveViews(t, ctx, register)
	if register.IsDirty() {
		t.Errorf("saved register should be clean")
	}

	reloaded := NewRegisterView[string](ctx, c)
	value, err := reloaded.Get()
	if err != nil {
		t.Fatalf("failed to reload register; %v", err)
	}
	if value != "owner-a" {
		t.Errorf("reloaded register holds %q", value)
	}
}

func TestRegisterCleanFlushIsEmpty(t *testing.T) {
	ctx := testContext(t, "chain-1")
	register := NewRegisterView[uint64](ctx, msgpackcodec.New())
	register.Set(7)
	saveViews(t, ctx, register)

	batch := &Batch{}
	if err := register.Flush(batch); err != nil {
		t.Fatalf("failed to flush clean register; %v", err)
	}
	if batch.Len() != 0 {
		t.Errorf("clean register flushed %d operations", batch.Len())
	}
}

func TestRegisterFlushDoesNotClearDirtyBeforeCommit(t *testing.T) {
	ctx := testContext(t, "chain-1")
	register := NewRegisterView[uint64](ctx, msgpackcodec.New())
	register.Set(7)

	batch := &Batch{}
	if err := register.Flush(batch); err != nil {
		t.Fatalf("failed to flush register; %v", err)
	}
	if !register.IsDirty() {
		t.Errorf("register should stay dirty until the batch is committed")
	}

	again := &Batch{}
	if err := register.Flush(again); err != nil {
		t.Fatalf("failed to flush register again; %v", err)
	}
	if again.Len() != batch.Len() {
		t.Errorf("retried flush produced a different diff: %d vs %d operations", again.Len(), batch.Len())
	}
}

func TestRegisterClearDeletesStoredValue(t *testing.T) {
	ctx := testContext(t, "chain-1")
	c := msgpackcodec.New()

	register := NewRegisterView[uint64](ctx, c)
	register.Set(42)
	saveViews(t, ctx, register)

	register.Clear()
	saveViews(t, ctx, register)

	if _, found, err := ctx.ReadValue(nil); err != nil || found {
		t.Errorf("cleared register should have no stored value; found=%t err=%v", found, err)
	}
	value, err := NewRegisterView[uint64](ctx, c).Get()
	if err != nil {
		t.Fatalf("failed to reload cleared register; %v", err)
	}
	if value != 0 {
		t.Errorf("cleared register should read zero, got %d", value)
	}
}

func TestRegisterClearWithoutStoredValueFlushesNothing(t *testing.T) {
	ctx := testContext(t, "chain-1")
	register := NewRegisterView[uint64](ctx, msgpackcodec.New())
	if _, err := register.Get(); err != nil {
		t.Fatalf("failed to read fresh register; %v", err)
	}
	register.Clear()

	batch := &Batch{}
	if err := register.Flush(batch); err != nil {
		t.Fatalf("failed to flush; %v", err)
	}
	if batch.Len() != 0 {
		t.Errorf("clearing a register with no stored value flushed %d operations", batch.Len())
	}
}

func TestRegisterCorruptBytesSurfaceDeserializationError(t *testing.T) {
	ctx := testContext(t, "chain-1")
	batch := &Batch{}
	batch.Put(ctx.Key(nil), []byte{0xC1})
	if err := ctx.WriteBatch(batch); err != nil {
		t.Fatalf("failed to seed corrupt value; %v", err)
	}

	register := NewRegisterView[uint64](ctx, msgpackcodec.New())
	if _, err := register.Get(); !errors.Is(err, ErrDeserialization) {
		t.Errorf("corrupt register should yield a deserialization error, got %v", err)
	}
}
