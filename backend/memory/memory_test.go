package memory

import (
	"bytes"
	"testing"

	"github.com/chainstate/views/backend"
)

func TestImplements(t *testing.T) {
	var store Store
	var _ backend.KVStore = &store
}

func TestBasicPutGetDelete(t *testing.T) {
	store := NewStore()
	defer store.Close()

	b := &backend.Batch{}
	b.Put([]byte("a"), []byte("1"))
	b.Put([]byte("b"), []byte("2"))
	if err := store.Apply(b); err != nil {
		t.Fatalf("failed to apply batch; %v", err)
	}

	value, err := store.Get([]byte("a"))
	if err != nil {
		t.Fatalf("failed to get key; %v", err)
	}
	if !bytes.Equal(value, []byte("1")) {
		t.Errorf("unexpected value %s", value)
	}

	if _, err := store.Get([]byte("missing")); err != backend.ErrNotFound {
		t.Errorf("missing key should yield ErrNotFound, got %v", err)
	}

	b.Reset()
	b.Delete([]byte("a"))
	if err := store.Apply(b); err != nil {
		t.Fatalf("failed to apply delete; %v", err)
	}
	if _, err := store.Get([]byte("a")); err != backend.ErrNotFound {
		t.Errorf("deleted key should yield ErrNotFound, got %v", err)
	}
}

func TestGetMultiAlignsWithInput(t *testing.T) {
	store := NewStore()
	defer store.Close()

	b := &backend.Batch{}
	b.Put([]byte("a"), []byte("1"))
	b.Put([]byte("c"), []byte("3"))
	if err := store.Apply(b); err != nil {
		t.Fatalf("failed to apply batch; %v", err)
	}

	values, err := store.GetMulti([][]byte{[]byte("a"), []byte("b"), []byte("c")})
	if err != nil {
		t.Fatalf("failed to get keys; %v", err)
	}
	if len(values) != 3 {
		t.Fatalf("expected 3 results, got %d", len(values))
	}
	if !bytes.Equal(values[0], []byte("1")) || values[1] != nil || !bytes.Equal(values[2], []byte("3")) {
		t.Errorf("unexpected results %v", values)
	}
}

func TestIteratorRespectsRangeAndOrder(t *testing.T) {
	store := NewStore()
	defer store.Close()

	b := &backend.Batch{}
	for _, key := range []string{"d", "b", "a", "c", "e"} {
		b.Put([]byte(key), []byte(key))
	}
	if err := store.Apply(b); err != nil {
		t.Fatalf("failed to apply batch; %v", err)
	}

	it := store.NewIterator([]byte("b"), []byte("e"))
	defer it.Release()
	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	if err := it.Error(); err != nil {
		t.Fatalf("iteration failed; %v", err)
	}
	want := []string{"b", "c", "d"}
	if len(keys) != len(want) {
		t.Fatalf("expected keys %v, got %v", want, keys)
	}
	for i, key := range want {
		if keys[i] != key {
			t.Errorf("expected keys %v, got %v", want, keys)
			break
		}
	}
}

func TestApplyLastWriteWins(t *testing.T) {
	store := NewStore()
	defer store.Close()

	b := &backend.Batch{}
	b.Put([]byte("a"), []byte("1"))
	b.Put([]byte("a"), []byte("2"))
	b.Delete([]byte("b"))
	b.Put([]byte("b"), []byte("3"))
	if err := store.Apply(b); err != nil {
		t.Fatalf("failed to apply batch; %v", err)
	}

	if value, _ := store.Get([]byte("a")); !bytes.Equal(value, []byte("2")) {
		t.Errorf("later put should win, got %s", value)
	}
	if value, _ := store.Get([]byte("b")); !bytes.Equal(value, []byte("3")) {
		t.Errorf("put after delete should win, got %s", value)
	}
}

func TestDeleteRangeRemovesCoveredKeys(t *testing.T) {
	store := NewStore()
	defer store.Close()

	b := &backend.Batch{}
	for _, key := range []string{"a", "b", "bb", "c"} {
		b.Put([]byte(key), []byte(key))
	}
	if err := store.Apply(b); err != nil {
		t.Fatalf("failed to apply batch; %v", err)
	}

	b.Reset()
	b.DeleteRange([]byte("b"), []byte("c"))
	if err := store.Apply(b); err != nil {
		t.Fatalf("failed to apply range delete; %v", err)
	}

	for _, key := range []string{"b", "bb"} {
		if _, err := store.Get([]byte(key)); err != backend.ErrNotFound {
			t.Errorf("key %s should have been deleted", key)
		}
	}
	for _, key := range []string{"a", "c"} {
		if _, err := store.Get([]byte(key)); err != nil {
			t.Errorf("key %s should have survived; %v", key, err)
		}
	}
}

func TestIteratorSnapshotSurvivesMutation(t *testing.T) {
	store := NewStore()
	defer store.Close()

	b := &backend.Batch{}
	b.Put([]byte("a"), []byte("1"))
	b.Put([]byte("b"), []byte("2"))
	if err := store.Apply(b); err != nil {
		t.Fatalf("failed to apply batch; %v", err)
	}

	it := store.NewIterator(nil, nil)
	defer it.Release()

	b.Reset()
	b.Delete([]byte("b"))
	if err := store.Apply(b); err != nil {
		t.Fatalf("failed to apply delete; %v", err)
	}

	count := 0
	for it.Next() {
		count++
	}
	if count != 2 {
		t.Errorf("iterator snapshot should contain 2 entries, got %d", count)
	}
}
