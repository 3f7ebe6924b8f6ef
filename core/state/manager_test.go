package state

import (
	"errors"
	"math/big"
	"testing"

	"vaultchain/storage"
)

type record struct {
	Name   string
	Amount *big.Int
}

func TestKVRoundTripAndCommit(t *testing.T) {
	db := storage.NewMemDB()
	mgr := NewManager(db)

	if err := mgr.KVPut([]byte("rec/1"), record{Name: "alpha", Amount: big.NewInt(42)}); err != nil {
		t.Fatalf("put: %v", err)
	}
	var out record
	ok, err := mgr.KVGet([]byte("rec/1"), &out)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if out.Name != "alpha" || out.Amount.Cmp(big.NewInt(42)) != 0 {
		t.Fatalf("unexpected record %+v", out)
	}
	if db.Len() != 0 {
		t.Fatalf("writes reached the database before commit")
	}
	if err := mgr.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if db.Len() != 1 {
		t.Fatalf("expected one committed key, got %d", db.Len())
	}

	fresh := NewManager(db)
	var reloaded record
	ok, err = fresh.KVGet([]byte("rec/1"), &reloaded)
	if err != nil || !ok {
		t.Fatalf("reload: ok=%v err=%v", ok, err)
	}
	if reloaded.Amount.Cmp(big.NewInt(42)) != 0 {
		t.Fatalf("unexpected reloaded amount %s", reloaded.Amount)
	}
}

func TestKVDelete(t *testing.T) {
	db := storage.NewMemDB()
	mgr := NewManager(db)
	if err := mgr.KVPut([]byte("k"), uint64(7)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := mgr.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := mgr.KVDelete([]byte("k")); err != nil {
		t.Fatalf("delete: %v", err)
	}
	ok, err := mgr.KVGet([]byte("k"), nil)
	if err != nil || ok {
		t.Fatalf("expected key to be gone, ok=%v err=%v", ok, err)
	}
	if err := mgr.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if db.Len() != 0 {
		t.Fatalf("expected delete to reach the database")
	}
}

func TestRevertToSnapshot(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())
	if err := mgr.KVPut([]byte("a"), uint64(1)); err != nil {
		t.Fatalf("put: %v", err)
	}
	rev := mgr.Snapshot()
	if err := mgr.KVPut([]byte("a"), uint64(2)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := mgr.KVPut([]byte("b"), uint64(3)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := mgr.RevertToSnapshot(rev); err != nil {
		t.Fatalf("revert: %v", err)
	}
	var a uint64
	if _, err := mgr.KVGet([]byte("a"), &a); err != nil || a != 1 {
		t.Fatalf("expected a=1 after revert, got %d (%v)", a, err)
	}
	if ok, _ := mgr.KVGet([]byte("b"), nil); ok {
		t.Fatalf("expected b to be reverted")
	}
	if err := mgr.RevertToSnapshot(rev + 5); !errors.Is(err, ErrInvalidSnapshot) {
		t.Fatalf("expected invalid snapshot, got %v", err)
	}
}

func TestAtomicNested(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())
	boom := errors.New("boom")

	err := mgr.Atomic(func() error {
		if err := mgr.KVPut([]byte("outer"), uint64(1)); err != nil {
			return err
		}
		innerErr := mgr.Atomic(func() error {
			if err := mgr.KVPut([]byte("inner"), uint64(2)); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(innerErr, boom) {
			t.Fatalf("expected inner failure, got %v", innerErr)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("outer: %v", err)
	}
	if ok, _ := mgr.KVGet([]byte("outer"), nil); !ok {
		t.Fatalf("outer write lost")
	}
	if ok, _ := mgr.KVGet([]byte("inner"), nil); ok {
		t.Fatalf("inner write survived its failure")
	}

	err = mgr.Atomic(func() error {
		if err := mgr.KVDelete([]byte("outer")); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if ok, _ := mgr.KVGet([]byte("outer"), nil); !ok {
		t.Fatalf("failed delete was not reverted")
	}
}

func TestKVAppendAndList(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())
	var empty [][]byte
	if err := mgr.KVGetList([]byte("idx"), &empty); err != nil {
		t.Fatalf("get empty: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil list")
	}
	for _, v := range []string{"x", "y", "x"} {
		if err := mgr.KVAppend([]byte("idx"), []byte(v)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	var list [][]byte
	if err := mgr.KVGetList([]byte("idx"), &list); err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || string(list[0]) != "x" || string(list[1]) != "y" {
		t.Fatalf("unexpected list %q", list)
	}
}

func TestEmptyKeyRejected(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())
	if err := mgr.KVPut(nil, uint64(1)); err == nil {
		t.Fatalf("expected error for empty key")
	}
	if _, err := mgr.KVGet(nil, nil); err == nil {
		t.Fatalf("expected error for empty key")
	}
	if err := mgr.KVDelete(nil); err == nil {
		t.Fatalf("expected error for empty key")
	}
}
