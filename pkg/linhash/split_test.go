package linhash_test

import (
	"fmt"
	"testing"

	"mahash/pkg/linhash"
)

// TestSplitPreservesAllTuples forces many splits (low threshold, single
// starting page) while inserting a few hundred tuples, then checks that
// every one of them is still found by a fully wildcarded query and that
// the bucket/tuple counters agree.
func TestSplitPreservesAllTuples(t *testing.T) {
	name := tempRelationName(t, "rel")
	if err := linhash.Create(name, 2, 1, 0, ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	r, err := linhash.Open(name, true, linhash.WithSplitThreshold(3))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	const n = 300
	want := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		tup := fmt.Sprintf("key%d,val%d", i, i*i)
		if _, err := r.Insert(tup); err != nil {
			t.Fatalf("Insert(%q): %v", tup, err)
		}
		want[tup] = true
	}

	if r.NumTuples() != int64(n) {
		t.Errorf("NumTuples() = %d, want %d", r.NumTuples(), n)
	}
	if r.NumPages() < 2 {
		t.Errorf("NumPages() = %d, expected splitting to have grown the directory", r.NumPages())
	}
	if r.Depth() == 0 {
		t.Error("Depth() is still 0 after hundreds of inserts with a threshold of 3")
	}

	q, err := linhash.StartQuery(r, "?,?")
	if err != nil {
		t.Fatalf("StartQuery: %v", err)
	}
	defer q.Close()

	got := make(map[string]bool, n)
	for {
		tup, ok, err := q.GetNextTuple()
		if err != nil {
			t.Fatalf("GetNextTuple: %v", err)
		}
		if !ok {
			break
		}
		if got[tup] {
			t.Errorf("tuple %q returned more than once", tup)
		}
		got[tup] = true
	}

	if len(got) != len(want) {
		t.Fatalf("query returned %d tuples, want %d", len(got), len(want))
	}
	for tup := range want {
		if !got[tup] {
			t.Errorf("missing tuple %q after splitting", tup)
		}
	}
}

// TestSplitKeepsBucketAddressingConsistent checks npages == 2^depth + sp,
// the linear-hashing directory-size invariant, after a run of splits.
func TestSplitKeepsBucketAddressingConsistent(t *testing.T) {
	name := tempRelationName(t, "rel")
	if err := linhash.Create(name, 1, 1, 0, ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	r, err := linhash.Open(name, true, linhash.WithSplitThreshold(2))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	for i := 0; i < 64; i++ {
		if _, err := r.Insert(fmt.Sprintf("item%d", i)); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	want := (int64(1) << uint(r.Depth())) + r.SplitPointer()
	if r.NumPages() != want {
		t.Errorf("NumPages() = %d, want 2^depth+sp = %d (depth=%d, sp=%d)",
			r.NumPages(), want, r.Depth(), r.SplitPointer())
	}
}
