package linhash_test

import (
	"testing"

	"mahash/pkg/linhash"
)

func TestCreateOpenClose(t *testing.T) {
	name := tempRelationName(t, "rel")
	if linhash.Exists(name) {
		t.Fatal("relation exists before Create")
	}
	if err := linhash.Create(name, 2, 1, 0, ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !linhash.Exists(name) {
		t.Fatal("relation does not exist after Create")
	}

	r, err := linhash.Open(name, true)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if r.NAttrs() != 2 {
		t.Errorf("NAttrs() = %d, want 2", r.NAttrs())
	}
	if r.NumPages() != 1 {
		t.Errorf("NumPages() = %d, want 1", r.NumPages())
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Reopen and check the persisted state round-trips.
	r2, err := linhash.Open(name, false)
	if err != nil {
		t.Fatalf("re-Open: %v", err)
	}
	defer r2.Close()
	if r2.NAttrs() != 2 || r2.NumPages() != 1 {
		t.Errorf("state did not round-trip: nattrs=%d npages=%d", r2.NAttrs(), r2.NumPages())
	}
}

func TestCreateAlreadyExists(t *testing.T) {
	name := tempRelationName(t, "rel")
	if err := linhash.Create(name, 2, 1, 0, ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := linhash.Create(name, 2, 1, 0, ""); err == nil {
		t.Error("second Create on the same name succeeded, want error")
	}
}

func TestInsertRejectsWrongArity(t *testing.T) {
	name := tempRelationName(t, "rel")
	if err := linhash.Create(name, 2, 1, 0, ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	r, err := linhash.Open(name, true)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	if _, err := r.Insert("only-one-field"); err == nil {
		t.Error("Insert with wrong arity succeeded, want error")
	}
	if r.NumTuples() != 0 {
		t.Errorf("NumTuples() = %d after a rejected insert, want 0", r.NumTuples())
	}
}

func TestInsertReadOnlyRelation(t *testing.T) {
	name := tempRelationName(t, "rel")
	if err := linhash.Create(name, 2, 1, 0, ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	r, err := linhash.Open(name, false)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	if _, err := r.Insert("a,b"); err == nil {
		t.Error("Insert on a read-only relation succeeded, want error")
	}
}

func TestInsertAndFullyWildcardQuery(t *testing.T) {
	name := tempRelationName(t, "rel")
	if err := linhash.Create(name, 2, 1, 0, ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	r, err := linhash.Open(name, true)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	want := map[string]bool{
		"alice,30": true,
		"bob,25":   true,
		"carol,40": true,
	}
	for tup := range want {
		if _, err := r.Insert(tup); err != nil {
			t.Fatalf("Insert(%q): %v", tup, err)
		}
	}
	if r.NumTuples() != int64(len(want)) {
		t.Errorf("NumTuples() = %d, want %d", r.NumTuples(), len(want))
	}

	q, err := linhash.StartQuery(r, "?,?")
	if err != nil {
		t.Fatalf("StartQuery: %v", err)
	}
	defer q.Close()

	got := make(map[string]bool)
	for {
		tup, ok, err := q.GetNextTuple()
		if err != nil {
			t.Fatalf("GetNextTuple: %v", err)
		}
		if !ok {
			break
		}
		got[tup] = true
	}
	if len(got) != len(want) {
		t.Fatalf("got %d tuples, want %d: %v", len(got), len(want), got)
	}
	for tup := range want {
		if !got[tup] {
			t.Errorf("missing tuple %q from fully-wildcard query", tup)
		}
	}
}

func TestExactMatchQuery(t *testing.T) {
	name := tempRelationName(t, "rel")
	if err := linhash.Create(name, 2, 1, 0, ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	r, err := linhash.Open(name, true)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	for _, tup := range []string{"alice,30", "bob,25", "carol,40"} {
		if _, err := r.Insert(tup); err != nil {
			t.Fatalf("Insert(%q): %v", tup, err)
		}
	}

	q, err := linhash.StartQuery(r, "bob,25")
	if err != nil {
		t.Fatalf("StartQuery: %v", err)
	}
	defer q.Close()

	tup, ok, err := q.GetNextTuple()
	if err != nil || !ok {
		t.Fatalf("GetNextTuple() = %q, %v, %v, want bob,25", tup, ok, err)
	}
	if tup != "bob,25" {
		t.Errorf("GetNextTuple() = %q, want bob,25", tup)
	}
	if _, ok, err := q.GetNextTuple(); err != nil || ok {
		t.Errorf("expected exactly one match, got another: ok=%v err=%v", ok, err)
	}
}
