package linhash

import (
	"testing"

	"mahash/pkg/bits"
)

func TestHashBytesDeterministic(t *testing.T) {
	a := hashBytes([]byte("hello"))
	b := hashBytes([]byte("hello"))
	if a != b {
		t.Errorf("hashBytes not deterministic: %v != %v", a, b)
	}
}

func TestHashBytesDiffusion(t *testing.T) {
	// Not a statistical test, just a sanity check that changing one byte
	// changes the hash.
	a := hashBytes([]byte("hello"))
	b := hashBytes([]byte("hellp"))
	if a == b {
		t.Error("hashBytes('hello') == hashBytes('hellp'), expected different hashes")
	}
}

func TestCompositeHashUsesChVecBits(t *testing.T) {
	cv, err := ParseChVec(2, "0:0,1:0,0:1,1:1")
	if err != nil {
		t.Fatalf("ParseChVec: %v", err)
	}
	attrs := []string{"foo", "bar"}
	h := compositeHash(cv, attrs)

	fooHash := hashBytes([]byte("foo"))
	barHash := hashBytes([]byte("bar"))
	want := bits.Word(0)
	if bits.IsSet(fooHash, 0) {
		want = bits.Set(want, 0)
	}
	if bits.IsSet(barHash, 0) {
		want = bits.Set(want, 1)
	}
	if bits.IsSet(fooHash, 1) {
		want = bits.Set(want, 2)
	}
	if bits.IsSet(barHash, 1) {
		want = bits.Set(want, 3)
	}
	// Positions 4 and up get ParseChVec's round-robin default fill.
	attrHashes := []bits.Word{fooHash, barHash}
	for i := 4; i < MaxChVec; i++ {
		if bits.IsSet(attrHashes[i%2], i/2) {
			want = bits.Set(want, i)
		}
	}
	if h != want {
		t.Errorf("compositeHash = %v, want %v", h, want)
	}
}

func TestTupleHashRejectsWrongArity(t *testing.T) {
	cv, _ := ParseChVec(2, "")
	if _, err := tupleHash(cv, 2, "only-one-attr"); err == nil {
		t.Error("tupleHash accepted a tuple with the wrong number of attributes")
	}
}

func TestTupleMatch(t *testing.T) {
	cases := []struct {
		tuple []string
		query []string
		want  bool
	}{
		{[]string{"a", "b"}, []string{"a", "b"}, true},
		{[]string{"a", "b"}, []string{Wildcard, "b"}, true},
		{[]string{"a", "b"}, []string{Wildcard, Wildcard}, true},
		{[]string{"a", "b"}, []string{"x", Wildcard}, false},
	}
	for _, c := range cases {
		if got := tupleMatch(c.tuple, c.query); got != c.want {
			t.Errorf("tupleMatch(%v, %v) = %v, want %v", c.tuple, c.query, got, c.want)
		}
	}
}
