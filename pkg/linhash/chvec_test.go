package linhash_test

import (
	"testing"

	"mahash/pkg/linhash"
)

func TestParseChVecExplicit(t *testing.T) {
	cv, err := linhash.ParseChVec(2, "0:0,1:0")
	if err != nil {
		t.Fatalf("ParseChVec returned error: %v", err)
	}
	if cv[0] != (linhash.ChVecItem{Att: 0, Bit: 0}) {
		t.Errorf("cv[0] = %+v, want {0 0}", cv[0])
	}
	if cv[1] != (linhash.ChVecItem{Att: 1, Bit: 0}) {
		t.Errorf("cv[1] = %+v, want {1 0}", cv[1])
	}
	// Positions past the given tokens get the round-robin default fill.
	if cv[2] != (linhash.ChVecItem{Att: 0, Bit: 1}) {
		t.Errorf("cv[2] = %+v, want {0 1}", cv[2])
	}
	if cv[3] != (linhash.ChVecItem{Att: 1, Bit: 1}) {
		t.Errorf("cv[3] = %+v, want {1 1}", cv[3])
	}
}

func TestParseChVecAllDefault(t *testing.T) {
	cv, err := linhash.ParseChVec(3, "")
	if err != nil {
		t.Fatalf("ParseChVec returned error: %v", err)
	}
	for i := 0; i < linhash.MaxChVec; i++ {
		want := linhash.ChVecItem{Att: i % 3, Bit: i / 3}
		if cv[i] != want {
			t.Fatalf("cv[%d] = %+v, want %+v", i, cv[i], want)
		}
	}
}

func TestParseChVecErrors(t *testing.T) {
	cases := []string{
		"0",        // missing ':'
		"a:0",      // non-numeric attribute
		"0:a",      // non-numeric bit
		"5:0",      // attribute out of range
		"0:-1",     // bit out of range
		"0:1000",   // bit out of range
	}
	for _, s := range cases {
		if _, err := linhash.ParseChVec(2, s); err == nil {
			t.Errorf("ParseChVec(2, %q) succeeded, want error", s)
		}
	}
}

func TestParseChVecTooManyEntries(t *testing.T) {
	s := ""
	for i := 0; i <= linhash.MaxChVec; i++ {
		if i > 0 {
			s += ","
		}
		s += "0:0"
	}
	if _, err := linhash.ParseChVec(2, s); err == nil {
		t.Error("ParseChVec with too many entries succeeded, want error")
	}
}

func TestChVecStringRoundTrip(t *testing.T) {
	cv, err := linhash.ParseChVec(2, "0:0,1:0")
	if err != nil {
		t.Fatalf("ParseChVec returned error: %v", err)
	}
	cv2, err := linhash.ParseChVec(2, cv.String())
	if err != nil {
		t.Fatalf("ParseChVec(cv.String()) returned error: %v", err)
	}
	if cv != cv2 {
		t.Errorf("round trip mismatch: %v != %v", cv, cv2)
	}
}
