package rules

import "testing"

func TestParseSquare(t *testing.T) {
	sq, err := ParseSquare("e2")
	if err != nil {
		t.Fatalf("ParseSquare(e2): %v", err)
	}
	if sq.File() != 4 || sq.Rank() != 1 {
		t.Fatalf("e2 file/rank = %d/%d", sq.File(), sq.Rank())
	}
	if sq.String() != "e2" {
		t.Fatalf("String() = %q", sq.String())
	}

	a1, err := ParseSquare("a1")
	if err != nil || a1 != Square(0) {
		t.Fatalf("a1 = %d, err = %v", a1, err)
	}
	h8, err := ParseSquare("H8")
	if err != nil || h8 != Square(63) {
		t.Fatalf("h8 = %d, err = %v", h8, err)
	}

	for _, bad := range []string{"", "e", "e9", "i1", "e22"} {
		if _, err := ParseSquare(bad); err == nil {
			t.Fatalf("ParseSquare(%q) accepted", bad)
		}
	}
}

func TestParseMove(t *testing.T) {
	mv, err := ParseMove("e2e4")
	if err != nil {
		t.Fatalf("ParseMove(e2e4): %v", err)
	}
	if mv.UCI() != "e2e4" || mv.Promotion != "" {
		t.Fatalf("parsed move = %+v", mv)
	}

	promo, err := ParseMove("a7a8q")
	if err != nil {
		t.Fatalf("ParseMove(a7a8q): %v", err)
	}
	if promo.Promotion != "q" || promo.UCI() != "a7a8q" {
		t.Fatalf("promotion move = %+v", promo)
	}

	for _, bad := range []string{"", "e2", "e2e9", "a7a8k", "e2e4e6"} {
		if _, err := ParseMove(bad); err == nil {
			t.Fatalf("ParseMove(%q) accepted", bad)
		}
	}
}
