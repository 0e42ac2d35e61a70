package rules

import (
	"errors"
	"testing"
)

const (
	foolsMateFEN = "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq g3 0 3"
	stalemateFEN = "k7/8/1Q6/8/8/8/8/7K b - - 0 1"
)

func mustMove(t *testing.T, uci string) Move {
	t.Helper()
	mv, err := ParseMove(uci)
	if err != nil {
		t.Fatalf("ParseMove(%q): %v", uci, err)
	}
	return mv
}

func applyAll(t *testing.T, b *Board, ucis ...string) {
	t.Helper()
	for _, uci := range ucis {
		if err := b.Apply(mustMove(t, uci)); err != nil {
			t.Fatalf("Apply(%s): %v", uci, err)
		}
	}
}

func TestApplyRejectsIllegalMove(t *testing.T) {
	b := NewBoard()
	before := b.Record()

	if err := b.Apply(mustMove(t, "e2e5")); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("Apply(e2e5) err = %v, want ErrIllegalMove", err)
	}
	if b.Record() != before {
		t.Fatalf("position changed after rejected move: %s", b.Record())
	}
	if b.MoveCount() != 0 {
		t.Fatalf("move count = %d after rejected move", b.MoveCount())
	}
}

func TestApplyLegalMoveFlipsSideToMove(t *testing.T) {
	b := NewBoard()
	if b.SideToMove() != White {
		t.Fatalf("fresh board side to move = %s", b.SideToMove())
	}
	applyAll(t, b, "e2e4")
	if b.SideToMove() != Black {
		t.Fatalf("side to move after e2e4 = %s", b.SideToMove())
	}
	if b.LastMoveUCI() != "e2e4" {
		t.Fatalf("last move = %q", b.LastMoveUCI())
	}
	if b.MoveCount() != 1 {
		t.Fatalf("move count = %d", b.MoveCount())
	}
}

func TestIsLegalMatchesLegalMoveSet(t *testing.T) {
	b := NewBoard()
	legal := b.LegalMoves()
	if len(legal) != 20 {
		t.Fatalf("initial legal move count = %d, want 20", len(legal))
	}
	for _, mv := range legal {
		if !b.IsLegal(mv) {
			t.Fatalf("IsLegal(%s) = false for a generated legal move", mv.UCI())
		}
	}
	if b.IsLegal(mustMove(t, "e2e5")) {
		t.Fatalf("IsLegal(e2e5) = true")
	}
}

func TestUndoRevertsExactlyOneMove(t *testing.T) {
	b := NewBoard()
	initial := b.Record()
	applyAll(t, b, "e2e4")
	afterFirst := b.Record()
	applyAll(t, b, "e7e5")

	mv, ok := b.Undo()
	if !ok {
		t.Fatalf("Undo returned ok=false")
	}
	if mv.UCI() != "e7e5" {
		t.Fatalf("undone move = %s, want e7e5", mv.UCI())
	}
	if b.Record() != afterFirst {
		t.Fatalf("record after undo = %s, want %s", b.Record(), afterFirst)
	}
	if b.LastMoveUCI() != "e2e4" {
		t.Fatalf("last move after undo = %q", b.LastMoveUCI())
	}

	if _, ok := b.Undo(); !ok {
		t.Fatalf("second undo failed")
	}
	if b.Record() != initial {
		t.Fatalf("record after full unwind = %s, want %s", b.Record(), initial)
	}
	if b.SideToMove() != White {
		t.Fatalf("side to move after full unwind = %s", b.SideToMove())
	}
}

func TestUndoOnEmptyStack(t *testing.T) {
	b := NewBoard()
	if _, ok := b.Undo(); ok {
		t.Fatalf("Undo succeeded on a fresh board")
	}
}

func TestStatusCheckAfterCheckingMove(t *testing.T) {
	b, err := FromRecord("4k3/8/8/8/8/8/8/R3K3 w - - 0 1")
	if err != nil {
		t.Fatalf("FromRecord: %v", err)
	}
	applyAll(t, b, "a1a8")
	if got := b.Status(); got != StatusCheck {
		t.Fatalf("status after a1a8 = %s, want check", got)
	}
	if b.Status().Terminal() {
		t.Fatalf("check reported as terminal")
	}
}

func TestStatusCheckmateByFoolsMate(t *testing.T) {
	b := NewBoard()
	applyAll(t, b, "f2f3", "e7e5", "g2g4", "d8h4")
	if got := b.Status(); got != StatusCheckmate {
		t.Fatalf("status = %s, want checkmate", got)
	}
	if !b.Status().Terminal() {
		t.Fatalf("checkmate not terminal")
	}
	if got := len(b.LegalMoves()); got != 0 {
		t.Fatalf("legal moves in checkmate = %d", got)
	}
}

func TestStatusFromLoadedTerminalRecords(t *testing.T) {
	mate, err := FromRecord(foolsMateFEN)
	if err != nil {
		t.Fatalf("FromRecord(mate): %v", err)
	}
	if got := mate.Status(); got != StatusCheckmate {
		t.Fatalf("loaded mate status = %s", got)
	}

	stale, err := FromRecord(stalemateFEN)
	if err != nil {
		t.Fatalf("FromRecord(stalemate): %v", err)
	}
	if got := stale.Status(); got != StatusStalemate {
		t.Fatalf("loaded stalemate status = %s", got)
	}
	if got := len(stale.LegalMoves()); got != 0 {
		t.Fatalf("legal moves in stalemate = %d", got)
	}
}

func TestFromRecordRoundTrip(t *testing.T) {
	const fen = "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1"
	b, err := FromRecord(fen)
	if err != nil {
		t.Fatalf("FromRecord: %v", err)
	}
	if b.Record() != fen {
		t.Fatalf("Record() = %s, want %s", b.Record(), fen)
	}
	if b.StartRecord() != fen {
		t.Fatalf("StartRecord() = %s", b.StartRecord())
	}
	if b.SideToMove() != Black {
		t.Fatalf("side to move = %s", b.SideToMove())
	}
}

func TestFromRecordCorrupt(t *testing.T) {
	for _, record := range []string{"", "   ", "not a fen at all", "8/8/8/8"} {
		if _, err := FromRecord(record); !errors.Is(err, ErrCorruptRecord) {
			t.Fatalf("FromRecord(%q) err = %v, want ErrCorruptRecord", record, err)
		}
	}
}

func TestStartRecordFreshBoard(t *testing.T) {
	b := NewBoard()
	if b.StartRecord() != "startpos" {
		t.Fatalf("StartRecord() = %q, want startpos", b.StartRecord())
	}
	applyAll(t, b, "g1f3")
	got := b.MovesUCI()
	if len(got) != 1 || got[0] != "g1f3" {
		t.Fatalf("MovesUCI() = %v", got)
	}
}

func TestHasPieceOf(t *testing.T) {
	b := NewBoard()
	e2, _ := ParseSquare("e2")
	e7, _ := ParseSquare("e7")
	e4, _ := ParseSquare("e4")

	if !b.HasPieceOf(e2, White) {
		t.Fatalf("expected white piece on e2")
	}
	if b.HasPieceOf(e2, Black) {
		t.Fatalf("unexpected black piece on e2")
	}
	if !b.HasPieceOf(e7, Black) {
		t.Fatalf("expected black piece on e7")
	}
	if b.HasPieceOf(e4, White) || b.HasPieceOf(e4, Black) {
		t.Fatalf("unexpected piece on empty e4")
	}
	if b.HasPieceOf(NoSquare, White) {
		t.Fatalf("HasPieceOf accepted NoSquare")
	}
}
