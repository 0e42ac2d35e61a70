package ui

import (
	"context"
	"testing"

	"github.com/kapu/chessdesk/internal/rules"
	"github.com/kapu/chessdesk/internal/session"
	"github.com/kapu/chessdesk/pkg/gamedto"
)

func TestTranslateEvent(t *testing.T) {
	ev, err := translateEvent(gamedto.Event{Kind: "square", Square: "e2"})
	if err != nil {
		t.Fatalf("translateEvent(square): %v", err)
	}
	if ev.Kind != session.EventSquareClicked {
		t.Fatalf("kind = %v", ev.Kind)
	}
	want, _ := rules.ParseSquare("e2")
	if ev.Square != want {
		t.Fatalf("square = %s", ev.Square)
	}

	for raw, kind := range map[string]session.EventKind{
		"hint": session.EventHintRequested,
		"undo": session.EventUndoRequested,
		"quit": session.EventQuitRequested,
	} {
		ev, err := translateEvent(gamedto.Event{Kind: raw})
		if err != nil {
			t.Fatalf("translateEvent(%s): %v", raw, err)
		}
		if ev.Kind != kind {
			t.Fatalf("translateEvent(%s) kind = %v", raw, ev.Kind)
		}
	}
}

func TestTranslateEventRejectsMalformed(t *testing.T) {
	if _, err := translateEvent(gamedto.Event{Kind: "square", Square: "z9"}); err == nil {
		t.Fatalf("bad square accepted")
	}
	if _, err := translateEvent(gamedto.Event{Kind: "square"}); err == nil {
		t.Fatalf("missing square accepted")
	}
	if _, err := translateEvent(gamedto.Event{Kind: "resign"}); err == nil {
		t.Fatalf("unknown kind accepted")
	}
}

func TestStartRejectsBadAddress(t *testing.T) {
	srv := NewServer("not-an-address", make(chan session.Event, 1), nil)
	if err := srv.Start(); err == nil {
		srv.Close(context.Background())
		t.Fatalf("Start accepted an unlistenable address")
	}
}
