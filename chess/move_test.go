package chess

import "testing"

func TestMovePackSquares(t *testing.T) {
	// e2 = 12, e4 = 28.
	mv := Pack(12, 28)
	from, to := mv.Squares()
	if from != 12 || to != 28 {
		t.Errorf("Squares: got (%d, %d) want (12, 28)", from, to)
	}
	if mv.IsSentinel() {
		t.Error("packed move should not be a sentinel")
	}
	if got := mv.String(); got != "e2e4" {
		t.Errorf("String: got %q want %q", got, "e2e4")
	}
}

func TestMoveSentinels(t *testing.T) {
	for _, mv := range []Move{MoveDrawOffer, MoveDrawAccept, MoveResign} {
		if !mv.IsSentinel() {
			t.Errorf("%s should be a sentinel", mv)
		}
	}
	if MoveNone.IsSentinel() {
		t.Error("MoveNone is the zero value, not a sentinel")
	}
	if got := MoveResign.String(); got != "resign" {
		t.Errorf("String: got %q want %q", got, "resign")
	}
}

func TestMovePackBounds(t *testing.T) {
	// a1a1 and h8h8 are the packed range's corners.
	if mv := Pack(0, 0); mv != 0 {
		t.Errorf("Pack(0,0): got %#x want 0", uint16(mv))
	}
	mv := Pack(63, 63)
	if uint16(mv) != 0x0FFF {
		t.Errorf("Pack(63,63): got %#x want 0x0FFF", uint16(mv))
	}
	if got := mv.String(); got != "h8h8" {
		t.Errorf("String: got %q want %q", got, "h8h8")
	}
}
