// Package chess defines the move wire format and the capability interfaces
// of the two external collaborators: the rules engine that validates and
// applies moves, and the oracle that supplies Leela's moves. The game core
// consumes these; it never implements chess rules itself.
package chess

import "fmt"

// Move packs a half-move into 12 bits: from<<6 | to, with squares numbered
// 0..63 (a1=0 .. h8=63). Values above 0x0FFF are reserved sentinels that the
// rules engine interprets directly. Zero means "no move".
type Move uint16

const (
	// MoveNone is the zero sentinel: no move chosen.
	MoveNone Move = 0

	// Reserved sentinel moves. Kept outside the 12-bit packed range.
	MoveDrawOffer  Move = 0x1001
	MoveDrawAccept Move = 0x1002
	MoveResign     Move = 0x1003
)

// Pack builds a Move from source and destination squares.
func Pack(from, to uint8) Move {
	return Move(uint16(from&0x3F)<<6 | uint16(to&0x3F))
}

// Squares unpacks the source and destination squares of a packed move.
// Only meaningful for non-sentinel moves.
func (m Move) Squares() (from, to uint8) {
	return uint8(m >> 6 & 0x3F), uint8(m & 0x3F)
}

// IsSentinel reports whether m is one of the reserved sentinel moves.
func (m Move) IsSentinel() bool {
	switch m {
	case MoveDrawOffer, MoveDrawAccept, MoveResign:
		return true
	}
	return false
}

func (m Move) String() string {
	switch m {
	case MoveNone:
		return "none"
	case MoveDrawOffer:
		return "draw-offer"
	case MoveDrawAccept:
		return "draw-accept"
	case MoveResign:
		return "resign"
	}
	from, to := m.Squares()
	return fmt.Sprintf("%s%s", squareName(from), squareName(to))
}

func squareName(sq uint8) string {
	return string([]byte{'a' + sq%8, '1' + sq/8})
}
