package models

import "strconv"

// EntityID is a stable identifier for anything the session tracks: live pieces,
// the cursor-attached piece and the next-piece preview.
// The zero value never names a real entity.
type EntityID uint64

const NoEntity EntityID = 0

func (id EntityID) Valid() bool { return id != NoEntity }

func (id EntityID) String() string {
	return "e" + strconv.FormatUint(uint64(id), 10)
}

// Rank is a piece's position in the fusion chain. Two equal ranks fuse into Rank+1.
type Rank int

// Kind tells which role an entity plays in the session.
type Kind uint8

const (
	// KindLive is a dropped or fused piece, fully simulated and eligible for fusion.
	KindLive Kind = iota
	// KindCursor is the piece riding the cursor, waiting to be dropped.
	KindCursor
	// KindPreview is the next-piece lookahead shown beside the board.
	KindPreview
)

func (k Kind) String() string {
	switch k {
	case KindLive:
		return "live"
	case KindCursor:
		return "cursor"
	case KindPreview:
		return "preview"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}
