package pieces

import (
	"errors"
	"slices"

	"github.com/zeusync/suika/internal/core/models"
	"github.com/zeusync/suika/internal/core/systems/physics"
)

var (
	ErrPieceNotFound = errors.New("piece not found")
	ErrDuplicateID   = errors.New("entity id already in use")
	ErrUnreservedID  = errors.New("entity id was never reserved")
)

// Piece is the per-entity record. Rank never changes after creation.
//
// Fused is the authoritative guard against fusing a piece twice. It flips to
// true once, when the piece is selected for fusion, and never flips back.
type Piece struct {
	ID        models.EntityID
	Kind      models.Kind
	Rank      models.Rank
	Fused     bool
	Transform physics.Transform
}

// Registry is an arena of pieces keyed by stable ids. Ids are handed out
// monotonically and never reused, so a lookup by a despawned id always misses.
// It is owned by the tick loop and is not safe for concurrent use.
type Registry struct {
	lastID models.EntityID
	pieces map[models.EntityID]*Piece
}

func NewRegistry() *Registry {
	return &Registry{pieces: make(map[models.EntityID]*Piece)}
}

// Reserve hands out the next id without creating a piece.
func (r *Registry) Reserve() models.EntityID {
	r.lastID++
	return r.lastID
}

// Insert stores a piece under a reserved id.
func (r *Registry) Insert(id models.EntityID, kind models.Kind, rank models.Rank, t physics.Transform) (*Piece, error) {
	if !id.Valid() || id > r.lastID {
		return nil, ErrUnreservedID
	}
	if _, ok := r.pieces[id]; ok {
		return nil, ErrDuplicateID
	}
	p := &Piece{ID: id, Kind: kind, Rank: rank, Transform: t}
	r.pieces[id] = p
	return p, nil
}

// Create reserves an id and inserts in one step.
func (r *Registry) Create(kind models.Kind, rank models.Rank, t physics.Transform) *Piece {
	p, _ := r.Insert(r.Reserve(), kind, rank, t)
	return p
}

func (r *Registry) Get(id models.EntityID) (*Piece, bool) {
	p, ok := r.pieces[id]
	return p, ok
}

// Live returns the piece only if it is a simulated piece that can take part in fusion.
func (r *Registry) Live(id models.EntityID) (*Piece, bool) {
	p, ok := r.pieces[id]
	if !ok || p.Kind != models.KindLive {
		return nil, false
	}
	return p, true
}

func (r *Registry) Remove(id models.EntityID) (*Piece, bool) {
	p, ok := r.pieces[id]
	if ok {
		delete(r.pieces, id)
	}
	return p, ok
}

func (r *Registry) SetTransform(id models.EntityID, t physics.Transform) error {
	p, ok := r.pieces[id]
	if !ok {
		return ErrPieceNotFound
	}
	p.Transform = t
	return nil
}

func (r *Registry) Len() int { return len(r.pieces) }

// All returns the pieces ordered by id.
func (r *Registry) All() []*Piece {
	out := make([]*Piece, 0, len(r.pieces))
	for _, p := range r.pieces {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b *Piece) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}

// CountByKind is mostly useful for tests and reports.
func (r *Registry) CountByKind(kind models.Kind) int {
	n := 0
	for _, p := range r.pieces {
		if p.Kind == kind {
			n++
		}
	}
	return n
}
