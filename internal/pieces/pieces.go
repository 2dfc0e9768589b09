package pieces

type Piece string

const (
	PieceI Piece = "I"
	PieceO Piece = "O"
	PieceT Piece = "T"
	PieceS Piece = "S"
	PieceZ Piece = "Z"
	PieceJ Piece = "J"
	PieceL Piece = "L"
)

// Alphabet is indexed by state mod 7; clients rely on this exact order.
var Alphabet = [7]Piece{PieceI, PieceO, PieceT, PieceS, PieceZ, PieceJ, PieceL}

const (
	lcgMul  = 1103515245
	lcgInc  = 12345
	lcgMask = 1<<31 - 1
)

// Generator yields the deterministic piece sequence for a seed. Two generators
// built from the same seed produce the same pieces in the same order.
type Generator struct {
	state uint64
}

func New(seed int64) *Generator {
	return &Generator{state: uint64(seed)}
}

// Next advances state = (state*A + C) mod 2^31 and returns Alphabet[state mod 7].
// Multiplication wraps mod 2^64, which leaves the low 31 bits exact.
func (g *Generator) Next() Piece {
	g.state = (g.state*lcgMul + lcgInc) & lcgMask
	return Alphabet[g.state%7]
}

func (g *Generator) Take(n int) []Piece {
	out := make([]Piece, 0, max(n, 0))
	for range n {
		out = append(out, g.Next())
	}
	return out
}
