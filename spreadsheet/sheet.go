package spreadsheet

import (
	"fmt"
	"io"

	"github.com/vogtb/go-spreadsheet/spreadsheet/depgraph"
)

// chunkRows and chunkCols partition the grid into fixed-size regions for
// sparse storage. A chunk is a plain sparse map of *Cell: this grammar
// has one payload shape per variant, so there is nothing to flatten into
// parallel arrays.
const (
	chunkRows = 256
	chunkCols = 256
)

type chunkKey struct {
	row int
	col int
}

type chunk struct {
	cells map[int]*Cell // keyed by localRow*chunkCols+localCol
}

// Sheet owns a sparse grid of cells and the dependency graph tracking
// which cells reference which. It is the single mutation boundary: every
// structural change (content, cache, graph edges) happens inside SetCell
// or ClearCell so that a caller never observes a partially-applied edit,
// per the single-threaded, non-reentrant scheduling model.
type Sheet struct {
	chunks   map[chunkKey]*chunk
	occupied map[Position]bool
	graph    *depgraph.Graph
}

// NewSheet returns an empty Sheet.
func NewSheet() *Sheet {
	return &Sheet{
		chunks:   make(map[chunkKey]*chunk),
		occupied: make(map[Position]bool),
		graph:    depgraph.New(),
	}
}

// CheckPosition raises *InvalidPositionError if p fails IsValid, and
// otherwise reports whether a cell is currently stored there. It
// is the single validity gate SetCell, GetCell, and ClearCell all route
// through before touching the grid.
func (s *Sheet) CheckPosition(p Position) (bool, error) {
	if !p.IsValid() {
		return false, &InvalidPositionError{Position: p}
	}
	return s.cellAt(p) != nil, nil
}

// SetCell builds a trial cell from text and installs it at p, rejecting
// the edit if it would close a dependency cycle. On any error the Sheet
// is left exactly as it was: the commit in steps 6-8 only happens after
// every validation has passed.
func (s *Sheet) SetCell(p Position, text string) error {
	occupied, err := s.CheckPosition(p)
	if err != nil {
		return err
	}

	if occupied && s.cellAt(p).Text() == text {
		return nil
	}

	trial, err := newCell(text)
	if err != nil {
		return err
	}

	refs := trial.ReferencedCells()
	downstream := s.graph.ReverseReachableFrom(p.String())

	if positionIn(p, refs) || anyStringIn(downstream, positionStrings(refs)) {
		return &CircularDependencyError{Position: p}
	}

	refStrings := make([]string, len(refs))
	for i, r := range refs {
		refStrings[i] = r.String()
	}
	s.graph.AddEdges(p.String(), refStrings)

	for _, r := range refs {
		if s.cellAt(r) == nil {
			s.putCell(r, emptyCell())
		}
	}
	s.putCell(p, trial)

	for _, q := range downstream {
		if qp := ParsePosition(q); qp.IsValid() {
			if c := s.cellAt(qp); c != nil {
				c.invalidate()
			}
		}
	}

	return nil
}

// GetCell returns the cell at p, or nil if no cell has been set there. It
// raises *InvalidPositionError for an out-of-range p.
func (s *Sheet) GetCell(p Position) (*Cell, error) {
	if _, err := s.CheckPosition(p); err != nil {
		return nil, err
	}
	return s.cellAt(p), nil
}

// ClearCell removes the cell at p, invalidating every cell that
// transitively depended on it. Clearing a valid position that holds no
// cell is a no-op; an invalid position returns *InvalidPositionError.
func (s *Sheet) ClearCell(p Position) error {
	occupied, err := s.CheckPosition(p)
	if err != nil {
		return err
	}
	if !occupied {
		return nil
	}

	downstream := s.graph.ReverseReachableFrom(p.String())

	s.removeCell(p)
	s.graph.RemoveCell(p.String())
	delete(s.occupied, p)

	for _, q := range downstream {
		if qp := ParsePosition(q); qp.IsValid() {
			if c := s.cellAt(qp); c != nil {
				c.invalidate()
			}
		}
	}

	return nil
}

// PrintableSize returns (max occupied row + 1, max occupied col + 1), or
// (0, 0) if the sheet has no occupied cells. It recomputes from the
// occupied set on every call; this sheet never gets large enough in
// practice for the O(occupied) scan to matter against incremental
// tracking's added bookkeeping.
func (s *Sheet) PrintableSize() Size {
	if len(s.occupied) == 0 {
		return Size{}
	}
	maxRow, maxCol := -1, -1
	for p := range s.occupied {
		if p.Row > maxRow {
			maxRow = p.Row
		}
		if p.Col > maxCol {
			maxCol = p.Col
		}
	}
	return Size{Rows: maxRow + 1, Cols: maxCol + 1}
}

// PrintValues writes one tab-separated row per line, covering
// PrintableSize's extent; absent cells contribute no characters between
// their tabs.
func (s *Sheet) PrintValues(w io.Writer) error {
	return s.print(w, func(c *Cell) string { return c.Value(s).String() })
}

// PrintTexts writes one tab-separated row per line of cell text, the same
// extent and absent-cell handling as PrintValues.
func (s *Sheet) PrintTexts(w io.Writer) error {
	return s.print(w, func(c *Cell) string { return c.Text() })
}

func (s *Sheet) print(w io.Writer, render func(*Cell) string) error {
	size := s.PrintableSize()
	for row := 0; row < size.Rows; row++ {
		for col := 0; col < size.Cols; col++ {
			if col > 0 {
				if _, err := fmt.Fprint(w, "\t"); err != nil {
					return err
				}
			}
			if c := s.cellAt(Position{Row: row, Col: col}); c != nil {
				if _, err := fmt.Fprint(w, render(c)); err != nil {
					return err
				}
			}
		}
		if _, err := fmt.Fprint(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}

// valueAt is how a CellNode resolves another cell during evaluation: an
// absent position (never set, or cleared) evaluates to 0.0. It never
// raises; an invalid Position cannot reach here because the parser
// rejects those eagerly (parser.go).
func (s *Sheet) valueAt(p Position) CellValue {
	c := s.cellAt(p)
	if c == nil {
		return NumberValue(0)
	}
	v := c.Value(s)
	if v.IsString() {
		if v.AsString() == "" {
			return NumberValue(0)
		}
		return ErrorValue(CellError{Kind: ErrValue})
	}
	return v
}

func (s *Sheet) cellAt(p Position) *Cell {
	ck, idx := chunkIndex(p)
	ch, ok := s.chunks[ck]
	if !ok {
		return nil
	}
	return ch.cells[idx]
}

func (s *Sheet) putCell(p Position, c *Cell) {
	ck, idx := chunkIndex(p)
	ch, ok := s.chunks[ck]
	if !ok {
		ch = &chunk{cells: make(map[int]*Cell)}
		s.chunks[ck] = ch
	}
	ch.cells[idx] = c
	s.occupied[p] = true
}

func (s *Sheet) removeCell(p Position) {
	ck, idx := chunkIndex(p)
	if ch, ok := s.chunks[ck]; ok {
		delete(ch.cells, idx)
	}
}

func chunkIndex(p Position) (chunkKey, int) {
	ck := chunkKey{row: p.Row / chunkRows, col: p.Col / chunkCols}
	localRow := p.Row % chunkRows
	localCol := p.Col % chunkCols
	return ck, localRow*chunkCols+localCol
}

func positionIn(p Position, positions []Position) bool {
	for _, q := range positions {
		if q == p {
			return true
		}
	}
	return false
}

func positionStrings(positions []Position) []string {
	out := make([]string, len(positions))
	for i, p := range positions {
		out[i] = p.String()
	}
	return out
}

func anyStringIn(haystack []string, needles []string) bool {
	set := make(map[string]bool, len(haystack))
	for _, h := range haystack {
		set[h] = true
	}
	for _, n := range needles {
		if set[n] {
			return true
		}
	}
	return false
}
