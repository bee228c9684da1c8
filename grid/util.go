package grid

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeu5/state-abs/abstraction"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// AbstractionDataSet lays the abstract states of a grid world
// abstraction out on the grid. Cells without a ground state (walls,
// unreachable cells) have no value
type AbstractionDataSet struct {
	Cells  map[int]map[int]int
	Goals  map[int]map[int]bool
	Walls  map[int]map[int]bool
	Height int
	Width  int
	// number of abstract states
	Abstract int
}

var _ plotter.GridXYZ = &AbstractionDataSet{}

// NewAbstractionDataSet reads the position of every ground state of sa
func NewAbstractionDataSet(g *GridWorld, sa *abstraction.StateAbstraction) (*AbstractionDataSet, error) {
	d := &AbstractionDataSet{
		Cells:    make(map[int]map[int]int),
		Goals:    make(map[int]map[int]bool),
		Walls:    make(map[int]map[int]bool),
		Height:   g.Height(),
		Width:    g.Width(),
		Abstract: sa.NumAbstractStates(),
	}
	for _, s := range sa.GroundStates() {
		pos, ok := s.(*Position)
		if !ok {
			return nil, fmt.Errorf("ground state %s is not a grid position", s.Hash())
		}
		a, err := sa.Phi(s)
		if err != nil {
			return nil, err
		}
		if _, ok := d.Cells[pos.I]; !ok {
			d.Cells[pos.I] = make(map[int]int)
		}
		d.Cells[pos.I][pos.J] = int(a)
	}
	for i := 0; i < d.Height; i++ {
		for j := 0; j < d.Width; j++ {
			p := Position{I: i, J: j}
			if g.IsWall(p) {
				if _, ok := d.Walls[i]; !ok {
					d.Walls[i] = make(map[int]bool)
				}
				d.Walls[i][j] = true
			}
			if g.IsGoal(p) {
				if _, ok := d.Goals[i]; !ok {
					d.Goals[i] = make(map[int]bool)
				}
				d.Goals[i][j] = true
			}
		}
	}
	return d, nil
}

func (d *AbstractionDataSet) Dims() (int, int) {
	return d.Width, d.Height
}

// Z is the abstract state of the cell, NaN when the cell has no ground state
func (d *AbstractionDataSet) Z(j, i int) float64 {
	a, ok := d.Cells[i][j]
	if !ok {
		return math.NaN()
	}
	return float64(a)
}

func (d *AbstractionDataSet) X(j int) float64 {
	return float64(j)
}

func (d *AbstractionDataSet) Y(i int) float64 {
	return float64(i)
}

func (d *AbstractionDataSet) Min() float64 {
	return 0.0
}

func (d *AbstractionDataSet) Max() float64 {
	if d.Abstract == 0 {
		return 0
	}
	return float64(d.Abstract - 1)
}

// String prints the grid top row first. Walls are "#", cells without a
// ground state "." and goals carry a "*"
func (d *AbstractionDataSet) String() string {
	width := len(fmt.Sprintf("%d", d.Abstract)) + 1
	var b strings.Builder
	for i := d.Height - 1; i >= 0; i-- {
		for j := 0; j < d.Width; j++ {
			cell := "."
			if d.Walls[i][j] {
				cell = "#"
			} else if a, ok := d.Cells[i][j]; ok {
				cell = fmt.Sprintf("%d", a)
			}
			if d.Goals[i][j] {
				cell += "*"
			}
			fmt.Fprintf(&b, " %*s", width, cell)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// SavePlot renders the data set as a heat map with one color per
// abstract state. The format follows the file extension
func (d *AbstractionDataSet) SavePlot(title, savePath string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "j"
	p.Y.Label.Text = "i"

	h := plotter.NewHeatMap(d, palette.Heat(max(d.Abstract, 2), 1))
	if h.Max <= h.Min {
		h.Max = h.Min + 1
	}
	p.Add(h)

	if dir := filepath.Dir(savePath); dir != "" {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return err
		}
	}
	if err := p.Save(4*vg.Inch, 4*vg.Inch, savePath); err != nil {
		return fmt.Errorf("saving plot %s: %w", savePath, err)
	}
	return nil
}
