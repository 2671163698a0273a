package turtle

import "math"

// Segment is one line drawn by the turtle
type Segment struct {
	X1    float64 `json:"x1"`
	Y1    float64 `json:"y1"`
	X2    float64 `json:"x2"`
	Y2    float64 `json:"y2"`
	Color RGB     `json:"color"`
	Width float64 `json:"width"`
}

// Defaults for a fresh turtle
const (
	DefaultPenWidth = 2.0
)

// State is the turtle pose plus its drawing history.
//
// Heading is in degrees: 0 points up and positive angles turn clockwise,
// so moving d units changes x by d*sin(h) and y by d*cos(h) with y
// growing upward. Lines is append-only; only Reset clears it.
type State struct {
	X          float64
	Y          float64
	Heading    float64
	PenIsDown  bool
	PenColor   RGB
	PenWidth   float64
	Visible    bool
	Background RGB
	// Clears counts CLEARSCREEN requests for renderers that wipe the canvas
	Clears int
	Lines  []Segment
}

// New returns a turtle at the origin facing up with the pen down
func New() *State {
	s := &State{}
	s.Reset()
	return s
}

// Reset restores every default and discards the drawing history.
// The engine never calls it; hosts do between independent runs.
func (s *State) Reset() {
	s.X, s.Y, s.Heading = 0, 0, 0
	s.PenIsDown = true
	s.PenColor = White
	s.PenWidth = DefaultPenWidth
	s.Visible = true
	s.Background = DefaultBackground
	s.Clears = 0
	s.Lines = nil
}

// Forward moves along the heading, drawing if the pen is down
func (s *State) Forward(distance float64) {
	rad := s.Heading * math.Pi / 180
	s.moveTo(s.X+distance*math.Sin(rad), s.Y+distance*math.Cos(rad))
}

// Back moves against the heading
func (s *State) Back(distance float64) {
	s.Forward(-distance)
}

// Right turns clockwise
func (s *State) Right(degrees float64) {
	s.Heading = NormalizeHeading(s.Heading + degrees)
}

// Left turns counter-clockwise
func (s *State) Left(degrees float64) {
	s.Heading = NormalizeHeading(s.Heading - degrees)
}

// SetHeading sets the absolute heading
func (s *State) SetHeading(degrees float64) {
	s.Heading = NormalizeHeading(degrees)
}

// SetPosition moves to an absolute point, drawing if the pen is down
func (s *State) SetPosition(x, y float64) {
	s.moveTo(x, y)
}

// SetX moves horizontally to x
func (s *State) SetX(x float64) {
	s.moveTo(x, s.Y)
}

// SetY moves vertically to y
func (s *State) SetY(y float64) {
	s.moveTo(s.X, y)
}

// Home returns to the origin, drawing if the pen is down, and faces up
func (s *State) Home() {
	s.moveTo(0, 0)
	s.Heading = 0
}

// PenUp stops drawing
func (s *State) PenUp() {
	s.PenIsDown = false
}

// PenDown resumes drawing
func (s *State) PenDown() {
	s.PenIsDown = true
}

// SetPenColor sets the color of subsequent segments
func (s *State) SetPenColor(c RGB) {
	s.PenColor = c
}

// SetPenWidth sets the width of subsequent segments; negative widths become 0
func (s *State) SetPenWidth(width float64) {
	if width < 0 || math.IsNaN(width) {
		width = 0
	}
	s.PenWidth = width
}

// SetBackground sets the canvas color
func (s *State) SetBackground(c RGB) {
	s.Background = c
}

// Show makes the turtle visible
func (s *State) Show() {
	s.Visible = true
}

// Hide makes the turtle invisible
func (s *State) Hide() {
	s.Visible = false
}

// RequestClear records a clear-screen request without touching the history
func (s *State) RequestClear() {
	s.Clears++
}

func (s *State) moveTo(x, y float64) {
	if s.PenIsDown {
		s.Lines = append(s.Lines, Segment{
			X1: s.X, Y1: s.Y,
			X2: x, Y2: y,
			Color: s.PenColor,
			Width: s.PenWidth,
		})
	}
	s.X, s.Y = x, y
}

// NormalizeHeading maps any angle into [0, 360)
func NormalizeHeading(degrees float64) float64 {
	if math.IsNaN(degrees) || math.IsInf(degrees, 0) {
		return 0
	}
	h := math.Mod(degrees, 360)
	if h < 0 {
		h += 360
	}
	// h+360 can round up to exactly 360 for tiny negative inputs
	if h >= 360 {
		h = 0
	}
	return h
}

// Snapshot is a read-only copy of the turtle for renderers and exporters
type Snapshot struct {
	X          float64   `json:"x"`
	Y          float64   `json:"y"`
	Heading    float64   `json:"heading"`
	PenDown    bool      `json:"pen_down"`
	PenColor   RGB       `json:"pen_color"`
	PenWidth   float64   `json:"pen_width"`
	Visible    bool      `json:"visible"`
	Background RGB       `json:"background"`
	Clears     int       `json:"clears"`
	Lines      []Segment `json:"lines"`
}

// Snapshot copies the current state, including the segment history
func (s *State) Snapshot() Snapshot {
	lines := make([]Segment, len(s.Lines))
	copy(lines, s.Lines)
	return Snapshot{
		X:          s.X,
		Y:          s.Y,
		Heading:    s.Heading,
		PenDown:    s.PenIsDown,
		PenColor:   s.PenColor,
		PenWidth:   s.PenWidth,
		Visible:    s.Visible,
		Background: s.Background,
		Clears:     s.Clears,
		Lines:      lines,
	}
}

// Restore replaces the state with a snapshot, e.g. one loaded from disk
func (s *State) Restore(snap Snapshot) {
	s.X, s.Y, s.Heading = snap.X, snap.Y, NormalizeHeading(snap.Heading)
	s.PenIsDown = snap.PenDown
	s.PenColor = snap.PenColor
	s.PenWidth = snap.PenWidth
	s.Visible = snap.Visible
	s.Background = snap.Background
	s.Clears = snap.Clears
	s.Lines = make([]Segment, len(snap.Lines))
	copy(s.Lines, snap.Lines)
}
