package svg

// LineOpts customises the revenue trend chart.
type LineOpts struct {
	Title       string
	Description string
	StrokeColor string
	FillColor   string
	AxisColor   string
	GridColor   string
	Padding     float64
	ShowDots    bool
	TickCount   int
}

// BarOpts customises the best-seller bar chart.
type BarOpts struct {
	Title       string
	Description string
	BarColor    string
	AxisColor   string
	GridColor   string
	Padding     float64
	TickCount   int
}

// Defaults for the report charts.
const (
	DefaultWidth   = 720
	DefaultHeight  = 240
	DefaultPadding = 24.0
	DefaultTicks   = 5
)
