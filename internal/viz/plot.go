package viz

import "github.com/guptarohit/asciigraph"

// Series accumulates one scalar per step for plotting.
type Series struct {
	Name   string
	Values []float64
}

func (s *Series) Record(v float64) {
	s.Values = append(s.Values, v)
}

// Plot renders the series as a terminal line chart.
func (s *Series) Plot(width, height int) string {
	if len(s.Values) == 0 {
		return "(no data)"
	}
	return asciigraph.Plot(s.Values,
		asciigraph.Width(width),
		asciigraph.Height(height),
		asciigraph.Caption(s.Name),
	)
}
