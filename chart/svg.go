package chart

import (
	"fmt"
	"strings"
)

// Dark theme palette, matching the dashboard.
const (
	colorBg    = "#1d1d1f"
	colorGrid  = "#3a3a3c"
	colorText  = "#f5f5f7"
	colorMuted = "#98989d"
	colorUp    = "#34c759"
	colorDown  = "#ff453a"
	colorFlat  = "#98989d"
)

func trendColor(t Trend) string {
	switch t {
	case TrendUp:
		return colorUp
	case TrendDown:
		return colorDown
	default:
		return colorFlat
	}
}

// RenderSVG draws the model as a standalone SVG document, the image snapshot
// of the current viewport.
func RenderSVG(m Model) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="system-ui, sans-serif" font-size="11">`+"\n",
		m.Width, m.Height, m.Width, m.Height)
	fmt.Fprintf(&b, `<rect width="%d" height="%d" fill="%s"/>`+"\n", m.Width, m.Height, colorBg)

	if m.Empty {
		fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" fill="%s" text-anchor="middle">%s</text>`+"\n",
			float64(m.Width)/2, float64(m.Height)/2, colorMuted, esc(m.Message))
		b.WriteString("</svg>\n")
		return []byte(b.String())
	}

	for _, gy := range m.GridYs {
		fmt.Fprintf(&b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="1"/>`+"\n",
			m.Plot.X, gy, m.Plot.X+m.Plot.W, gy, colorGrid)
	}
	if m.HasZero {
		fmt.Fprintf(&b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="1" stroke-dasharray="4 4"/>`+"\n",
			m.Plot.X, m.ZeroY, m.Plot.X+m.Plot.W, m.ZeroY, colorMuted)
	}

	accent := trendColor(m.Trend)
	if len(m.Line) > 1 {
		// Filled area from the line down to the plot bottom.
		var area strings.Builder
		fmt.Fprintf(&area, "M %.1f %.1f", m.Line[0].X, m.Baseline)
		for _, p := range m.Line {
			fmt.Fprintf(&area, " L %.1f %.1f", p.X, p.Y)
		}
		fmt.Fprintf(&area, " L %.1f %.1f Z", m.Line[len(m.Line)-1].X, m.Baseline)
		fmt.Fprintf(&b, `<path d="%s" fill="%s" fill-opacity="0.12"/>`+"\n", area.String(), accent)

		var line strings.Builder
		for i, p := range m.Line {
			if i == 0 {
				fmt.Fprintf(&line, "%.1f,%.1f", p.X, p.Y)
			} else {
				fmt.Fprintf(&line, " %.1f,%.1f", p.X, p.Y)
			}
		}
		fmt.Fprintf(&b, `<polyline points="%s" fill="none" stroke="%s" stroke-width="2"/>`+"\n", line.String(), accent)
	} else {
		fmt.Fprintf(&b, `<circle cx="%.1f" cy="%.1f" r="3" fill="%s"/>`+"\n", m.Line[0].X, m.Line[0].Y, accent)
	}

	for _, l := range m.YLabels {
		fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" fill="%s" text-anchor="end" dominant-baseline="middle">%s</text>`+"\n",
			l.X, l.Y, colorMuted, esc(l.Text))
	}
	for _, l := range m.XLabels {
		fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" fill="%s" text-anchor="middle">%s</text>`+"\n",
			l.X, l.Y, colorMuted, esc(l.Text))
	}

	fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" fill="%s">%s</text>`+"\n",
		m.Plot.X, m.Plot.Y-4, colorText, esc(m.KPI))

	if m.Hover != nil {
		h := m.Hover
		fmt.Fprintf(&b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="1" stroke-dasharray="2 3"/>`+"\n",
			h.Marker.X, m.Plot.Y, h.Marker.X, m.Plot.Y+m.Plot.H, colorMuted)
		fmt.Fprintf(&b, `<circle cx="%.1f" cy="%.1f" r="4" fill="%s" stroke="%s" stroke-width="1.5"/>`+"\n",
			h.Marker.X, h.Marker.Y, accent, colorBg)
		fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" fill="%s" text-anchor="end">%s</text>`+"\n",
			m.Plot.X+m.Plot.W, m.Plot.Y-4, colorText, esc(fmt.Sprintf("%s  %s  (%s)", h.Day, h.Value, h.DayMove)))
	}

	b.WriteString("</svg>\n")
	return []byte(b.String())
}

func esc(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
