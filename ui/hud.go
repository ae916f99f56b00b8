package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// HUDData holds the status line values.
type HUDData struct {
	Title      string
	Mode       string
	Active     bool
	Generation int
	Genome     int
	Population int
	Target     string
	Steps      int
	FPS        int32
}

// GenerationText formats "generation - genome / population", or "" before
// training starts.
func GenerationText(generation, genome, population int) string {
	if generation+genome+population == 0 {
		return ""
	}
	return fmt.Sprintf("%d - %d / %d", generation, genome, population)
}

// DrawHUD renders the status lines at (x, y).
func DrawHUD(x, y int32, d HUDData) {
	rl.DrawText(d.Title, x, y, 20, rl.White)

	status := "Idle"
	if d.Active {
		status = "Running"
	}
	rl.DrawText(fmt.Sprintf("%s | %s | target %s | steps %d | FPS %d", d.Mode, status, d.Target, d.Steps, d.FPS),
		x, y+25, 16, rl.LightGray)
	if gen := GenerationText(d.Generation, d.Genome, d.Population); gen != "" {
		rl.DrawText("Generation "+gen, x, y+45, 16, rl.Yellow)
	}
}

// ListPanel draws a titled column of text lines, newest or best first, and
// clips what does not fit.
type ListPanel struct {
	renderer      *Renderer
	title         string
	x, y          int32
	width, height int32
}

// NewListPanel creates a list panel.
func NewListPanel(title string, x, y, width, height int32) *ListPanel {
	return &ListPanel{renderer: NewRenderer(), title: title, x: x, y: y, width: width, height: height}
}

// Draw renders header, an optional highlighted current line, then lines.
func (p *ListPanel) Draw(current string, lines []string) {
	r := p.renderer
	r.DrawPanel(p.x, p.y, p.width, p.height)

	x := p.x + r.Theme.Padding
	y := r.DrawSectionHeader(x, p.y+r.Theme.Padding, p.title)
	bottom := p.y + p.height - r.Theme.LineHeight

	if current != "" {
		rl.DrawText(current, x, y, r.Theme.FontSize, rl.White)
		y += r.Theme.LineHeight
	}
	for _, line := range lines {
		if y > bottom {
			rl.DrawText("...", x, y, r.Theme.FontSize, r.Theme.LabelColor)
			return
		}
		y = r.DrawLine(x, y, line)
	}
}

// FitnessLines formats a best-agents list as whole numbers.
func FitnessLines(fitness []float32) []string {
	lines := make([]string, len(fitness))
	for i, f := range fitness {
		lines[i] = fmt.Sprintf("%.0f", f)
	}
	return lines
}
