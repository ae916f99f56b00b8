package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/M1ghtyPirate/MicroMouse/neural"
)

// Input and output labels for the controller network.
var (
	InputLabels  = neural.Labels(neural.InputDescriptors())
	OutputLabels = neural.Labels(neural.OutputDescriptors())
)

// Colors for activation visualization.
var (
	ColorEdgePositive = rl.Color{R: 200, G: 80, B: 80, A: 100}
	ColorEdgeNegative = rl.Color{R: 80, G: 80, B: 200, A: 100}
	ColorLabelDim     = rl.Color{R: 120, G: 120, B: 120, A: 255}
)

// DrawNetworkDiagram renders every layer of n as a column of nodes colored by
// the activations of the last evaluation. Weak edges are skipped.
func DrawNetworkDiagram(x, y, width, height int32, n *neural.Network, act neural.Activations) {
	if n == nil {
		rl.DrawText("No network", x+10, y+10, 14, ColorLabelDim)
		return
	}

	layers := make([][]float32, 0, len(act.Hidden)+2)
	layers = append(layers, act.Input)
	layers = append(layers, act.Hidden...)
	layers = append(layers, act.Output)

	colWidth := float32(width) / float32(len(layers))
	nodeRadius := float32(5)
	usable := float32(height - 20)

	nodes := make([][]rl.Vector2, len(layers))
	for l, values := range layers {
		spacing := usable / float32(max(len(values), 1))
		offset := (usable - spacing*float32(len(values))) / 2
		nodes[l] = make([]rl.Vector2, len(values))
		for i := range values {
			nodes[l][i] = rl.Vector2{
				X: float32(x) + colWidth*(float32(l)+0.5),
				Y: float32(y) + 10 + offset + spacing*(float32(i)+0.5),
			}
		}
	}

	for l, w := range n.Weights {
		if l+1 >= len(nodes) || w.Rows != len(nodes[l]) || w.Cols != len(nodes[l+1]) {
			continue
		}
		for i := 0; i < w.Rows; i++ {
			for j := 0; j < w.Cols; j++ {
				weight := w.At(i, j)
				if abs32(weight) < 0.1 {
					continue
				}
				drawEdge(nodes[l][i], nodes[l+1][j], weight)
			}
		}
	}

	for l, values := range layers {
		var strength []float32
		if l < len(n.Weights) && n.Weights[l].Rows == len(values) {
			strength = outgoingStrength(n.Weights[l])
		}
		for i, v := range values {
			radius := nodeRadius
			if l == len(layers)-1 {
				radius += 2
			}
			if i < len(strength) {
				radius *= 0.5 + strength[i]
			}
			drawNode(nodes[l][i], radius, v)
		}
	}

	for i, pos := range nodes[0] {
		if i < len(InputLabels) {
			w := rl.MeasureText(InputLabels[i], 10)
			rl.DrawText(InputLabels[i], int32(pos.X-nodeRadius)-w-4, int32(pos.Y)-5, 10, ColorLabelDim)
		}
	}
	for i, pos := range nodes[len(nodes)-1] {
		if i < len(OutputLabels) {
			rl.DrawText(OutputLabels[i], int32(pos.X+nodeRadius+6), int32(pos.Y)-5, 10, ColorLabelDim)
		}
	}
}

func drawNode(pos rl.Vector2, radius, activation float32) {
	rl.DrawCircleV(pos, radius, activationColor(activation))
	rl.DrawCircleLinesV(pos, radius, rl.Color{R: 100, G: 100, B: 100, A: 255})
}

func drawEdge(from, to rl.Vector2, weight float32) {
	thickness := neural.Clamp(abs32(weight)*1.5, 0.5, 3)

	color := ColorEdgePositive
	if weight < 0 {
		color = ColorEdgeNegative
	}
	// 2*sigmoid(|w|)-1 rises from 0 towards 1 with the weight magnitude.
	color.A = uint8(40 + 110*(2*neural.Sigmoid(abs32(weight))-1))

	rl.DrawLineEx(from, to, thickness, color)
}

// outgoingStrength squashes the mean absolute outgoing weight of every source
// node of w into [0.5, 1).
func outgoingStrength(w neural.Matrix) []float32 {
	if w.Cols == 0 {
		return nil
	}
	mag := neural.Matrix{Rows: w.Rows, Cols: w.Cols, Data: make([]float32, len(w.Data))}
	for i, v := range w.Data {
		mag.Data[i] = abs32(v)
	}
	ones := make([]float32, w.Cols)
	for i := range ones {
		ones[i] = 1
	}
	out := make([]float32, w.Rows)
	if err := neural.MatVec(mag, ones, out); err != nil {
		return nil
	}
	for i := range out {
		out[i] /= float32(w.Cols)
	}
	neural.SigmoidVec(out)
	return out
}

// activationColor maps negative activations to blue, zero to gray and
// positive to red.
func activationColor(activation float32) rl.Color {
	t := neural.Clamp(abs32(activation), 0, 1)
	hot := uint8(60 + t*195)
	cold := uint8(60 - t*30)
	if activation > 0 {
		return rl.Color{R: hot, G: cold, B: cold, A: 255}
	}
	return rl.Color{R: cold, G: cold, B: hot, A: 255}
}

// DrawActivationBars draws one bar per input and output of act, scaled by
// the descriptor ranges, and returns the new Y position.
func (r *Renderer) DrawActivationBars(x, y, width int32, act neural.Activations) int32 {
	y = r.DrawSectionHeader(x, y, "Inputs")
	y = r.drawBars(x, y, width, neural.InputDescriptors(), act.Input)
	y = r.DrawSectionHeader(x, y+4, "Outputs")
	return r.drawBars(x, y, width, neural.OutputDescriptors(), act.Output)
}

func (r *Renderer) drawBars(x, y, width int32, descs []neural.IODescriptor, values []float32) int32 {
	for i, d := range descs {
		var v float32
		if i < len(values) {
			v = values[i]
		}
		limit := d.Max
		if !d.IsCentered {
			// Uncentered ranges still start at zero, so the bar fills rightwards.
			limit = max(d.Max-d.Min, 1e-6)
		}
		y = r.DrawCenteredBar(x, y, d.Label, v, limit, width)
	}
	return y
}
