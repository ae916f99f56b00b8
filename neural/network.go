// Package neural provides the fixed-topology feedforward networks that drive
// the mouse, plus the small matrix helpers they are built on.
package neural

import (
	"errors"
	"fmt"
	"math/rand"
)

var (
	// ErrInvalidTopology is returned when a network cannot be built from the
	// requested layer sizes.
	ErrInvalidTopology = errors.New("invalid network topology")
	// ErrDimension is returned when an input or weight shape does not line up.
	ErrDimension = errors.New("dimension mismatch")
)

// LayerBlock describes Count consecutive hidden layers of Width neurons.
type LayerBlock struct {
	Width int `yaml:"width" json:"width"`
	Count int `yaml:"count" json:"count"`
}

// DefaultHidden is the hidden topology used when none is configured.
var DefaultHidden = []LayerBlock{{Width: 9, Count: 2}}

// Network is a feedforward network with a single bias scalar per layer
// boundary. Weights[i] maps layer i (input, then hidden layers) to layer i+1
// and has shape [width(i), width(i+1)].
type Network struct {
	Weights []Matrix
	Biases  []float32
	Fitness float32

	input  []float32
	hidden [][]float32
	output []float32
}

// New builds a network and randomizes its weights and biases in [-1, 1].
func New(inputSize, outputSize int, hidden []LayerBlock, rng *rand.Rand) (*Network, error) {
	if err := validateBlocks(hidden); err != nil {
		return nil, err
	}
	n, err := newShell(inputSize, outputSize, expand(hidden))
	if err != nil {
		return nil, err
	}
	n.randomize(rng)
	return n, nil
}

// FromParts rebuilds a network from stored fields. Topology is validated;
// weights and biases whose shapes no longer match are re-initialized on the
// next Evaluate.
func FromParts(inputSize, outputSize int, hidden []int, weights []Matrix, biases []float32, fitness float32) (*Network, error) {
	n, err := newShell(inputSize, outputSize, hidden)
	if err != nil {
		return nil, err
	}
	n.Weights = weights
	n.Biases = biases
	n.Fitness = fitness
	return n, nil
}

func newShell(inputSize, outputSize int, hidden []int) (*Network, error) {
	if inputSize < 1 || outputSize < 2 {
		return nil, fmt.Errorf("%w: input %d, output %d", ErrInvalidTopology, inputSize, outputSize)
	}
	if len(hidden) == 0 {
		return nil, fmt.Errorf("%w: no hidden layers", ErrInvalidTopology)
	}
	n := &Network{
		input:  make([]float32, inputSize),
		hidden: make([][]float32, len(hidden)),
		output: make([]float32, outputSize),
	}
	for i, w := range hidden {
		if w < 1 {
			return nil, fmt.Errorf("%w: hidden layer %d has width %d", ErrInvalidTopology, i, w)
		}
		n.hidden[i] = make([]float32, w)
	}
	return n, nil
}

func validateBlocks(blocks []LayerBlock) error {
	for _, b := range blocks {
		if b.Width < 1 || b.Count < 1 {
			return fmt.Errorf("%w: hidden block %dx%d", ErrInvalidTopology, b.Width, b.Count)
		}
	}
	return nil
}

// expand turns run-length blocks into one width per hidden layer.
func expand(blocks []LayerBlock) []int {
	var widths []int
	for _, b := range blocks {
		for i := 0; i < b.Count; i++ {
			widths = append(widths, b.Width)
		}
	}
	return widths
}

// layerWidth returns the width of layer i, where 0 is the input layer and
// len(hidden)+1 is the output layer.
func (n *Network) layerWidth(i int) int {
	switch {
	case i == 0:
		return len(n.input)
	case i == len(n.hidden)+1:
		return len(n.output)
	default:
		return len(n.hidden[i-1])
	}
}

func (n *Network) boundaries() int {
	return len(n.hidden) + 1
}

func (n *Network) randomize(rng *rand.Rand) {
	n.randomizeWeights(rng)
	n.randomizeBiases(rng)
}

func (n *Network) randomizeWeights(rng *rand.Rand) {
	n.Weights = make([]Matrix, n.boundaries())
	for i := range n.Weights {
		n.Weights[i] = RandomMatrix(n.layerWidth(i), n.layerWidth(i+1), rng)
	}
}

func (n *Network) randomizeBiases(rng *rand.Rand) {
	n.Biases = make([]float32, n.boundaries())
	for i := range n.Biases {
		n.Biases[i] = uniform(rng)
	}
}

// weightsStale reports whether the weight matrices no longer fit the topology.
func (n *Network) weightsStale() bool {
	if len(n.Weights) != n.boundaries() {
		return true
	}
	for i, w := range n.Weights {
		if !w.valid() || w.Rows != n.layerWidth(i) || w.Cols != n.layerWidth(i+1) {
			return true
		}
	}
	return false
}

// Evaluate runs a forward pass. The raw input is squashed with tanh, then each
// boundary computes tanh(in·W + b). Activation caches are overwritten and a
// copy of the output layer is returned.
func (n *Network) Evaluate(input []float32) ([]float32, error) {
	if n.weightsStale() {
		n.randomizeWeights(nil)
	}
	if len(n.Biases) != n.boundaries() {
		n.randomizeBiases(nil)
	}
	if len(input) != len(n.input) {
		return nil, fmt.Errorf("%w: input length %d, want %d", ErrDimension, len(input), len(n.input))
	}

	copy(n.input, input)
	TanhVec(n.input)

	in := n.input
	for i := 0; i < n.boundaries(); i++ {
		var out []float32
		if i == len(n.hidden) {
			out = n.output
		} else {
			out = n.hidden[i]
		}
		if err := MulVec(in, n.Weights[i], out); err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		AddScalar(out, n.Biases[i])
		TanhVec(out)
		in = out
	}

	result := make([]float32, len(n.output))
	copy(result, n.output)
	return result, nil
}

// Clone copies topology, weights and biases into independent storage. A deep
// clone also carries the current activations and fitness; otherwise fitness
// starts at zero.
func (n *Network) Clone(deep bool) *Network {
	c, _ := newShell(len(n.input), len(n.output), n.HiddenLayers())
	c.Weights = make([]Matrix, len(n.Weights))
	for i, w := range n.Weights {
		c.Weights[i] = w.Clone()
	}
	c.Biases = make([]float32, len(n.Biases))
	copy(c.Biases, n.Biases)

	if deep {
		c.Fitness = n.Fitness
		copy(c.input, n.input)
		for i := range n.hidden {
			copy(c.hidden[i], n.hidden[i])
		}
		copy(c.output, n.output)
	}
	return c
}

// InputSize returns the number of input neurons.
func (n *Network) InputSize() int { return len(n.input) }

// OutputSize returns the number of output neurons.
func (n *Network) OutputSize() int { return len(n.output) }

// HiddenLayers returns the width of every hidden layer in order.
func (n *Network) HiddenLayers() []int {
	widths := make([]int, len(n.hidden))
	for i, h := range n.hidden {
		widths[i] = len(h)
	}
	return widths
}

// Structure returns the hidden topology as run-length blocks.
func (n *Network) Structure() []LayerBlock {
	var blocks []LayerBlock
	for _, h := range n.hidden {
		if k := len(blocks) - 1; k >= 0 && blocks[k].Width == len(h) {
			blocks[k].Count++
			continue
		}
		blocks = append(blocks, LayerBlock{Width: len(h), Count: 1})
	}
	return blocks
}

// Activations holds copies of the cached layer values.
type Activations struct {
	Input  []float32
	Hidden [][]float32
	Output []float32
}

// Activations returns copies of the values from the last Evaluate.
func (n *Network) Activations() Activations {
	act := Activations{
		Input:  append([]float32(nil), n.input...),
		Hidden: make([][]float32, len(n.hidden)),
		Output: append([]float32(nil), n.output...),
	}
	for i, h := range n.hidden {
		act.Hidden[i] = append([]float32(nil), h...)
	}
	return act
}

// SetActivations restores cached layer values, e.g. after loading. Layers
// whose length does not match the topology are left untouched.
func (n *Network) SetActivations(act Activations) {
	if len(act.Input) == len(n.input) {
		copy(n.input, act.Input)
	}
	for i := range n.hidden {
		if i < len(act.Hidden) && len(act.Hidden[i]) == len(n.hidden[i]) {
			copy(n.hidden[i], act.Hidden[i])
		}
	}
	if len(act.Output) == len(n.output) {
		copy(n.output, act.Output)
	}
}
