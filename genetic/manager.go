// Package genetic evolves a population of fixed-topology networks with
// elitism, a fitness-weighted gene pool, layer-wise crossover and sparse
// mutation.
package genetic

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"

	"github.com/M1ghtyPirate/MicroMouse/neural"
)

// FinishFitness is the target fitness that makes the next repopulation signal
// training complete regardless of the scores.
const FinishFitness = -math.MaxFloat32

// ErrNoPopulation is returned when repopulating a manager that has not been
// started.
var ErrNoPopulation = errors.New("genetic: no population to repopulate")

// Config holds the population parameters.
type Config struct {
	PopulationSize int
	BestAgents     int
	Children       int
	MutationChance float64

	InputSize  int
	OutputSize int
	Hidden     []neural.LayerBlock
}

// Runner evaluates one genome at a time. The episode controller implements it.
type Runner interface {
	Active() bool
	Reset(genome *neural.Network)
}

// Observer receives population events. Slices are copies.
type Observer interface {
	NextAgent(generation, index, size int)
	Repopulated(topFitnesses []float32)
	TrainingComplete()
}

// Manager owns the population and drives generational turnover. It is not
// safe for concurrent use; it is advanced from the simulation tick.
type Manager struct {
	cfg    Config
	rng    *rand.Rand
	runner Runner
	obs    Observer

	population []*neural.Network
	genePool   []*neural.Network

	generation    int
	genome        int
	targetFitness float32
	topFitnesses  []float32
}

// NewManager creates an idle manager. obs may be nil.
func NewManager(cfg Config, rng *rand.Rand, runner Runner, obs Observer) *Manager {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Manager{
		cfg:           cfg,
		rng:           rng,
		runner:        runner,
		obs:           obs,
		targetFitness: math.MaxFloat32,
	}
}

// SetObserver replaces the observer.
func (m *Manager) SetObserver(obs Observer) { m.obs = obs }

// StartTraining seeds the population, grows it to size and launches the first
// genome. seed may be nil. A nil hidden topology falls back to
// neural.DefaultHidden.
func (m *Manager) StartTraining(seed []*neural.Network, startGeneration int, hidden []neural.LayerBlock, mutationChance float64) error {
	if len(hidden) == 0 {
		hidden = neural.DefaultHidden
	}
	if mutationChance < 0 || mutationChance > 1 {
		return fmt.Errorf("mutation chance %v outside [0, 1]", mutationChance)
	}
	if m.cfg.BestAgents < 1 || m.cfg.PopulationSize < m.cfg.BestAgents {
		return fmt.Errorf("best agents %d does not fit population %d", m.cfg.BestAgents, m.cfg.PopulationSize)
	}
	m.cfg.Hidden = append([]neural.LayerBlock(nil), hidden...)
	m.cfg.MutationChance = mutationChance

	m.generation = startGeneration
	m.genome = 0
	m.targetFitness = math.MaxFloat32
	m.topFitnesses = nil
	m.genePool = m.genePool[:0]
	m.population = append([]*neural.Network(nil), seed...)
	if err := m.grow(); err != nil {
		return err
	}

	slog.Info("training_started",
		"generation", m.generation,
		"population", len(m.population),
		"seeded", len(seed),
		"hidden", neural.FormatTopology(m.cfg.Hidden),
	)
	return m.OnEpisodeEnd()
}

// grow appends fresh random genomes until the population reaches size.
func (m *Manager) grow() error {
	for len(m.population) < m.cfg.PopulationSize {
		n, err := neural.New(m.cfg.InputSize, m.cfg.OutputSize, m.cfg.Hidden, m.rng)
		if err != nil {
			return fmt.Errorf("grow population: %w", err)
		}
		m.population = append(m.population, n)
	}
	return nil
}

// OnEpisodeEnd moves on to the next genome, repopulating first when the
// generation is exhausted. The next genome is only handed out while the
// runner is active.
func (m *Manager) OnEpisodeEnd() error {
	if m.genome >= len(m.population) {
		if err := m.Repopulate(); err != nil {
			return err
		}
	}
	if m.runner == nil || !m.runner.Active() {
		return nil
	}
	m.runner.Reset(m.population[m.genome])
	m.genome++
	if m.obs != nil {
		m.obs.NextAgent(m.generation, m.genome, len(m.population))
	}
	return nil
}

// Repopulate replaces the population with the elite, their offspring and
// fresh genomes.
func (m *Manager) Repopulate() error {
	if len(m.population) == 0 {
		return ErrNoPopulation
	}
	sort.SliceStable(m.population, func(i, j int) bool {
		return m.population[i].Fitness > m.population[j].Fitness
	})

	best := min(m.cfg.BestAgents, len(m.population))
	next := make([]*neural.Network, best, m.cfg.PopulationSize)
	copy(next, m.population[:best])

	m.topFitnesses = make([]float32, best)
	complete := true
	for i, n := range next {
		m.topFitnesses[i] = n.Fitness
		if n.Fitness < m.targetFitness {
			complete = false
		}
	}
	if complete {
		slog.Info("training_complete", "generation", m.generation, "best", m.topFitnesses[0])
		if m.obs != nil {
			m.obs.TrainingComplete()
		}
	}

	m.genome = 0
	m.generation++
	m.genePool = m.genePool[:0]
	m.addToGenePool(next)
	for _, n := range next {
		n.Fitness = 0
	}

	children := m.crossover(next)
	next = append(next, children...)
	mutants := m.mutate(next)
	next = append(next, mutants...)

	m.population = next
	if err := m.grow(); err != nil {
		return err
	}

	slog.Debug("repopulated",
		"generation", m.generation,
		"elite", best,
		"children", len(children),
		"mutants", len(mutants),
		"gene_pool", len(m.genePool),
	)
	if m.obs != nil {
		m.obs.Repopulated(append([]float32(nil), m.topFitnesses...))
	}
	return nil
}

// addToGenePool adds ceil(fitness) references of every genome.
func (m *Manager) addToGenePool(genomes []*neural.Network) {
	for _, n := range genomes {
		entries := int(math.Ceil(float64(n.Fitness)))
		for j := 0; j < entries; j++ {
			m.genePool = append(m.genePool, n)
		}
	}
}

// distinctParents reports whether the gene pool holds at least two genomes.
func (m *Manager) distinctParents() bool {
	for _, n := range m.genePool {
		if n != m.genePool[0] {
			return true
		}
	}
	return false
}

// crossover breeds child pairs from the gene pool within the children and
// population budgets. Each weight matrix and bias is inherited whole from one
// parent; the sibling gets the other parent's copy.
func (m *Manager) crossover(base []*neural.Network) []*neural.Network {
	if len(m.genePool) == 0 || !m.distinctParents() {
		return nil
	}

	var children []*neural.Network
	rest := make([]*neural.Network, 0, len(m.genePool))
	for i := 0; i < m.cfg.Children && len(base)+len(children)+1 < m.cfg.PopulationSize; i += 2 {
		p1 := m.genePool[m.rng.Intn(len(m.genePool))]
		rest = rest[:0]
		for _, n := range m.genePool {
			if n != p1 {
				rest = append(rest, n)
			}
		}
		p2 := rest[m.rng.Intn(len(rest))]

		c1 := p1.Clone(false)
		c2 := p2.Clone(false)
		for j := 0; j < len(c1.Weights) && j < len(c2.Weights); j++ {
			if m.rng.Intn(2) == 1 {
				c1.Weights[j], c2.Weights[j] = c2.Weights[j], c1.Weights[j]
			}
		}
		for j := 0; j < len(c1.Biases) && j < len(c2.Biases); j++ {
			if m.rng.Intn(2) == 1 {
				c1.Biases[j], c2.Biases[j] = c2.Biases[j], c1.Biases[j]
			}
		}
		children = append(children, c1, c2)
	}
	return children
}

// mutate rolls the mutation chance once per weight matrix of every genome and
// returns the mutants, never more than the population budget allows.
func (m *Manager) mutate(base []*neural.Network) []*neural.Network {
	var mutants []*neural.Network
	for _, n := range base {
		for i := 0; i < len(n.Weights) && len(base)+len(mutants) < m.cfg.PopulationSize; i++ {
			if m.rng.Float64() >= m.cfg.MutationChance {
				continue
			}
			mutant := n.Clone(false)
			if m.rng.Intn(2) == 0 {
				m.mutateMatrix(mutant.Weights[i])
			} else if i < len(mutant.Biases) {
				mutant.Biases[i] = m.perturb(mutant.Biases[i])
			}
			mutants = append(mutants, mutant)
		}
	}
	return mutants
}

// mutateMatrix perturbs up to half of the elements, chosen with replacement.
func (m *Manager) mutateMatrix(w neural.Matrix) {
	if w.Len() == 0 {
		return
	}
	count := m.rng.Intn(w.Len()/2 + 1)
	for k := 0; k < count; k++ {
		r, c := m.rng.Intn(w.Rows), m.rng.Intn(w.Cols)
		w.Set(r, c, m.perturb(w.At(r, c)))
	}
}

func (m *Manager) perturb(v float32) float32 {
	return neural.Clamp(v+m.rng.Float32()*2-1, -1, 1)
}

// Finish makes the next repopulation report training complete.
func (m *Manager) Finish() {
	m.targetFitness = FinishFitness
}

// SetTargetFitness sets the fitness every elite must reach for training to
// complete.
func (m *Manager) SetTargetFitness(f float32) { m.targetFitness = f }

// SetMutationChance changes the mutation chance for future generations.
func (m *Manager) SetMutationChance(p float64) {
	m.cfg.MutationChance = min(max(p, 0), 1)
}

// MutationChance returns the current mutation chance.
func (m *Manager) MutationChance() float64 { return m.cfg.MutationChance }

// Population returns a copy of the population slice. The genomes themselves
// are shared.
func (m *Manager) Population() []*neural.Network {
	return append([]*neural.Network(nil), m.population...)
}

// Generation returns the current generation number.
func (m *Manager) Generation() int { return m.generation }

// GenomeIndex returns how many genomes of this generation have been handed out.
func (m *Manager) GenomeIndex() int { return m.genome }

// PopulationSize returns the configured target size.
func (m *Manager) PopulationSize() int { return m.cfg.PopulationSize }

// Hidden returns the hidden topology new genomes are built with.
func (m *Manager) Hidden() []neural.LayerBlock {
	return append([]neural.LayerBlock(nil), m.cfg.Hidden...)
}

// TopFitnesses returns the elite scores recorded at the last repopulation.
func (m *Manager) TopFitnesses() []float32 {
	return append([]float32(nil), m.topFitnesses...)
}

// AverageFitness returns the mean fitness of the current population.
func (m *Manager) AverageFitness() float32 {
	if len(m.population) == 0 {
		return 0
	}
	var sum float32
	for _, n := range m.population {
		sum += n.Fitness
	}
	return sum / float32(len(m.population))
}
