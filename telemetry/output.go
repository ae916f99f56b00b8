package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/M1ghtyPirate/MicroMouse/config"
	"github.com/M1ghtyPirate/MicroMouse/storage"
)

// OutputManager handles structured experiment output with CSV logging.
// A nil manager accepts every call and writes nothing.
type OutputManager struct {
	dir            string
	generationFile *os.File
	runFile        *os.File
	perfFile       *os.File

	generationHeaderWritten bool
	runHeaderWritten        bool
	perfHeaderWritten       bool

	// generations is kept for the fitness plot.
	generations []GenerationStats
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}
	files := []struct {
		name string
		dst  **os.File
	}{
		{"generations.csv", &om.generationFile},
		{"runs.csv", &om.runFile},
		{"perf.csv", &om.perfFile},
	}
	for _, f := range files {
		file, err := os.Create(filepath.Join(dir, f.name))
		if err != nil {
			om.Close()
			return nil, fmt.Errorf("creating %s: %w", f.name, err)
		}
		*f.dst = file
	}
	return om, nil
}

// writeCSV writes records, with headers only on the first call per file.
func writeCSV[T any](records []T, file *os.File, headerWritten *bool) error {
	if !*headerWritten {
		if err := gocsv.Marshal(records, file); err != nil {
			return err
		}
		*headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, file)
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteGeneration appends a row to generations.csv.
func (om *OutputManager) WriteGeneration(stats GenerationStats) error {
	if om == nil {
		return nil
	}
	om.generations = append(om.generations, stats)
	if err := writeCSV([]GenerationStats{stats}, om.generationFile, &om.generationHeaderWritten); err != nil {
		return fmt.Errorf("writing generation: %w", err)
	}
	return nil
}

// WriteRun appends a finished run to runs.csv.
func (om *OutputManager) WriteRun(rec RunRecord) error {
	if om == nil {
		return nil
	}
	if err := writeCSV([]RunRecord{rec}, om.runFile, &om.runHeaderWritten); err != nil {
		return fmt.Errorf("writing run: %w", err)
	}
	return nil
}

// WritePerf appends a perf window to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, tick int64) error {
	if om == nil {
		return nil
	}
	if err := writeCSV([]PerfStatsCSV{stats.ToCSV(tick)}, om.perfFile, &om.perfHeaderWritten); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// WriteHallOfFame saves the hall of fame as hall_of_fame.nnet, in the same
// format as saved populations so it can be loaded with -load.
func (om *OutputManager) WriteHallOfFame(hof *HallOfFame) error {
	if om == nil || hof.Size() == 0 {
		return nil
	}
	data, err := storage.EncodeSnapshot(hof.Snapshot())
	if err != nil {
		return fmt.Errorf("encoding hall of fame: %w", err)
	}
	if err := os.WriteFile(filepath.Join(om.dir, "hall_of_fame.nnet"), data, 0644); err != nil {
		return fmt.Errorf("writing hall_of_fame.nnet: %w", err)
	}
	return nil
}

// WritePlot renders fitness.png from every generation written so far.
func (om *OutputManager) WritePlot() error {
	if om == nil || len(om.generations) == 0 {
		return nil
	}
	return PlotFitness(om.generations, filepath.Join(om.dir, "fitness.png"))
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, f := range []*os.File{om.generationFile, om.runFile, om.perfFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
