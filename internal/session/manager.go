// Package session tracks asynchronous extraction runs and their outputs.
package session

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/l5x-extractor/backend/internal/extract"
	"github.com/l5x-extractor/backend/internal/models"
)

// MaxRuns limits tracked runs to keep memory and disk bounded.
const MaxRuns = 20

// RunKeepAliveWindow is how long a recently accessed run survives cleanup.
const RunKeepAliveWindow = 5 * time.Minute

// RunState holds one run's metadata, its merged result and where its
// reports were written.
type RunState struct {
	Run          *models.ExtractRun
	Result       *models.RunResult
	OutputDir    string
	LastAccessed time.Time
}

// Manager starts extraction runs in the background and answers status,
// bundle and workbook queries about them.
type Manager struct {
	mu   sync.RWMutex
	runs map[string]*RunState

	conv       *extract.Conventions
	renderer   extract.Renderer
	outputBase string
	log        *slog.Logger

	// OnRunDone, when set, is called once per run after it reaches a
	// terminal status. Used to sync the stored file's lifecycle state.
	OnRunDone func(fileID string, status models.RunStatus)
}

// NewManager creates a run manager writing reports under outputBase.
func NewManager(conv *extract.Conventions, renderer extract.Renderer, outputBase string, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	os.MkdirAll(outputBase, 0755)
	return &Manager{
		runs:       make(map[string]*RunState),
		conv:       conv,
		renderer:   renderer,
		outputBase: outputBase,
		log:        log,
	}
}

// StartRun begins extraction of one stored document. sourceName is the
// document's original filename, which feeds the fixture-name fallback.
func (m *Manager) StartRun(fileID, filePath, sourceName string) (*models.ExtractRun, error) {
	m.cleanupOldRunsIfNeeded()

	runID := uuid.New().String()
	run := models.NewExtractRun(runID, fileID)
	run.Status = models.RunStatusResolving
	run.StartTime = time.Now().UnixMilli()

	state := &RunState{
		Run:          run,
		OutputDir:    filepath.Join(m.outputBase, runID),
		LastAccessed: time.Now(),
	}

	m.mu.Lock()
	m.runs[runID] = state
	m.mu.Unlock()

	go m.runExtract(runID, filePath, sourceName, state.OutputDir)

	return run, nil
}

func (m *Manager) runExtract(runID, filePath, sourceName, outputDir string) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("extraction run panicked", "run", runID[:8], "panic", r)
			m.updateRunError(runID, fmt.Sprintf("extraction panicked: %v", r))
		}
	}()

	start := time.Now()
	m.log.Info("starting extraction", "run", runID[:8], "file", sourceName)

	pipeline := extract.New(m.conv, m.renderer, m.log)
	pipeline.OnProgress = func(done, total int) {
		var progress float64 = 10
		if total > 0 {
			progress = 10 + float64(done)*85/float64(total)
		}
		m.mu.Lock()
		if state, ok := m.runs[runID]; ok {
			state.Run.Status = models.RunStatusExtracting
			state.Run.Progress = progress
		}
		m.mu.Unlock()
	}

	result, err := pipeline.RunNamed(filePath, sourceName, outputDir)
	if err != nil {
		m.log.Error("extraction failed", "run", runID[:8], "error", err)
		m.updateRunError(runID, err.Error())
		return
	}

	elapsed := time.Since(start).Milliseconds()

	m.mu.Lock()

	state, ok := m.runs[runID]
	if !ok {
		m.mu.Unlock()
		return
	}

	state.Result = result
	state.Run.Status = models.RunStatusComplete
	state.Run.Progress = 100
	state.Run.FixtureCount = countFixtures(result)
	state.Run.RoutineCount = len(result.Bundles)
	state.Run.WarningCount = len(result.Warnings)
	state.Run.ProcessingTimeMs = elapsed
	state.Run.EndTime = time.Now().UnixMilli()

	fileID := state.Run.FileID
	m.mu.Unlock()

	m.log.Info("extraction complete", "run", runID[:8],
		"fixtures", len(result.Bundles),
		"warnings", len(result.Warnings),
		"elapsedMs", elapsed)

	if m.OnRunDone != nil {
		m.OnRunDone(fileID, models.RunStatusComplete)
	}
}

func countFixtures(result *models.RunResult) int {
	seen := make(map[string]struct{})
	for _, b := range result.Bundles {
		seen[b.FixtureName] = struct{}{}
	}
	return len(seen)
}

func (m *Manager) updateRunError(runID, reason string) {
	m.mu.Lock()

	state, ok := m.runs[runID]
	if !ok {
		m.mu.Unlock()
		return
	}
	state.Run.Status = models.RunStatusError
	state.Run.Error = reason
	state.Run.EndTime = time.Now().UnixMilli()
	fileID := state.Run.FileID
	m.mu.Unlock()

	if m.OnRunDone != nil {
		m.OnRunDone(fileID, models.RunStatusError)
	}
}

// GetRun returns a run by ID.
func (m *Manager) GetRun(id string) (*models.ExtractRun, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.runs[id]
	if !ok {
		return nil, false
	}
	return state.Run, true
}

// GetResult returns the merged extraction result for a completed run.
func (m *Manager) GetResult(id string) (*models.RunResult, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.runs[id]
	if !ok || state.Result == nil {
		return nil, false
	}
	return state.Result, true
}

// ListWorkbooks returns the rendered outputs of a completed run.
func (m *Manager) ListWorkbooks(id string) ([]models.RoutineOutput, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.runs[id]
	if !ok || state.Result == nil {
		return nil, false
	}
	return state.Result.Outputs, true
}

// WorkbookPath resolves a workbook filename to its on-disk path. Lookup
// goes through the recorded outputs, so request paths cannot escape the
// run's folder.
func (m *Manager) WorkbookPath(id, name string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.runs[id]
	if !ok || state.Result == nil {
		return "", false
	}
	for _, out := range state.Result.Outputs {
		if filepath.Base(out.WorkbookPath) == name {
			return out.WorkbookPath, true
		}
	}
	return "", false
}

// TouchRun updates the LastAccessed timestamp for a run.
func (m *Manager) TouchRun(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.runs[id]
	if !ok {
		return false
	}
	state.LastAccessed = time.Now()
	return true
}

// cleanupOldRunsIfNeeded removes finished runs when at capacity.
func (m *Manager) cleanupOldRunsIfNeeded() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.runs) < MaxRuns {
		return
	}

	toFree := len(m.runs) - MaxRuns + 1
	deleted := 0
	for id, state := range m.runs {
		if deleted >= toFree {
			break
		}
		if state.Run.Status != models.RunStatusComplete &&
			state.Run.Status != models.RunStatusError {
			continue
		}
		os.RemoveAll(state.OutputDir)
		delete(m.runs, id)
		deleted++
		m.log.Info("cleaned up run to free capacity", "run", id[:8])
	}
}

// CleanupOldRuns removes finished runs older than maxAge, keeping runs
// accessed within RunKeepAliveWindow.
func (m *Manager) CleanupOldRuns(maxAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	keepAliveCutoff := time.Now().Add(-RunKeepAliveWindow)

	for id, state := range m.runs {
		if state.Run.Status != models.RunStatusComplete &&
			state.Run.Status != models.RunStatusError {
			continue
		}
		if state.LastAccessed.After(keepAliveCutoff) {
			continue
		}
		if state.LastAccessed.Before(cutoff) {
			os.RemoveAll(state.OutputDir)
			delete(m.runs, id)
			m.log.Info("cleaned up aged run", "run", id[:8],
				"idle", time.Since(state.LastAccessed).Round(time.Second).String())
		}
	}
}
