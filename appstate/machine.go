package appstate

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"pagegen/core"
	"pagegen/domain"
	"pagegen/logging"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrWrongPhase is returned when an operation is attempted outside the phase
// it belongs to.
var ErrWrongPhase = errors.New("operation not valid in the current phase")

// CommitFunc observes every state change that lands in preview.
// The history manager records snapshots through it; the machine calls it at
// explicit commit points only, never from incidental field changes.
type CommitFunc func(snapshot State)

// Machine owns the application state. All access goes through its methods;
// the mutex serializes concurrent HTTP handlers, and results of the
// pipeline's concurrent network work are applied one at a time under it.
type Machine struct {
	mu     sync.Mutex
	state  State
	gen    Generator
	commit CommitFunc
	logger *logging.Logger
}

// NewMachine creates the state machine. commit may be nil.
func NewMachine(gen Generator, commit CommitFunc, logger *logging.Logger) *Machine {
	return &Machine{
		state:  NewState(),
		gen:    gen,
		commit: commit,
		logger: logger.Named("state"),
	}
}

// Snapshot returns a deep copy of the current state.
func (m *Machine) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

// Submit drives input → processing → preview. It synchronously clears any
// previous generated output, runs copy and image generation concurrently,
// and commits both atomically: the preview never renders with one populated
// and the other stale. On any failure the machine returns to input with no
// partial state.
func (m *Machine) Submit(ctx context.Context, req domain.ProductRequest) error {
	m.mu.Lock()
	if m.state.Phase != PhaseInput {
		m.mu.Unlock()
		return fmt.Errorf("%w: submit requires input phase, currently %s", ErrWrongPhase, m.state.Phase)
	}
	m.state = State{
		Phase:          PhaseProcessing,
		Request:        req,
		OriginalImages: req.SourceImages,
	}
	m.mu.Unlock()

	var (
		images  []domain.GeneratedImage
		copyDoc *domain.GeneratedCopy
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		images, err = m.gen.GenerateImages(egCtx, req)
		return err
	})
	eg.Go(func() error {
		var err error
		copyDoc, err = m.gen.GenerateCopy(egCtx, req)
		return err
	})

	if err := eg.Wait(); err != nil {
		m.mu.Lock()
		m.state = State{Phase: PhaseInput}
		m.mu.Unlock()
		m.logger.Error("generation failed, returning to input",
			zap.String("kind", string(core.KindOf(err))),
			zap.Error(err))
		return err
	}

	m.mu.Lock()
	m.state.Phase = PhasePreview
	m.state.GeneratedImages = images
	m.state.GeneratedCopy = copyDoc
	m.state.MainImageIndex = 0
	snapshot := m.state.Clone()
	m.mu.Unlock()

	m.logger.Info("preview committed",
		zap.Int("images", len(images)),
		zap.Int("features", len(copyDoc.Features)))
	m.notifyCommit(snapshot)
	return nil
}

// Reset returns the machine to the empty input state from any phase.
func (m *Machine) Reset() {
	m.mu.Lock()
	m.state = NewState()
	m.mu.Unlock()
	m.logger.Info("state reset to input")
}

// Restore replaces the current state with a snapshot (undo/redo navigation
// and share-token hydration). The commit observer still fires when the
// restored state is a preview; the history timeline's suppression flag keeps
// the navigated-to state from re-recording.
func (m *Machine) Restore(snapshot State) {
	m.mu.Lock()
	m.state = snapshot.Clone()
	restored := m.state.Clone()
	m.mu.Unlock()
	m.notifyCommit(restored)
}

// UserMessage renders a submission failure as the user-facing text, keeping
// the credits-exhausted case distinct and actionable.
func UserMessage(err error) string {
	var failure *core.Failure
	if errors.As(err, &failure) {
		switch failure.Kind {
		case core.KindCreditsExhausted:
			return "Generation stopped: your provider credits are exhausted. " + failure.Action
		case core.KindAuthOrConfig:
			return "Generation could not start: " + failure.Message + ". " + failure.Action
		}
	}
	return "Generation failed. Verify your provider configuration and try again."
}

func (m *Machine) notifyCommit(snapshot State) {
	if m.commit == nil || !snapshot.HasPreviewContent() {
		return
	}
	m.commit(snapshot)
}
