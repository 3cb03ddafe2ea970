package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pagegen/appstate"
	"pagegen/db"
	"pagegen/logging"
	"pagegen/snapshot"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ItemSummary is a saved history item without its payload.
type ItemSummary struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	Thumbnail   string    `json:"thumbnail"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Service manages explicitly saved history items in the local database.
// The store is capped; saving past the cap evicts the oldest items first.
// Items are created on explicit user save and deleted on explicit user
// delete, never auto-mutated.
type Service struct {
	repo   *db.Repository
	cap    int
	logger *logging.Logger
}

// NewService creates the history service.
func NewService(repo *db.Repository, cap int, logger *logging.Logger) *Service {
	return &Service{
		repo:   repo,
		cap:    cap,
		logger: logger.Named("history"),
	}
}

// Save reduces a state snapshot to its persisted form and stores it.
// Returns the new item's id.
func (s *Service) Save(ctx context.Context, state appstate.State, displayName string) (string, error) {
	item, err := snapshot.EncodePersisted(state, displayName)
	if err != nil {
		return "", err
	}
	item.ID = uuid.NewString()

	payload, err := json.Marshal(item)
	if err != nil {
		return "", fmt.Errorf("failed to encode history item: %w", err)
	}

	if err := s.makeRoom(ctx); err != nil {
		return "", err
	}

	err = s.repo.Insert(ctx, db.HistoryRow{
		ID:          item.ID,
		DisplayName: item.DisplayName,
		Thumbnail:   item.Thumbnail,
		Payload:     payload,
		CreatedAt:   item.CreatedAt,
	})
	if err != nil {
		// A full disk shows up as a failed insert; evicting the single
		// oldest entry gives the caller one retry that usually succeeds.
		if _, evictErr := s.repo.EvictOldest(ctx, 1); evictErr != nil {
			return "", err
		}
		if retryErr := s.repo.Insert(ctx, db.HistoryRow{
			ID:          item.ID,
			DisplayName: item.DisplayName,
			Thumbnail:   item.Thumbnail,
			Payload:     payload,
			CreatedAt:   item.CreatedAt,
		}); retryErr != nil {
			return "", retryErr
		}
	}

	s.logger.Info("history item saved",
		zap.String("id", item.ID),
		zap.String("name", item.DisplayName))
	return item.ID, nil
}

// List returns saved items, newest first.
func (s *Service) List(ctx context.Context) ([]ItemSummary, error) {
	rows, err := s.repo.List(ctx, s.cap)
	if err != nil {
		return nil, err
	}
	out := make([]ItemSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, ItemSummary{
			ID:          row.ID,
			DisplayName: row.DisplayName,
			Thumbnail:   row.Thumbnail,
			CreatedAt:   row.CreatedAt,
		})
	}
	return out, nil
}

// Load rebuilds the preview-phase state saved under id.
func (s *Service) Load(ctx context.Context, id string) (appstate.State, error) {
	row, err := s.repo.Get(ctx, id)
	if err != nil {
		return appstate.State{}, err
	}
	var item snapshot.PersistedItem
	if err := json.Unmarshal(row.Payload, &item); err != nil {
		return appstate.State{}, fmt.Errorf("history item %s payload is corrupt: %w", id, err)
	}
	return item.RestoreState(), nil
}

// Delete removes one saved item.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// makeRoom evicts oldest items until one more save fits under the cap.
func (s *Service) makeRoom(ctx context.Context) error {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return err
	}
	if count < s.cap {
		return nil
	}
	evicted, err := s.repo.EvictOldest(ctx, count-s.cap+1)
	if err != nil {
		return err
	}
	s.logger.Debug("evicted oldest history items", zap.Int("count", evicted))
	return nil
}
