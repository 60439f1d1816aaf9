package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"quiz-progress-service/internal/domain"
	"quiz-progress-service/internal/progress"
)

// ProgressService turns a player's attempt history into dashboard aggregates.
type ProgressService struct {
	catalog progress.Catalog
	store   ProgressStore
	log     *logrus.Entry
}

func NewProgressService(c progress.Catalog, store ProgressStore, log *logrus.Entry) *ProgressService {
	return &ProgressService{catalog: c, store: store, log: log}
}

func (p *ProgressService) Overview(ctx context.Context, playerID string) (progress.Overview, error) {
	attempts, err := p.store.Attempts(ctx, playerID)
	if err != nil {
		return progress.Overview{}, fmt.Errorf("load attempts for %s: %w", playerID, err)
	}
	ov := progress.Build(p.catalog, attempts)
	if ov.Unclassified > 0 {
		p.log.WithFields(logrus.Fields{"player": playerID, "unclassified": ov.Unclassified}).
			Debug("attempts without a catalog level")
	}
	return ov, nil
}

func (p *ProgressService) ModeProgress(ctx context.Context, playerID string, mode domain.GameMode) (domain.ModeProgress, error) {
	ov, err := p.Overview(ctx, playerID)
	if err != nil {
		return domain.ModeProgress{}, err
	}
	mp, ok := ov.Mode(mode)
	if !ok {
		return domain.ModeProgress{}, fmt.Errorf("%w: %q", domain.ErrModeNotFound, mode)
	}
	return mp, nil
}

// Publish computes the mode aggregate and hands it to l.
func (p *ProgressService) Publish(ctx context.Context, playerID string, mode domain.GameMode, l Listener) (domain.ModeProgress, error) {
	mp, err := p.ModeProgress(ctx, playerID, mode)
	if err != nil {
		return domain.ModeProgress{}, err
	}
	l.OnProgressComputed(mp)
	return mp, nil
}
