package main

import (
	"context"
	"fmt"

	"matchform/pipeline/internal/cache"
	"matchform/pipeline/internal/features"
	"matchform/pipeline/internal/models"
	"matchform/pipeline/internal/repository"
)

// snapshotSource finds a team's current form. A nil snapshot with a nil
// error means the source does not know the team.
type snapshotSource interface {
	Name() string
	Snapshot(ctx context.Context, team string) (*models.TeamFormSnapshot, error)
}

type cacheSource struct{ c *cache.RedisCache }

func (s cacheSource) Name() string { return "redis" }

func (s cacheSource) Snapshot(ctx context.Context, team string) (*models.TeamFormSnapshot, error) {
	return s.c.GetSnapshot(ctx, team)
}

type databaseSource struct{ db *repository.Database }

func (s databaseSource) Name() string { return "database" }

func (s databaseSource) Snapshot(ctx context.Context, team string) (*models.TeamFormSnapshot, error) {
	return s.db.Teams.GetSnapshot(ctx, team)
}

type fileSource struct {
	index features.SnapshotIndex
}

func (s *fileSource) Name() string { return "file" }

func (s *fileSource) Snapshot(_ context.Context, team string) (*models.TeamFormSnapshot, error) {
	snap, ok := s.index[team]
	if !ok {
		return nil, nil
	}
	return &snap, nil
}

// lookup asks each source in order and returns the first hit
func lookup(ctx context.Context, sources []snapshotSource, team string) (*models.TeamFormSnapshot, string, error) {
	for _, src := range sources {
		snap, err := src.Snapshot(ctx, team)
		if err != nil {
			return nil, "", fmt.Errorf("%s lookup for %q: %w", src.Name(), team, err)
		}
		if snap != nil {
			return snap, src.Name(), nil
		}
	}
	return nil, "", fmt.Errorf("%w: %q", features.ErrUnknownTeam, team)
}

// buildVector assembles the model input for a fixture
func buildVector(ctx context.Context, sources []snapshotSource, home, away string) (*features.FeatureVector, error) {
	if home == away {
		return nil, fmt.Errorf("%w: %q", features.ErrSameTeam, home)
	}
	h, _, err := lookup(ctx, sources, home)
	if err != nil {
		return nil, err
	}
	a, _, err := lookup(ctx, sources, away)
	if err != nil {
		return nil, err
	}
	return features.AssembleFeatureVector(*h, *a)
}
