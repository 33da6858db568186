package ingest

import (
	"context"

	"researchsim/internal/store"
)

// Store is the slice of store.Store that ingestion needs.
type Store interface {
	EnsureSchema(ctx context.Context) error
	UpsertTechnology(ctx context.Context, t store.TechnologyInput) error
	RemoveStaleTechnologies(ctx context.Context, currentSourceFiles []string) (int64, error)
	GetSourceHashes(ctx context.Context) (map[string]string, error)
	ListTechnologies(ctx context.Context) ([]store.TechnologyRecord, error)
}
