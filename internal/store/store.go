package store

import (
	"context"

	"researchsim/internal/tech"
)

type Store interface {
	Close(ctx context.Context) error
	EnsureSchema(ctx context.Context) error

	UpsertTechnology(ctx context.Context, t TechnologyInput) error
	RemoveStaleTechnologies(ctx context.Context, currentSourceFiles []string) (int64, error)
	GetSourceHashes(ctx context.Context) (map[string]string, error)
	ListTechnologies(ctx context.Context) ([]TechnologyRecord, error)

	CreateRun(ctx context.Context, run RunInput) error
	AppendEvents(ctx context.Context, runID string, events []tech.Event) error
	SaveSnapshot(ctx context.Context, runID string, snap Snapshot) error

	GetRun(ctx context.Context, runID string) (*Run, error)
	ListRuns(ctx context.Context) ([]Run, error)
	ListEvents(ctx context.Context, filter EventFilter) ([]EventRecord, error)
	GetTechnologyStates(ctx context.Context, runID string) ([]TechnologyState, error)
	GetKnowledge(ctx context.Context, runID, agent string) ([]KnowledgeRecord, error)
	GetGroupKnowledge(ctx context.Context, runID string) ([]GroupKnowledge, error)
	GetSummary(ctx context.Context, runID string) (*tech.Summary, error)

	RunSQL(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
}
