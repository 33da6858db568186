package graph

import (
	"context"
	"fmt"

	"researchsim/internal/store"
	"researchsim/internal/tech"
)

// Writer is the set of graph writes an export needs.
type Writer interface {
	EnsureIndexes(ctx context.Context) error
	UpsertTechnology(ctx context.Context, def tech.Definition) error
	UpsertPrerequisite(ctx context.Context, techID, prerequisite string) error
	SetDiscoveryState(ctx context.Context, state store.TechnologyState) error
	SetKnowledge(ctx context.Context, k store.KnowledgeRecord) error
	RemoveStaleTechnologies(ctx context.Context, currentIDs []string) (int64, error)
}

type ExportResult struct {
	Technologies  int
	Prerequisites int
	Discoveries   int
	Knowledge     int
	Removed       int
	Errors        []error
}

// Export mirrors the catalog DAG into the graph and overlays the discovery
// and knowledge state of a run. states and knowledge may be empty when no run
// has been recorded yet.
func Export(ctx context.Context, w Writer, defs []tech.Definition, states []store.TechnologyState, knowledge []store.KnowledgeRecord) (*ExportResult, error) {
	if err := w.EnsureIndexes(ctx); err != nil {
		return nil, err
	}

	result := &ExportResult{}
	ids := make([]string, 0, len(defs))
	exported := make(map[string]bool, len(defs))
	for _, def := range defs {
		ids = append(ids, def.ID)
		if err := w.UpsertTechnology(ctx, def); err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		exported[def.ID] = true
		result.Technologies++
	}

	for _, def := range defs {
		if !exported[def.ID] {
			continue
		}
		for _, prereq := range def.Prerequisites {
			if !exported[prereq] {
				result.Errors = append(result.Errors, fmt.Errorf("prerequisite %s of %s was not exported", prereq, def.ID))
				continue
			}
			if err := w.UpsertPrerequisite(ctx, def.ID, prereq); err != nil {
				result.Errors = append(result.Errors, err)
				continue
			}
			result.Prerequisites++
		}
	}

	for _, state := range states {
		if !exported[state.ID] {
			continue
		}
		if err := w.SetDiscoveryState(ctx, state); err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		if state.Discovered {
			result.Discoveries++
		}
	}

	for _, k := range knowledge {
		if !exported[k.Technology] {
			continue
		}
		if err := w.SetKnowledge(ctx, k); err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		result.Knowledge++
	}

	removed, err := w.RemoveStaleTechnologies(ctx, ids)
	if err != nil {
		result.Errors = append(result.Errors, err)
	}
	result.Removed = int(removed)
	return result, nil
}

var _ Writer = (*Client)(nil)
