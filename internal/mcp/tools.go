package mcp

import (
	"context"
	"fmt"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"researchsim/internal/query"
	"researchsim/internal/store"
	"researchsim/internal/tech"
)

type RunInput struct {
	RunID string `json:"run_id,omitempty" jsonschema:"run id, defaults to the latest run"`
}

type GetAdvantageInput struct {
	RunID  string `json:"run_id,omitempty" jsonschema:"run id, defaults to the latest run"`
	Entity string `json:"entity" jsonschema:"agent or group name"`
	Kind   string `json:"kind" jsonschema:"benefit kind such as survival or crafting"`
}

type ListEventsInput struct {
	RunID      string `json:"run_id,omitempty" jsonschema:"run id, defaults to the latest run"`
	Kind       string `json:"kind,omitempty" jsonschema:"event kind filter"`
	Technology string `json:"technology,omitempty" jsonschema:"technology id filter"`
	Actor      string `json:"actor,omitempty" jsonschema:"agent involved as actor or subject"`
	FromDay    int    `json:"from_day,omitempty" jsonschema:"first day, inclusive"`
	ToDay      int    `json:"to_day,omitempty" jsonschema:"last day, inclusive"`
	Limit      int    `json:"limit,omitempty" jsonschema:"maximum number of events"`
}

type GetTechnologyInput struct {
	RunID string `json:"run_id,omitempty" jsonschema:"run id, defaults to the latest run"`
	ID    string `json:"id" jsonschema:"technology id"`
}

type GetKnowledgeInput struct {
	RunID string `json:"run_id,omitempty" jsonschema:"run id, defaults to the latest run"`
	Agent string `json:"agent,omitempty" jsonschema:"agent name, all agents when empty"`
}

type GetCatalogInput struct {
	Category string `json:"category,omitempty" jsonschema:"category filter"`
}

type ListRunsOutput struct {
	Runs []RunOutput `json:"runs"`
}

type RunOutput struct {
	ID         string `json:"id"`
	Project    string `json:"project"`
	Seed       uint64 `json:"seed"`
	Days       int    `json:"days"`
	FinalDay   int    `json:"final_day"`
	Events     int    `json:"events"`
	Faults     int    `json:"faults"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at,omitempty"`
}

type ListEventsOutput struct {
	Events []EventOutput `json:"events"`
}

type EventOutput struct {
	Seq        int64          `json:"seq"`
	Kind       string         `json:"kind"`
	Day        int            `json:"day"`
	Technology string         `json:"technology,omitempty"`
	Actor      string         `json:"actor,omitempty"`
	Subject    string         `json:"subject,omitempty"`
	Group      string         `json:"group,omitempty"`
	Ref        string         `json:"ref,omitempty"`
	Detail     map[string]any `json:"detail,omitempty"`
	Text       string         `json:"text"`
}

type KnowledgeOutput struct {
	Knowledge []store.KnowledgeRecord `json:"knowledge"`
}

type CatalogOutput struct {
	Technologies []tech.Definition `json:"technologies"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_runs",
		Description: "List recorded simulation runs",
	}, s.handleListRuns)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_summary",
		Description: "Technology summary at the end of a run",
	}, s.handleGetSummary)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_advantage",
		Description: "Product of technology benefits of a kind for an agent or group",
	}, s.handleGetAdvantage)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_events",
		Description: "List research events with optional filters",
	}, s.handleListEvents)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_technology",
		Description: "Retrieve a technology with its discovery state and holders",
	}, s.handleGetTechnology)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_knowledge",
		Description: "Knowledge levels of an agent, or of every agent",
	}, s.handleGetKnowledge)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_catalog",
		Description: "Return the technology catalog definitions",
	}, s.handleGetCatalog)
}

func (s *Server) handleListRuns(ctx context.Context, req *sdk.CallToolRequest, input RunInput) (*sdk.CallToolResult, ListRunsOutput, error) {
	runs, err := s.query.Runs(ctx)
	if err != nil {
		return nil, ListRunsOutput{}, err
	}
	output := make([]RunOutput, 0, len(runs))
	for _, run := range runs {
		output = append(output, runOutputFromStore(run))
	}
	return nil, ListRunsOutput{Runs: output}, nil
}

func (s *Server) handleGetSummary(ctx context.Context, req *sdk.CallToolRequest, input RunInput) (*sdk.CallToolResult, tech.Summary, error) {
	summary, err := s.query.Summary(ctx, input.RunID)
	if err != nil {
		return nil, tech.Summary{}, err
	}
	return nil, *summary, nil
}

func (s *Server) handleGetAdvantage(ctx context.Context, req *sdk.CallToolRequest, input GetAdvantageInput) (*sdk.CallToolResult, query.AdvantageResult, error) {
	if input.Entity == "" {
		return nil, query.AdvantageResult{}, fmt.Errorf("entity is required")
	}
	if input.Kind == "" {
		return nil, query.AdvantageResult{}, fmt.Errorf("kind is required")
	}
	result, err := s.query.Advantage(ctx, input.RunID, input.Entity, input.Kind)
	if err != nil {
		return nil, query.AdvantageResult{}, err
	}
	return nil, *result, nil
}

func (s *Server) handleListEvents(ctx context.Context, req *sdk.CallToolRequest, input ListEventsInput) (*sdk.CallToolResult, ListEventsOutput, error) {
	if input.ToDay > 0 && input.FromDay > input.ToDay {
		return nil, ListEventsOutput{}, fmt.Errorf("from_day must not exceed to_day")
	}
	limit := input.Limit
	if limit == 0 {
		limit = 100
	}
	events, err := s.query.Events(ctx, store.EventFilter{
		RunID:      input.RunID,
		Kind:       input.Kind,
		Technology: input.Technology,
		Actor:      input.Actor,
		FromDay:    input.FromDay,
		ToDay:      input.ToDay,
		Limit:      limit,
	})
	if err != nil {
		return nil, ListEventsOutput{}, err
	}

	output := make([]EventOutput, 0, len(events))
	for _, e := range events {
		output = append(output, eventOutputFromRecord(e))
	}
	return nil, ListEventsOutput{Events: output}, nil
}

func (s *Server) handleGetTechnology(ctx context.Context, req *sdk.CallToolRequest, input GetTechnologyInput) (*sdk.CallToolResult, query.TechnologyDetail, error) {
	if input.ID == "" {
		return nil, query.TechnologyDetail{}, fmt.Errorf("id is required")
	}
	detail, err := s.query.Technology(ctx, input.RunID, input.ID)
	if err != nil {
		return nil, query.TechnologyDetail{}, err
	}
	return nil, *detail, nil
}

func (s *Server) handleGetKnowledge(ctx context.Context, req *sdk.CallToolRequest, input GetKnowledgeInput) (*sdk.CallToolResult, KnowledgeOutput, error) {
	records, err := s.query.Knowledge(ctx, input.RunID, input.Agent)
	if err != nil {
		return nil, KnowledgeOutput{}, err
	}
	if records == nil {
		records = []store.KnowledgeRecord{}
	}
	return nil, KnowledgeOutput{Knowledge: records}, nil
}

func (s *Server) handleGetCatalog(ctx context.Context, req *sdk.CallToolRequest, input GetCatalogInput) (*sdk.CallToolResult, CatalogOutput, error) {
	out := CatalogOutput{Technologies: make([]tech.Definition, 0, len(s.catalog))}
	for _, def := range s.catalog {
		if input.Category != "" && string(def.Category) != input.Category {
			continue
		}
		out.Technologies = append(out.Technologies, def)
	}
	return nil, out, nil
}

func runOutputFromStore(run store.Run) RunOutput {
	out := RunOutput{
		ID:        run.ID,
		Project:   run.Project,
		Seed:      run.Seed,
		Days:      run.Days,
		FinalDay:  run.FinalDay,
		Events:    run.Events,
		Faults:    run.Faults,
		StartedAt: run.StartedAt.Format(time.RFC3339),
	}
	if run.FinishedAt != nil {
		out.FinishedAt = run.FinishedAt.Format(time.RFC3339)
	}
	return out
}

func eventOutputFromRecord(e store.EventRecord) EventOutput {
	return EventOutput{
		Seq:        e.Seq,
		Kind:       string(e.Kind),
		Day:        e.Day,
		Technology: e.Technology,
		Actor:      e.Actor,
		Subject:    e.Subject,
		Group:      e.Group,
		Ref:        e.Ref,
		Detail:     e.Detail,
		Text:       e.Text,
	}
}
