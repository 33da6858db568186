package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"researchsim/internal/query"
	"researchsim/internal/store"
	"researchsim/internal/tech"
)

// Querier is the read side the tools are served from; *query.Service
// implements it.
type Querier interface {
	Runs(ctx context.Context) ([]store.Run, error)
	Summary(ctx context.Context, runID string) (*tech.Summary, error)
	Advantage(ctx context.Context, runID, entity, kind string) (*query.AdvantageResult, error)
	Events(ctx context.Context, filter store.EventFilter) ([]store.EventRecord, error)
	Technology(ctx context.Context, runID, techID string) (*query.TechnologyDetail, error)
	Knowledge(ctx context.Context, runID, agent string) ([]store.KnowledgeRecord, error)
}

var _ Querier = (*query.Service)(nil)

type Server struct {
	catalog []tech.Definition
	query   Querier
	mcp     *sdk.Server
}

func NewServer(catalog []tech.Definition, q Querier, version string) *Server {
	s := &Server{
		catalog: catalog,
		query:   q,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "researchsim",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
