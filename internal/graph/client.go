package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type Client struct {
	driver   neo4j.DriverWithContext
	database string
}

func NewClient(ctx context.Context, uri, username, password, database string) (*Client, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("creating neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verifying neo4j connectivity: %w", err)
	}

	return &Client{driver: driver, database: database}, nil
}

func (c *Client) Close(ctx context.Context) error {
	if c == nil || c.driver == nil {
		return nil
	}
	return c.driver.Close(ctx)
}

func (c *Client) EnsureIndexes(ctx context.Context) error {
	statements := []string{
		`CREATE CONSTRAINT technology_unique_id IF NOT EXISTS
FOR (t:Technology) REQUIRE t.id IS UNIQUE`,
		`CREATE CONSTRAINT agent_unique_name IF NOT EXISTS
FOR (a:Agent) REQUIRE a.name IS UNIQUE`,
		`CREATE INDEX technology_category IF NOT EXISTS FOR (t:Technology) ON (t.category)`,
		`CREATE INDEX technology_discovered IF NOT EXISTS FOR (t:Technology) ON (t.discovered)`,
	}

	for _, stmt := range statements {
		if err := c.write(ctx, stmt, nil); err != nil {
			return fmt.Errorf("ensuring indexes: %w", err)
		}
	}
	return nil
}

func (c *Client) write(ctx context.Context, query string, params map[string]any) error {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, query, params)
		return nil, err
	})
	return err
}
