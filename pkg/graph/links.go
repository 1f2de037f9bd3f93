package graph

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/Ramsey-B/fern/internal/tracing"
	"github.com/Ramsey-B/fern/pkg/models"
)

// LinkService persists run output as (:Record)-[:LINKED_TO]->(:Record) edges
type LinkService struct {
	client *Client
	logger ectologger.Logger
}

// NewLinkService creates a new link service
func NewLinkService(client *Client, logger ectologger.Logger) *LinkService {
	return &LinkService{
		client: client,
		logger: logger,
	}
}

// SaveRunLinks mirrors a run's accepted links into the graph. Record nodes
// are merged on (tenant_id, project_id, record_id) so repeated runs reuse them.
func (s *LinkService) SaveRunLinks(ctx context.Context, run *models.LinkageRun, links []models.LinkResult) error {
	ctx, span := tracing.StartSpan(ctx, "graph.LinkService.SaveRunLinks")
	defer span.End()

	if len(links) == 0 {
		return nil
	}

	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"tenant_id":  run.TenantID,
		"run_id":     run.ID,
		"link_count": len(links),
	})

	rows := make([]map[string]any, len(links))
	for i, link := range links {
		row := map[string]any{
			"a_id":     link.AID,
			"b_id":     link.BID,
			"score":    link.Score,
			"decision": string(link.Decision),
		}
		if link.ClusterID != nil {
			row["cluster_id"] = *link.ClusterID
		} else {
			row["cluster_id"] = ""
		}
		rows[i] = row
	}

	cypher := `
		UNWIND $links AS link
		MERGE (a:Record {tenant_id: $tenant_id, project_id: $project_id, record_id: link.a_id})
		MERGE (b:Record {tenant_id: $tenant_id, project_id: $project_id, record_id: link.b_id})
		MERGE (a)-[r:LINKED_TO {run_id: $run_id}]->(b)
		SET r.score = link.score,
		    r.decision = link.decision,
		    r.cluster_id = link.cluster_id
	`

	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, map[string]any{
			"tenant_id":  run.TenantID,
			"project_id": run.ProjectID,
			"run_id":     run.ID,
			"links":      rows,
		})
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	if err != nil {
		log.WithError(err).Error("Failed to save run links to graph")
		return fmt.Errorf("failed to save run links to graph: %w", err)
	}

	log.Debug("Saved run links to graph")
	return nil
}

// Neighbours returns the records linked to one record in a run
func (s *LinkService) Neighbours(ctx context.Context, tenantID, projectID, runID, recordID string) ([]models.Link, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.LinkService.Neighbours")
	defer span.End()

	cypher := `
		MATCH (a:Record {tenant_id: $tenant_id, project_id: $project_id, record_id: $record_id})
		      -[r:LINKED_TO {run_id: $run_id}]-(b:Record)
		RETURN a.record_id AS a_id, b.record_id AS b_id, r.score AS score, r.decision AS decision
		ORDER BY b.record_id
	`

	result, err := s.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, map[string]any{
			"tenant_id":  tenantID,
			"project_id": projectID,
			"run_id":     runID,
			"record_id":  recordID,
		})
		if err != nil {
			return nil, err
		}

		var links []models.Link
		for res.Next(ctx) {
			rec := res.Record()
			link := models.Link{}
			if v, ok := rec.Get("a_id"); ok {
				link.Pair.AID, _ = v.(string)
			}
			if v, ok := rec.Get("b_id"); ok {
				link.Pair.BID, _ = v.(string)
			}
			if v, ok := rec.Get("score"); ok {
				link.Score, _ = v.(float64)
			}
			if v, ok := rec.Get("decision"); ok {
				if d, ok := v.(string); ok {
					link.Decision = models.Decision(d)
				}
			}
			links = append(links, link)
		}
		return links, res.Err()
	})
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to query linked records")
		return nil, fmt.Errorf("failed to query linked records: %w", err)
	}

	links, _ := result.([]models.Link)
	return links, nil
}

// DeleteRunLinks removes the edges of one run, keeping the record nodes
func (s *LinkService) DeleteRunLinks(ctx context.Context, tenantID, runID string) error {
	ctx, span := tracing.StartSpan(ctx, "graph.LinkService.DeleteRunLinks")
	defer span.End()

	cypher := `
		MATCH (:Record {tenant_id: $tenant_id})-[r:LINKED_TO {run_id: $run_id}]->(:Record)
		DELETE r
	`

	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, map[string]any{
			"tenant_id": tenantID,
			"run_id":    runID,
		})
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to delete run links from graph")
		return fmt.Errorf("failed to delete run links from graph: %w", err)
	}
	return nil
}
