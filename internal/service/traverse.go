package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/epochgraph/epochgraph/internal/authz"
	"github.com/epochgraph/epochgraph/internal/metrics"
	"github.com/epochgraph/epochgraph/internal/models"
	"github.com/epochgraph/epochgraph/internal/store"
	"github.com/epochgraph/epochgraph/internal/temporal"
)

// TraversalStore is the batched edge-read interface the traverser
// depends on. One call reads one edge kind/direction for a whole
// frontier.
type TraversalStore interface {
	ReadLinkEdges(ctx context.Context, kind models.KnowledgeGraphEdgeKind, direction models.EdgeDirection, axes temporal.QueryTemporalAxes, sources []models.EntityID) ([]store.LinkEdge, error)
	ReadIsOfTypeEdges(ctx context.Context, axes temporal.QueryTemporalAxes, editionIDs []uuid.UUID) ([]store.IsOfTypeEdge, error)
	ReadInheritsFromEdges(ctx context.Context, axes temporal.QueryTemporalAxes, ontologyIDs []uuid.UUID) ([]store.InheritsFromEdge, error)
	HydrateEntities(ctx context.Context, entities []*models.Entity) error
}

// TypeLoader loads entity type payloads for vertices discovered during
// type resolution.
type TypeLoader interface {
	GetEntityTypesByOntologyIDs(ctx context.Context, ontologyIDs []uuid.UUID, axes temporal.QueryTemporalAxes) ([]*models.EntityType, error)
}

// Traverser expands a subgraph from its root entities: link edges
// round by round to a fixed point, then one type-resolution pass for
// the queued is-of-type and inherits-from edges.
type Traverser struct {
	graph TraversalStore
	types TypeLoader
	authz authz.Oracle
	log   *logrus.Logger
}

// NewTraverser creates a Traverser.
func NewTraverser(graph TraversalStore, types TypeLoader, oracle authz.Oracle, log *logrus.Logger) *Traverser {
	return &Traverser{graph: graph, types: types, authz: oracle, log: log}
}

// linkCombos enumerates every link edge kind/direction a round can
// expand. Four reads plus the is-of-type read bound a round at five.
var linkCombos = []struct {
	kind      models.KnowledgeGraphEdgeKind
	direction models.EdgeDirection
}{
	{models.EdgeKindHasLeftEntity, models.EdgeDirectionIncoming},
	{models.EdgeKindHasLeftEntity, models.EdgeDirectionOutgoing},
	{models.EdgeKindHasRightEntity, models.EdgeDirectionIncoming},
	{models.EdgeKindHasRightEntity, models.EdgeDirectionOutgoing},
}

// frontierItem is one scheduled expansion: a resolved entity vertex
// with its remaining budget and the validity interval it was reached
// under.
type frontierItem struct {
	entity   *models.Entity
	vertex   models.EntityVertexID
	depths   models.GraphResolveDepths
	interval temporal.Interval
}

// visitKey memoizes already-queued expansions so diamond-shaped graphs
// do not re-expand a vertex under the same budget and interval.
type visitKey struct {
	vertex   models.EntityVertexID
	depths   models.GraphResolveDepths
	interval temporal.Interval
}

// typeItem queues one is-of-type expansion for the resolution pass
// that runs after the link-edge fixed point.
type typeItem struct {
	source    models.EntityVertexID
	editionID uuid.UUID
	depths    models.GraphResolveDepths
	interval  temporal.Interval
}

// roundEdge pairs a link edge read in the current round with the
// expansion that requested it.
type roundEdge struct {
	item       frontierItem
	nextDepths models.GraphResolveDepths
	kind       models.KnowledgeGraphEdgeKind
	direction  models.EdgeDirection
	edge       store.LinkEdge
}

// Traverse extends the subgraph with everything reachable and
// permitted from the roots. The permission snapshot is fixed by the
// first check; later rounds reuse its token rather than observing
// fresher relationship state.
func (t *Traverser) Traverse(ctx context.Context, actorID uuid.UUID, subgraph *models.Subgraph, roots []*models.Entity) error {
	variableAxis := subgraph.Temporal.Variable.Axis
	consistency := authz.FullyConsistent()

	visited := make(map[visitKey]struct{})
	frontier := make([]frontierItem, 0, len(roots))

	var typeQueue []typeItem

	for _, root := range roots {
		vertex := subgraph.InsertEntity(root)
		subgraph.Roots.Entities = append(subgraph.Roots.Entities, vertex)

		item := frontierItem{
			entity:   root,
			vertex:   vertex,
			depths:   subgraph.Depths,
			interval: entityVariableInterval(root, variableAxis),
		}
		visited[visitKey{vertex: vertex, depths: item.depths, interval: item.interval}] = struct{}{}
		frontier = append(frontier, item)
	}

	var discovered []*models.Entity

	rounds := 0
	for len(frontier) > 0 {
		rounds++

		for _, item := range frontier {
			if next, ok := item.depths.DecrementForIsOfType(); ok {
				typeQueue = append(typeQueue, typeItem{
					source:    item.vertex,
					editionID: item.entity.EditionID,
					depths:    next,
					interval:  item.interval,
				})
			}
		}

		roundEdges, err := t.readRound(ctx, subgraph.Temporal, frontier)
		if err != nil {
			return err
		}

		decision, err := t.checkLinkTargets(ctx, actorID, roundEdges, consistency)
		if err != nil {
			return err
		}
		if decision != nil {
			consistency = decision.At
		}

		frontier = frontier[:0]

		for _, re := range roundEdges {
			if decision != nil {
				// Absent entries default to permitted; only an explicit
				// denial prunes the edge.
				if permitted, ok := decision.Permitted[re.edge.Target.ID.EntityUUID]; ok && !permitted {
					continue
				}
			}

			targetInterval := entityVariableInterval(re.edge.Target, variableAxis)

			propagated, ok := re.item.interval.Intersect(targetInterval)
			if !ok {
				continue
			}

			targetVertex := subgraph.InsertEntity(re.edge.Target)
			discovered = append(discovered, re.edge.Target)

			subgraph.AddKnowledgeEdge(models.KnowledgeGraphEdge{
				Source:    re.item.vertex,
				Kind:      re.kind,
				Direction: re.direction,
				Target:    targetVertex,
				Interval:  propagated,
			})

			key := visitKey{vertex: targetVertex, depths: re.nextDepths, interval: propagated}
			if _, seen := visited[key]; seen {
				continue
			}
			visited[key] = struct{}{}

			frontier = append(frontier, frontierItem{
				entity:   re.edge.Target,
				vertex:   targetVertex,
				depths:   re.nextDepths,
				interval: propagated,
			})
		}
	}

	metrics.TraversalRounds.Observe(float64(rounds))

	if err := t.resolveTypes(ctx, actorID, subgraph, typeQueue, consistency); err != nil {
		return err
	}

	if len(discovered) > 0 {
		if err := t.graph.HydrateEntities(ctx, discovered); err != nil {
			return fmt.Errorf("hydrating traversed entities: %w", err)
		}
	}

	t.log.WithFields(logrus.Fields{
		"rounds":   rounds,
		"entities": len(subgraph.Entities),
		"edges":    len(subgraph.KnowledgeEdges),
	}).Debug("traverse.done")

	return nil
}

// readRound issues the round's batched link-edge reads, one per edge
// kind/direction with surviving budget.
func (t *Traverser) readRound(ctx context.Context, axes temporal.QueryTemporalAxes, frontier []frontierItem) ([]roundEdge, error) {
	var roundEdges []roundEdge

	for _, combo := range linkCombos {
		type expansion struct {
			item       frontierItem
			nextDepths models.GraphResolveDepths
		}

		var (
			sources    []models.EntityID
			bySource   = make(map[models.EntityID][]expansion)
			sourceSeen = make(map[models.EntityID]struct{})
		)

		for _, item := range frontier {
			next, ok := item.depths.DecrementForLinkEdge(combo.kind, combo.direction)
			if !ok {
				continue
			}

			id := item.entity.ID
			if _, seen := sourceSeen[id]; !seen {
				sourceSeen[id] = struct{}{}
				sources = append(sources, id)
			}

			bySource[id] = append(bySource[id], expansion{item: item, nextDepths: next})
		}

		if len(sources) == 0 {
			continue
		}

		edges, err := t.graph.ReadLinkEdges(ctx, combo.kind, combo.direction, axes, sources)
		if err != nil {
			return nil, fmt.Errorf("reading %s %s edges: %w", combo.kind, combo.direction, err)
		}

		for _, edge := range edges {
			for _, exp := range bySource[edge.SourceID] {
				roundEdges = append(roundEdges, roundEdge{
					item:       exp.item,
					nextDepths: exp.nextDepths,
					kind:       combo.kind,
					direction:  combo.direction,
					edge:       edge,
				})
			}
		}
	}

	return roundEdges, nil
}

// checkLinkTargets issues the round's single batched permission check
// over every distinct target entity. Returns nil when the round read
// no edges.
func (t *Traverser) checkLinkTargets(ctx context.Context, actorID uuid.UUID, roundEdges []roundEdge, at authz.Consistency) (*authz.Decision, error) {
	if len(roundEdges) == 0 {
		return nil, nil
	}

	seen := make(map[uuid.UUID]struct{}, len(roundEdges))
	targets := make([]uuid.UUID, 0, len(roundEdges))

	for _, re := range roundEdges {
		id := re.edge.Target.ID.EntityUUID
		if _, ok := seen[id]; ok {
			continue
		}

		seen[id] = struct{}{}
		targets = append(targets, id)
	}

	decision, err := t.authz.CheckEntities(ctx, actorID, authz.PermissionView, targets, at)
	if err != nil {
		return nil, fmt.Errorf("checking traversal permissions: %w", err)
	}

	return decision, nil
}

// entityVariableInterval picks the entity interval along the variable
// axis.
func entityVariableInterval(entity *models.Entity, variableAxis temporal.Axis) temporal.Interval {
	if variableAxis == temporal.AxisTransactionTime {
		return entity.Temporal.TransactionTime
	}

	return entity.Temporal.DecisionTime
}
