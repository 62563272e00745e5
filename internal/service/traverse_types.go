package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/epochgraph/epochgraph/internal/authz"
	"github.com/epochgraph/epochgraph/internal/models"
	"github.com/epochgraph/epochgraph/internal/store"
	"github.com/epochgraph/epochgraph/internal/temporal"
)

// typeFrontierItem is one scheduled inherits-from expansion.
type typeFrontierItem struct {
	ontologyID uuid.UUID
	vertex     models.EntityTypeVertexID
	depths     models.GraphResolveDepths
	interval   temporal.Interval
}

// resolveTypes runs the type-resolution pass: the queued is-of-type
// edges first, then inherits-from edges round by round, then one
// batched payload load for every type vertex the pass touched.
func (t *Traverser) resolveTypes(ctx context.Context, actorID uuid.UUID, subgraph *models.Subgraph, queue []typeItem, at authz.Consistency) error {
	if len(queue) == 0 {
		return nil
	}

	editionSeen := make(map[uuid.UUID]struct{})
	editionIDs := make([]uuid.UUID, 0, len(queue))

	for _, item := range queue {
		if _, ok := editionSeen[item.editionID]; ok {
			continue
		}

		editionSeen[item.editionID] = struct{}{}
		editionIDs = append(editionIDs, item.editionID)
	}

	edges, err := t.graph.ReadIsOfTypeEdges(ctx, subgraph.Temporal, editionIDs)
	if err != nil {
		return fmt.Errorf("reading is-of-type edges: %w", err)
	}

	byEdition := make(map[uuid.UUID][]int, len(edges))
	for i, edge := range edges {
		byEdition[edge.EditionID] = append(byEdition[edge.EditionID], i)
	}

	decision, err := t.checkTypeTargets(ctx, actorID, typeTargetIDs(edges), at)
	if err != nil {
		return err
	}

	needed := make(map[uuid.UUID]struct{})
	typeVisited := make(map[typeVisitKey]struct{})

	var frontier []typeFrontierItem

	for _, item := range queue {
		for _, i := range byEdition[item.editionID] {
			edge := edges[i]

			if denied(decision, edge.OntologyID) {
				continue
			}

			vertex := models.EntityTypeVertexID{
				BaseID:     edge.TypeURL.BaseURL,
				RevisionID: edge.TypeURL.Version,
			}

			subgraph.AddSharedEdge(models.SharedEdge{
				Source:   item.source,
				Target:   vertex,
				Interval: item.interval,
			})
			needed[edge.OntologyID] = struct{}{}

			key := typeVisitKey{ontologyID: edge.OntologyID, depths: item.depths}
			if _, seen := typeVisited[key]; seen {
				continue
			}
			typeVisited[key] = struct{}{}

			frontier = append(frontier, typeFrontierItem{
				ontologyID: edge.OntologyID,
				vertex:     vertex,
				depths:     item.depths,
				interval:   item.interval,
			})
		}
	}

	for len(frontier) > 0 {
		frontier, err = t.expandInheritsFrom(ctx, actorID, subgraph, frontier, at, needed, typeVisited)
		if err != nil {
			return err
		}
	}

	return t.loadTypePayloads(ctx, subgraph, needed)
}

// ResolveTypeRoots inserts directly matched type vertices and expands
// their inheritance edges to the subgraph's budget. Root payloads are
// already loaded; only transitively discovered types are fetched.
func (t *Traverser) ResolveTypeRoots(ctx context.Context, actorID uuid.UUID, subgraph *models.Subgraph, roots []*models.EntityType) error {
	variableAxis := subgraph.Temporal.Variable.Axis

	needed := make(map[uuid.UUID]struct{})
	typeVisited := make(map[typeVisitKey]struct{})
	frontier := make([]typeFrontierItem, 0, len(roots))

	for _, root := range roots {
		vertex := subgraph.InsertEntityType(root)
		subgraph.Roots.EntityTypes = append(subgraph.Roots.EntityTypes, vertex)

		item := typeFrontierItem{
			ontologyID: root.Metadata.OntologyID,
			vertex:     vertex,
			depths:     subgraph.Depths,
			interval:   typeVariableInterval(root, variableAxis),
		}
		typeVisited[typeVisitKey{ontologyID: item.ontologyID, depths: item.depths}] = struct{}{}
		frontier = append(frontier, item)
	}

	var err error
	for len(frontier) > 0 {
		frontier, err = t.expandInheritsFrom(ctx, actorID, subgraph, frontier, authz.FullyConsistent(), needed, typeVisited)
		if err != nil {
			return err
		}
	}

	return t.loadTypePayloads(ctx, subgraph, needed)
}

// typeVariableInterval picks the type interval along the variable
// axis. Ontology records are only versioned on transaction time, so
// the decision axis reads as all time.
func typeVariableInterval(entityType *models.EntityType, variableAxis temporal.Axis) temporal.Interval {
	if variableAxis == temporal.AxisTransactionTime {
		return entityType.Metadata.Temporal.TransactionTime
	}

	return temporal.Interval{Start: temporal.Unbounded(), End: temporal.Unbounded()}
}

// typeVisitKey memoizes inherits-from expansions per (type, budget).
type typeVisitKey struct {
	ontologyID uuid.UUID
	depths     models.GraphResolveDepths
}

// expandInheritsFrom runs one inherits-from round: one batched edge
// read and one batched permission check for the round's targets.
func (t *Traverser) expandInheritsFrom(ctx context.Context, actorID uuid.UUID, subgraph *models.Subgraph, frontier []typeFrontierItem, at authz.Consistency, needed map[uuid.UUID]struct{}, typeVisited map[typeVisitKey]struct{}) ([]typeFrontierItem, error) {
	type expansion struct {
		item       typeFrontierItem
		nextDepths models.GraphResolveDepths
	}

	var (
		sources    []uuid.UUID
		bySource   = make(map[uuid.UUID][]expansion)
		sourceSeen = make(map[uuid.UUID]struct{})
	)

	for _, item := range frontier {
		next, ok := item.depths.DecrementForInheritsFrom()
		if !ok {
			continue
		}

		if _, seen := sourceSeen[item.ontologyID]; !seen {
			sourceSeen[item.ontologyID] = struct{}{}
			sources = append(sources, item.ontologyID)
		}

		bySource[item.ontologyID] = append(bySource[item.ontologyID], expansion{item: item, nextDepths: next})
	}

	if len(sources) == 0 {
		return nil, nil
	}

	edges, err := t.graph.ReadInheritsFromEdges(ctx, subgraph.Temporal, sources)
	if err != nil {
		return nil, fmt.Errorf("reading inherits-from edges: %w", err)
	}

	targetIDs := make([]uuid.UUID, 0, len(edges))
	targetSeen := make(map[uuid.UUID]struct{})

	for _, edge := range edges {
		if _, ok := targetSeen[edge.TargetOntologyID]; ok {
			continue
		}

		targetSeen[edge.TargetOntologyID] = struct{}{}
		targetIDs = append(targetIDs, edge.TargetOntologyID)
	}

	decision, err := t.checkTypeTargets(ctx, actorID, targetIDs, at)
	if err != nil {
		return nil, err
	}

	var next []typeFrontierItem

	for _, edge := range edges {
		if denied(decision, edge.TargetOntologyID) {
			continue
		}

		targetVertex := models.EntityTypeVertexID{
			BaseID:     edge.TargetURL.BaseURL,
			RevisionID: edge.TargetURL.Version,
		}

		for _, exp := range bySource[edge.SourceOntologyID] {
			subgraph.AddOntologyEdge(models.OntologyEdge{
				Source: exp.item.vertex,
				Kind:   models.EdgeKindInheritsFrom,
				Target: targetVertex,
			})
			needed[edge.TargetOntologyID] = struct{}{}

			key := typeVisitKey{ontologyID: edge.TargetOntologyID, depths: exp.nextDepths}
			if _, seen := typeVisited[key]; seen {
				continue
			}
			typeVisited[key] = struct{}{}

			next = append(next, typeFrontierItem{
				ontologyID: edge.TargetOntologyID,
				vertex:     targetVertex,
				depths:     exp.nextDepths,
				interval:   exp.item.interval,
			})
		}
	}

	return next, nil
}

// checkTypeTargets issues one batched type permission check. Returns
// nil for an empty target set.
func (t *Traverser) checkTypeTargets(ctx context.Context, actorID uuid.UUID, typeIDs []uuid.UUID, at authz.Consistency) (*authz.Decision, error) {
	if len(typeIDs) == 0 {
		return nil, nil
	}

	decision, err := t.authz.CheckEntityTypes(ctx, actorID, authz.PermissionView, typeIDs, at)
	if err != nil {
		return nil, fmt.Errorf("checking type permissions: %w", err)
	}

	return decision, nil
}

// denied reports an explicit denial; absent entries default to
// permitted.
func denied(decision *authz.Decision, id uuid.UUID) bool {
	if decision == nil {
		return false
	}

	permitted, ok := decision.Permitted[id]

	return ok && !permitted
}

// loadTypePayloads fills the subgraph's type vertices with their
// schema documents in one batched read.
func (t *Traverser) loadTypePayloads(ctx context.Context, subgraph *models.Subgraph, needed map[uuid.UUID]struct{}) error {
	if len(needed) == 0 {
		return nil
	}

	ontologyIDs := make([]uuid.UUID, 0, len(needed))
	for id := range needed {
		ontologyIDs = append(ontologyIDs, id)
	}

	entityTypes, err := t.types.GetEntityTypesByOntologyIDs(ctx, ontologyIDs, subgraph.Temporal)
	if err != nil {
		return fmt.Errorf("loading type payloads: %w", err)
	}

	for _, entityType := range entityTypes {
		subgraph.InsertEntityType(entityType)
	}

	return nil
}

// typeTargetIDs extracts the distinct ontology IDs from a batch of
// is-of-type edges.
func typeTargetIDs(edges []store.IsOfTypeEdge) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(edges))
	ids := make([]uuid.UUID, 0, len(edges))

	for _, edge := range edges {
		if _, ok := seen[edge.OntologyID]; ok {
			continue
		}

		seen[edge.OntologyID] = struct{}{}
		ids = append(ids, edge.OntologyID)
	}

	return ids
}
