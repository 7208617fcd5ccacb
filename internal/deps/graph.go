// Package deps maintains the dependency relation between tasks: which
// tasks a task requires before it can leave blocked, and which tasks
// are waiting on it.
package deps

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/nhle/task-tracker/internal/model"
	"github.com/nhle/task-tracker/internal/store"
)

// ErrCycle is returned when adding an edge would make a task's
// completion unreachable.
var ErrCycle = errors.New("dependency cycle")

// Graph provides accessor and mutation operations over the task
// dependency relation. The canonical edge direction is
// task -> prerequisite: the prerequisite must complete first.
type Graph struct {
	store store.Store

	// rejectCycles controls whether a cycle-closing edge fails the
	// operation or is accepted with a logged warning.
	rejectCycles bool
}

// NewGraph creates a Graph over the given store.
func NewGraph(st store.Store, rejectCycles bool) *Graph {
	return &Graph{store: st, rejectCycles: rejectCycles}
}

// Prerequisites returns the tasks that must complete before the given
// task can leave blocked. With activeOnly set, tombstoned edges and
// tombstoned endpoint tasks are excluded.
func (g *Graph) Prerequisites(ctx context.Context, taskID string, activeOnly bool) ([]model.Task, error) {
	return g.store.Prerequisites(ctx, taskID, activeOnly)
}

// Dependents returns the tasks waiting on the given task.
func (g *Graph) Dependents(ctx context.Context, taskID string, activeOnly bool) ([]model.Task, error) {
	return g.store.Dependents(ctx, taskID, activeOnly)
}

// AddDependency records that taskID depends on prereqID. The
// prerequisite must resolve to a live task; duplicate edges are
// idempotent. Subject to the cycle policy.
func (g *Graph) AddDependency(ctx context.Context, taskID, prereqID string) error {
	if _, err := g.store.GetTask(ctx, prereqID); err != nil {
		return fmt.Errorf("resolving prerequisite %s: %w", prereqID, err)
	}

	if err := g.guardCycle(ctx, taskID, prereqID); err != nil {
		return err
	}

	return g.store.InsertDependencyEdge(ctx, taskID, prereqID)
}

// ReplaceDependencies reconciles the task's prerequisite set against
// prereqIDs: missing edges are added, edges outside the new set are
// hard-removed. Ids that do not resolve to a live task are skipped.
// Calling it twice with the same set is a no-op the second time.
func (g *Graph) ReplaceDependencies(ctx context.Context, taskID string, prereqIDs []string) error {
	current, err := g.store.PrerequisiteIDs(ctx, taskID)
	if err != nil {
		return err
	}

	want := make(map[string]bool, len(prereqIDs))
	for _, id := range prereqIDs {
		want[id] = true
	}
	have := make(map[string]bool, len(current))
	for _, id := range current {
		have[id] = true
	}

	// Remove edges not in the new set. Hard removal: reconciliation
	// destroys the relation rather than tombstoning it.
	for _, id := range current {
		if !want[id] {
			if err := g.store.DeleteDependencyEdge(ctx, taskID, id); err != nil {
				return err
			}
		}
	}

	// Add missing edges.
	for _, id := range prereqIDs {
		if have[id] {
			continue
		}
		if err := g.AddDependency(ctx, taskID, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return err
		}
	}

	return nil
}

// SetEdgesActive toggles the tombstone on every edge whose prerequisite
// is prereqID, excluding or including it in dependents' blocking
// computation without destroying history.
func (g *Graph) SetEdgesActive(ctx context.Context, prereqID string, active bool) error {
	return g.store.SetEdgesActiveByPrerequisite(ctx, prereqID, active)
}

// HasIncompletePrerequisite reports whether any active edge of the task
// points at a prerequisite whose status is not completed.
func (g *Graph) HasIncompletePrerequisite(ctx context.Context, taskID string) (bool, error) {
	n, err := g.store.CountIncompletePrerequisites(ctx, taskID)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// guardCycle applies the cycle policy to a candidate edge.
func (g *Graph) guardCycle(ctx context.Context, taskID, prereqID string) error {
	cycle, err := g.wouldCreateCycle(ctx, taskID, prereqID)
	if err != nil {
		return err
	}
	if cycle == nil {
		return nil
	}
	if g.rejectCycles {
		return fmt.Errorf("%w: %v", ErrCycle, cycle)
	}
	log.Printf("warning: accepting dependency %s -> %s despite cycle %v", taskID, prereqID, cycle)
	return nil
}

// wouldCreateCycle runs cycle detection over the live edge set plus the
// candidate edge. It returns the cycle path if one exists, or nil if the
// graph stays acyclic. Uses DFS with coloring: white (unvisited), gray
// (in progress), black (done).
func (g *Graph) wouldCreateCycle(ctx context.Context, taskID, prereqID string) ([]string, error) {
	edges, err := g.store.ListDependencyEdges(ctx)
	if err != nil {
		return nil, err
	}

	adj := make(map[string][]string)
	edgeSet := make(map[[2]string]bool)
	addEdge := func(from, to string) {
		key := [2]string{from, to}
		if edgeSet[key] {
			return
		}
		edgeSet[key] = true
		adj[from] = append(adj[from], to)
	}
	for _, e := range edges {
		addEdge(e.TaskID, e.PrerequisiteID)
	}
	addEdge(taskID, prereqID)

	// Sort adjacency lists for deterministic detection.
	for k := range adj {
		sort.Strings(adj[k])
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make(map[string]int)
	parent := make(map[string]string)

	var dfs func(node string) []string
	dfs = func(node string) []string {
		color[node] = gray
		for _, next := range adj[node] {
			if color[next] == gray {
				cycle := []string{next, node}
				cur := node
				for cur != next {
					cur = parent[cur]
					cycle = append(cycle, cur)
				}
				for i, j := 0, len(cycle)-1; i < j; i, j = i+1, j-1 {
					cycle[i], cycle[j] = cycle[j], cycle[i]
				}
				return cycle
			}
			if color[next] == white {
				parent[next] = node
				if cycle := dfs(next); cycle != nil {
					return cycle
				}
			}
		}
		color[node] = black
		return nil
	}

	// Only paths reachable from the candidate edge can close a new cycle.
	if cycle := dfs(taskID); cycle != nil {
		return cycle, nil
	}
	return nil, nil
}
