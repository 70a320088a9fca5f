package workflow

import (
	"fmt"
	"sort"

	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/models"
)

// graph is the edge index the runner walks. Built once per run; read-only
// afterwards.
type graph struct {
	nodes    map[string]*models.Node
	outgoing map[string][]*models.Edge
	incoming map[string][]*models.Edge

	// loopBody marks nodes reachable through a loop's body handle. They are
	// excluded from the main traversal and executed per iteration instead.
	loopBody map[string]string // node ID -> owning loop node ID
}

// BodyHandle is the loop edge handle entering the per-item subgraph;
// DoneHandle leaves the loop after all iterations.
const (
	BodyHandle = "body"
	DoneHandle = "done"
)

func buildGraph(workflow *models.Workflow) (*graph, error) {
	g := &graph{
		nodes:    make(map[string]*models.Node, len(workflow.Nodes)),
		outgoing: make(map[string][]*models.Edge),
		incoming: make(map[string][]*models.Edge),
		loopBody: make(map[string]string),
	}

	for _, node := range workflow.Nodes {
		if _, exists := g.nodes[node.ID]; exists {
			return nil, fmt.Errorf("duplicate node id %q", node.ID)
		}

		g.nodes[node.ID] = node
	}

	for _, edge := range workflow.Edges {
		if _, ok := g.nodes[edge.Source]; !ok {
			return nil, fmt.Errorf("edge %s references unknown source node %q", edge.ID, edge.Source)
		}

		if _, ok := g.nodes[edge.Target]; !ok {
			return nil, fmt.Errorf("edge %s references unknown target node %q", edge.ID, edge.Target)
		}

		g.outgoing[edge.Source] = append(g.outgoing[edge.Source], edge)
		g.incoming[edge.Target] = append(g.incoming[edge.Target], edge)
	}

	if err := g.checkAcyclic(); err != nil {
		return nil, err
	}

	g.markLoopBodies()

	return g, nil
}

// checkAcyclic runs Kahn's algorithm over the whole edge set.
func (g *graph) checkAcyclic() error {
	indegree := make(map[string]int, len(g.nodes))
	for id := range g.nodes {
		indegree[id] = len(g.incoming[id])
	}

	queue := make([]string, 0, len(g.nodes))

	for id, degree := range indegree {
		if degree == 0 {
			queue = append(queue, id)
		}
	}

	visited := 0

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++

		for _, edge := range g.outgoing[id] {
			indegree[edge.Target]--
			if indegree[edge.Target] == 0 {
				queue = append(queue, edge.Target)
			}
		}
	}

	if visited != len(g.nodes) {
		return fmt.Errorf("workflow graph contains a cycle")
	}

	return nil
}

// markLoopBodies records every node reachable through a loop's body handle.
func (g *graph) markLoopBodies() {
	for id, node := range g.nodes {
		if node.Type != models.NodeTypeLoop {
			continue
		}

		for _, edge := range g.outgoing[id] {
			if edge.SourceHandle == BodyHandle {
				g.markBodyFrom(edge.Target, id)
			}
		}
	}
}

func (g *graph) markBodyFrom(nodeID, loopID string) {
	if _, done := g.loopBody[nodeID]; done {
		return
	}

	g.loopBody[nodeID] = loopID

	for _, edge := range g.outgoing[nodeID] {
		g.markBodyFrom(edge.Target, loopID)
	}
}

// bodyEntries returns the loop's body entry node IDs, sorted.
func (g *graph) bodyEntries(loopID string) []string {
	var entries []string

	for _, edge := range g.outgoing[loopID] {
		if edge.SourceHandle == BodyHandle {
			entries = append(entries, edge.Target)
		}
	}

	sort.Strings(entries)

	return entries
}

// edgeTaken reports whether an edge is followed given the branch its source
// produced. Loop body edges are never taken by the main traversal.
func edgeTaken(edge *models.Edge, sourceType, branch string) bool {
	if sourceType == models.NodeTypeLoop {
		return edge.SourceHandle != BodyHandle
	}

	if branch == "" {
		return true
	}

	return edge.SourceHandle == branch
}
