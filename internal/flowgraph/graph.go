// Package flowgraph builds the aggregated node/link graph of a record table.
// Nodes bucket records sharing a (step, value) pair; links bucket records
// moving between two adjacent step values. Both carry membership sets so
// any selection can be projected back onto the diagram.
package flowgraph

import (
	"strconv"

	"github.com/leapstack-labs/leapflow/internal/pathmodel"
	"github.com/leapstack-labs/leapflow/pkg/core"
)

// NodeKey identifies a node by step position and value.
type NodeKey struct {
	Step  int
	Value pathmodel.Value
}

// ID returns the string identity "<step>::<text>", or "<step>:?" for the
// missing-value node.
func (k NodeKey) ID() string {
	if k.Value.Unknown {
		return strconv.Itoa(k.Step) + ":?"
	}
	return strconv.Itoa(k.Step) + "::" + k.Value.Text
}

// String implements fmt.Stringer.
func (k NodeKey) String() string { return k.ID() }

// LinkKey identifies a link by its endpoints.
type LinkKey struct {
	Source NodeKey
	Target NodeKey
}

// ID returns "<sourceID>→<targetID>".
func (k LinkKey) ID() string {
	return k.Source.ID() + "→" + k.Target.ID()
}

// String implements fmt.Stringer.
func (k LinkKey) String() string { return k.ID() }

// Node is an aggregated bucket of records at one step.
type Node struct {
	Key     NodeKey
	ID      string
	Label   string
	Step    int
	Members *RecordSet
}

// Link is an aggregated transition between adjacent step values.
type Link struct {
	Key     LinkKey
	ID      string
	Members *RecordSet
	Count   int
	Amount  float64
}

// Graph is the immutable result of a build. Nodes and links keep the order
// in which they were first encountered.
type Graph struct {
	records []core.Record
	steps   []string
	policy  pathmodel.NullHandling

	nodes     []*Node
	links     []*Link
	nodeByKey map[NodeKey]*Node
	linkByKey map[LinkKey]*Link
	nodeByID  map[string]*Node
	linkByID  map[string]*Link
	recordIdx map[string]int
	paths     [][]pathmodel.Value
	incoming  map[NodeKey][]*Link
	outgoing  map[NodeKey][]*Link
}

func newGraph(records []core.Record, steps []string, policy pathmodel.NullHandling) *Graph {
	return &Graph{
		records:   records,
		steps:     steps,
		policy:    policy,
		nodeByKey: make(map[NodeKey]*Node),
		linkByKey: make(map[LinkKey]*Link),
		nodeByID:  make(map[string]*Node),
		linkByID:  make(map[string]*Link),
		recordIdx: make(map[string]int, len(records)),
		paths:     make([][]pathmodel.Value, len(records)),
		incoming:  make(map[NodeKey][]*Link),
		outgoing:  make(map[NodeKey][]*Link),
	}
}

// node returns the node for key, creating it on first sight.
func (g *Graph) node(key NodeKey) *Node {
	if n, ok := g.nodeByKey[key]; ok {
		return n
	}
	n := &Node{
		Key:     key,
		ID:      key.ID(),
		Label:   key.Value.Label(),
		Step:    key.Step,
		Members: &RecordSet{},
	}
	g.nodes = append(g.nodes, n)
	g.nodeByKey[key] = n
	g.nodeByID[n.ID] = n
	return n
}

// link returns the link for key, creating it on first sight.
func (g *Graph) link(key LinkKey) *Link {
	if l, ok := g.linkByKey[key]; ok {
		return l
	}
	l := &Link{
		Key:     key,
		ID:      key.ID(),
		Members: &RecordSet{},
	}
	g.links = append(g.links, l)
	g.linkByKey[key] = l
	g.linkByID[l.ID] = l
	g.outgoing[key.Source] = append(g.outgoing[key.Source], l)
	g.incoming[key.Target] = append(g.incoming[key.Target], l)
	return l
}

// Nodes returns all nodes in first-encounter order.
func (g *Graph) Nodes() []*Node {
	if g == nil {
		return nil
	}
	return g.nodes
}

// Links returns all links in first-encounter order.
func (g *Graph) Links() []*Link {
	if g == nil {
		return nil
	}
	return g.links
}

// Node returns the node for key.
func (g *Graph) Node(key NodeKey) (*Node, bool) {
	if g == nil {
		return nil, false
	}
	n, ok := g.nodeByKey[key]
	return n, ok
}

// Link returns the link for key.
func (g *Graph) Link(key LinkKey) (*Link, bool) {
	if g == nil {
		return nil, false
	}
	l, ok := g.linkByKey[key]
	return l, ok
}

// NodeByID returns the node with the given string identity.
func (g *Graph) NodeByID(id string) (*Node, bool) {
	if g == nil {
		return nil, false
	}
	n, ok := g.nodeByID[id]
	return n, ok
}

// LinkByID returns the link with the given string identity.
func (g *Graph) LinkByID(id string) (*Link, bool) {
	if g == nil {
		return nil, false
	}
	l, ok := g.linkByID[id]
	return l, ok
}

// Steps returns the step column names.
func (g *Graph) Steps() []string {
	if g == nil {
		return nil
	}
	return g.steps
}

// StepCount returns the number of steps.
func (g *Graph) StepCount() int {
	return len(g.Steps())
}

// Policy returns the null handling the graph was built with.
func (g *Graph) Policy() pathmodel.NullHandling {
	if g == nil {
		return pathmodel.GroupUnknown
	}
	return g.policy
}

// Records returns the record table the membership sets index into.
func (g *Graph) Records() []core.Record {
	if g == nil {
		return nil
	}
	return g.records
}

// RecordCount returns the number of records.
func (g *Graph) RecordCount() int {
	return len(g.Records())
}

// RecordIndex returns the index of the record with the given ID.
func (g *Graph) RecordIndex(id string) (int, bool) {
	if g == nil {
		return 0, false
	}
	i, ok := g.recordIdx[id]
	return i, ok
}

// Path returns the resolved per-step values of a record.
// Under STOP the path may be shorter than the step count.
func (g *Graph) Path(recordIndex int) []pathmodel.Value {
	if g == nil || recordIndex < 0 || recordIndex >= len(g.paths) {
		return nil
	}
	return g.paths[recordIndex]
}

// NodesAt returns the nodes of one step in first-encounter order.
func (g *Graph) NodesAt(step int) []*Node {
	var out []*Node
	for _, n := range g.Nodes() {
		if n.Step == step {
			out = append(out, n)
		}
	}
	return out
}

// Incoming returns the links ending at the node.
func (g *Graph) Incoming(key NodeKey) []*Link {
	if g == nil {
		return nil
	}
	return g.incoming[key]
}

// Outgoing returns the links starting at the node.
func (g *Graph) Outgoing(key NodeKey) []*Link {
	if g == nil {
		return nil
	}
	return g.outgoing[key]
}

// IsEmpty reports whether the graph has no nodes.
func (g *Graph) IsEmpty() bool {
	return len(g.Nodes()) == 0
}
