package flowgraph

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapflow/internal/pathmodel"
	"github.com/leapstack-labs/leapflow/pkg/core"
)

// Builder turns a record table into a Graph.
type Builder interface {
	Build(table *core.Table) (*Graph, error)
}

type builder struct {
	policy pathmodel.NullHandling
	logger *slog.Logger
}

// NewBuilder returns a Builder that resolves paths with the given policy.
// A nil logger discards output.
func NewBuilder(policy pathmodel.NullHandling, logger *slog.Logger) Builder {
	if policy == "" {
		policy = pathmodel.GroupUnknown
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &builder{policy: policy, logger: logger}
}

// Build constructs the graph. Tables carrying Aggregates are routed through
// FromAggregates. The returned graph is complete; on error nothing is returned.
func (b *builder) Build(table *core.Table) (*Graph, error) {
	if table == nil {
		return nil, &core.ConfigurationError{Field: "table", Reason: "no record table"}
	}
	if table.Aggregates != nil {
		return FromAggregates(table, b.policy)
	}

	g, err := prepare(table, b.policy)
	if err != nil {
		return nil, err
	}

	// Node pass: step-major so nodes appear column by column.
	for si := range g.steps {
		for ri, path := range g.paths {
			if si >= len(path) {
				continue
			}
			g.node(NodeKey{Step: si, Value: path[si]}).Members.Add(ri)
		}
	}

	// Link pass: record-major.
	for ri, path := range g.paths {
		amount := g.records[ri].Amount
		for si := 0; si+1 < len(path); si++ {
			l := g.link(LinkKey{
				Source: NodeKey{Step: si, Value: path[si]},
				Target: NodeKey{Step: si + 1, Value: path[si+1]},
			})
			l.Members.Add(ri)
			l.Count++
			l.Amount += amount
		}
	}

	b.logger.Debug("graph built",
		slog.Int("records", len(g.records)),
		slog.Int("steps", len(g.steps)),
		slog.Int("nodes", len(g.nodes)),
		slog.Int("links", len(g.links)),
		slog.String("null_handling", string(b.policy)))

	return g, nil
}

// prepare validates the table and resolves every record's path.
func prepare(table *core.Table, policy pathmodel.NullHandling) (*Graph, error) {
	if len(table.Steps) < core.MinSteps {
		return nil, &core.ConfigurationError{
			Field:  "steps",
			Reason: fmt.Sprintf("at least %d steps are required, got %d", core.MinSteps, len(table.Steps)),
		}
	}

	g := newGraph(table.Records, table.Steps, policy)
	for i, rec := range table.Records {
		if rec.ID == "" {
			return nil, &core.ConfigurationError{
				Field:  "records",
				Reason: fmt.Sprintf("record %d has no id", i),
			}
		}
		if prev, dup := g.recordIdx[rec.ID]; dup {
			return nil, &core.ConfigurationError{
				Field:  "records",
				Reason: fmt.Sprintf("record id %q appears at %d and %d", rec.ID, prev, i),
			}
		}
		g.recordIdx[rec.ID] = i
		g.paths[i] = pathmodel.Resolve(rec, table.Steps, policy)
	}
	return g, nil
}

func aggregateKey(n core.AggregateNode) NodeKey {
	if n.Unknown {
		return NodeKey{Step: n.Step, Value: pathmodel.Unknown}
	}
	return NodeKey{Step: n.Step, Value: pathmodel.Known(n.Value)}
}

// FromAggregates declares the nodes and links a precomputing source returned
// and rebuilds their membership sets from the records. Provided counts and
// amounts win when positive; otherwise they are derived from membership.
func FromAggregates(table *core.Table, policy pathmodel.NullHandling) (*Graph, error) {
	if table.Aggregates == nil {
		return nil, &core.ConfigurationError{Field: "aggregates", Reason: "table carries no aggregates"}
	}
	g, err := prepare(table, policy)
	if err != nil {
		return nil, err
	}

	for _, an := range table.Aggregates.Nodes {
		key := aggregateKey(an)
		if key.Step < 0 || key.Step >= len(g.steps) {
			return nil, &core.ConfigurationError{
				Field:  "aggregates.nodes",
				Reason: fmt.Sprintf("node %s is outside the %d declared steps", key.ID(), len(g.steps)),
			}
		}
		g.node(key)
	}

	declared := make(map[LinkKey]core.AggregateLink, len(table.Aggregates.Links))
	for _, al := range table.Aggregates.Links {
		key := LinkKey{Source: aggregateKey(al.Source), Target: aggregateKey(al.Target)}
		if _, ok := g.nodeByKey[key.Source]; !ok {
			return nil, &core.ConfigurationError{Field: "aggregates.links", Reason: fmt.Sprintf("link %s references undeclared node %s", key.ID(), key.Source.ID())}
		}
		if _, ok := g.nodeByKey[key.Target]; !ok {
			return nil, &core.ConfigurationError{Field: "aggregates.links", Reason: fmt.Sprintf("link %s references undeclared node %s", key.ID(), key.Target.ID())}
		}
		if key.Target.Step != key.Source.Step+1 {
			return nil, &core.ConfigurationError{Field: "aggregates.links", Reason: fmt.Sprintf("link %s does not join adjacent steps", key.ID())}
		}
		g.link(key)
		declared[key] = al
	}

	for ri, path := range g.paths {
		for si, v := range path {
			if n, ok := g.nodeByKey[NodeKey{Step: si, Value: v}]; ok {
				n.Members.Add(ri)
			}
		}
		for si := 0; si+1 < len(path); si++ {
			key := LinkKey{
				Source: NodeKey{Step: si, Value: path[si]},
				Target: NodeKey{Step: si + 1, Value: path[si+1]},
			}
			if l, ok := g.linkByKey[key]; ok {
				l.Members.Add(ri)
			}
		}
	}

	for _, l := range g.links {
		al := declared[l.Key]
		l.Count = al.Count
		if l.Count <= 0 {
			l.Count = l.Members.Len()
		}
		l.Amount = al.Amount
		if l.Amount <= 0 {
			l.Amount = 0
			for _, ri := range l.Members.Indices() {
				l.Amount += g.records[ri].Amount
			}
		}
	}
	return g, nil
}
