// Package fingerprint decides when a flow graph must be rebuilt.
//
// A fingerprint hashes everything that changes topology or thickness:
// record content, step names, the layout metric and the null-handling
// policy. Selection mode and trace parameters never enter it, so
// interaction alone never causes a rebuild.
package fingerprint

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"math"

	"github.com/leapstack-labs/leapflow/pkg/core"
)

// Fingerprint is a structural hash. The zero value means "no graph yet".
type Fingerprint string

// IsZero reports whether f is the zero fingerprint.
func (f Fingerprint) IsZero() bool { return f == "" }

// Short returns the first 12 hex characters for logs.
func (f Fingerprint) Short() string {
	if len(f) > 12 {
		return string(f[:12])
	}
	return string(f)
}

// Compute hashes a table together with the metric and policy.
func Compute(table *core.Table, metric core.MetricType, policy core.NullHandling) Fingerprint {
	h := sha256.New()
	if metric == "" {
		metric = core.MetricCount
	}
	if policy == "" {
		policy = core.GroupUnknown
	}
	writeString(h, string(metric))
	writeString(h, string(policy))

	if table == nil {
		writeInt(h, -1)
		return Fingerprint(hex.EncodeToString(h.Sum(nil)))
	}

	writeInt(h, len(table.Steps))
	for _, s := range table.Steps {
		writeString(h, s)
	}

	writeInt(h, len(table.Records))
	for _, rec := range table.Records {
		writeString(h, rec.ID)
		writeString(h, rec.Name)
		writeFloat(h, rec.Amount)
		for _, s := range table.Steps {
			v, ok := rec.Value(s)
			writeBool(h, ok)
			writeString(h, v)
		}
	}

	if agg := table.Aggregates; agg != nil {
		writeInt(h, len(agg.Nodes))
		for _, n := range agg.Nodes {
			writeNode(h, n)
		}
		writeInt(h, len(agg.Links))
		for _, l := range agg.Links {
			writeNode(h, l.Source)
			writeNode(h, l.Target)
			writeInt(h, l.Count)
			writeFloat(h, l.Amount)
		}
	} else {
		writeInt(h, -1)
	}

	return Fingerprint(hex.EncodeToString(h.Sum(nil)))
}

// ShouldRebuild reports whether the graph built for prev is stale for next.
func ShouldRebuild(prev, next Fingerprint) bool {
	return prev != next
}

func writeNode(h hash.Hash, n core.AggregateNode) {
	writeInt(h, n.Step)
	writeBool(h, n.Unknown)
	writeString(h, n.Value)
}

// Strings are length-prefixed so ("ab","c") and ("a","bc") differ.
func writeString(h hash.Hash, s string) {
	writeInt(h, len(s))
	h.Write([]byte(s))
}

func writeInt(h hash.Hash, n int) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(int64(n)))
	h.Write(buf[:])
}

func writeFloat(h hash.Hash, f float64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], math.Float64bits(f))
	h.Write(buf[:])
}

func writeBool(h hash.Hash, b bool) {
	if b {
		h.Write([]byte{1})
		return
	}
	h.Write([]byte{0})
}
