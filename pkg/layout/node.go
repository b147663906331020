// Package layout defines the table layout graph: an immutable DAG of
// shapes, placements and groups describing what sits where on a pinball
// table. Graphs are produced by the layout DSL or by Standard and consumed
// by the tessellator.
package layout

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// NodeID is a content-addressed identifier: the SHA-256 of the node's
// path in the layout, such as "shape/left-flipper".
type NodeID [sha256.Size]byte

// ZeroID is the unset identifier.
var ZeroID NodeID

// NewNodeID derives the identifier of a node path.
func NewNodeID(path string) NodeID {
	return NodeID(sha256.Sum256([]byte(path)))
}

func (id NodeID) String() string {
	return hex.EncodeToString(id[:])
}

// Short returns the first eight hex digits, for messages.
func (id NodeID) Short() string {
	return id.String()[:8]
}

// IsZero reports whether id is unset.
func (id NodeID) IsZero() bool {
	return id == ZeroID
}

// MarshalText encodes the identifier as hex.
func (id NodeID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText decodes a hex identifier.
func (id *NodeID) UnmarshalText(text []byte) error {
	if hex.DecodedLen(len(text)) != len(id) {
		return fmt.Errorf("layout: node id %q has wrong length", text)
	}
	_, err := hex.Decode(id[:], text)
	return err
}

// NodeKind enumerates the types of nodes in the layout graph.
type NodeKind int

const (
	NodeShape     NodeKind = iota // table, ellipse or flipper
	NodeTransform                 // placement of one child (place)
	NodeGroup                     // logical grouping (assembly)
)

func (k NodeKind) String() string {
	switch k {
	case NodeShape:
		return "shape"
	case NodeTransform:
		return "transform"
	case NodeGroup:
		return "group"
	default:
		return "unknown"
	}
}

// Node is the fundamental element of the layout graph.
type Node struct {
	ID       NodeID   `json:"id"`
	Kind     NodeKind `json:"kind"`
	Name     string   `json:"name,omitempty"`
	Children []NodeID `json:"children,omitempty"`
	Data     NodeData `json:"data"`
}

// Label returns the node name, or its short ID when it has none.
func (n *Node) Label() string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID.Short()
}

// NodeData is the interface for kind-specific node payloads.
type NodeData interface {
	nodeData() // marker method restricting implementations to this package
}
