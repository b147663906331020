package layout

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/chazu/pinball/pkg/config"
)

// Layout is the top-level structure produced by evaluating a layout
// script. It is never mutated once handed to the tessellator; each
// evaluation produces a new layout.
type Layout struct {
	Nodes     map[NodeID]*Node  `json:"nodes"`
	Roots     []NodeID          `json:"roots"`
	NameIndex map[string]NodeID `json:"name_index"`
	Defaults  config.Config     `json:"defaults"`

	anon int
}

// New creates an empty layout using the given table constants as defaults.
func New(defaults config.Config) *Layout {
	return &Layout{
		Nodes:     make(map[NodeID]*Node),
		NameIndex: make(map[string]NodeID),
		Defaults:  defaults,
	}
}

// AddNode adds a node to the layout. It does not check for duplicates.
func (l *Layout) AddNode(n *Node) {
	l.Nodes[n.ID] = n
	if n.Name != "" {
		l.NameIndex[n.Name] = n.ID
	}
}

// AddRoot registers a node ID as a root of the layout.
func (l *Layout) AddRoot(id NodeID) {
	l.Roots = append(l.Roots, id)
}

// Get returns the node with the given ID, or nil.
func (l *Layout) Get(id NodeID) *Node {
	return l.Nodes[id]
}

// Lookup returns the node with the given name, or nil.
func (l *Layout) Lookup(name string) *Node {
	id, ok := l.NameIndex[name]
	if !ok {
		return nil
	}
	return l.Nodes[id]
}

// MustLookup returns the node with the given name, or panics.
func (l *Layout) MustLookup(name string) *Node {
	n := l.Lookup(name)
	if n == nil {
		panic(fmt.Sprintf("layout: no node named %q", name))
	}
	return n
}

// Children returns the child nodes of n that exist in the layout.
func (l *Layout) Children(n *Node) []*Node {
	children := make([]*Node, 0, len(n.Children))
	for _, cid := range n.Children {
		if c := l.Nodes[cid]; c != nil {
			children = append(children, c)
		}
	}
	return children
}

// Shapes returns all shape nodes ordered by label.
func (l *Layout) Shapes() []*Node {
	var out []*Node
	for _, n := range l.Nodes {
		if n.Kind == NodeShape {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Label() != out[j].Label() {
			return out[i].Label() < out[j].Label()
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// NodeCount returns the total number of nodes.
func (l *Layout) NodeCount() int {
	return len(l.Nodes)
}

// nextAnon returns a path suffix for nodes without a name. The counter is
// per layout so the same script always yields the same IDs.
func (l *Layout) nextAnon() string {
	l.anon++
	return fmt.Sprintf("_anon_%d", l.anon)
}

// AddShape adds a named shape node and returns its ID.
func (l *Layout) AddShape(name string, data ShapeData) NodeID {
	id := NewNodeID("shape/" + name)
	l.AddNode(&Node{ID: id, Kind: NodeShape, Name: name, Data: data})
	return id
}

// Place adds a transform node over child. The ID is derived from the
// child's name when it has one.
func (l *Layout) Place(child NodeID, translation mgl32.Vec3, rotation mgl32.Quat) NodeID {
	path := "place/" + l.nextAnon()
	if c := l.Get(child); c != nil && c.Name != "" {
		path = "place/" + c.Name
		if _, taken := l.Nodes[NewNodeID(path)]; taken {
			path += "/" + l.nextAnon()
		}
	}
	id := NewNodeID(path)
	l.AddNode(&Node{
		ID:       id,
		Kind:     NodeTransform,
		Children: []NodeID{child},
		Data:     TransformData{Translation: translation, Rotation: rotation},
	})
	return id
}

// AddGroup adds a named group node over children and returns its ID.
func (l *Layout) AddGroup(name string, children ...NodeID) NodeID {
	id := NewNodeID("group/" + name)
	l.AddNode(&Node{
		ID:       id,
		Kind:     NodeGroup,
		Name:     name,
		Children: children,
		Data:     GroupData{},
	})
	return id
}
