package layout

import "fmt"

// ValidationSeverity indicates whether a validation finding blocks
// tessellation or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks tessellation
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	NodeID   NodeID             // which node has the problem (zero if layout-level)
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
	Err      error              // underlying sentinel, if any
}

func (e ValidationError) Error() string {
	if e.NodeID.IsZero() {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] node %s: %s", e.Severity, e.NodeID.Short(), e.Message)
}

func (e ValidationError) Unwrap() error {
	return e.Err
}

// ValidationWarning describes a non-blocking advisory finding.
type ValidationWarning struct {
	NodeID  NodeID
	Message string
}

// ValidationResult bundles errors (blocking) and warnings (advisory) from
// both validation tiers.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// OK reports whether no blocking error was found.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Validate runs the structural checks on the layout and returns every
// finding. It never mutates the layout.
func Validate(l *Layout) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateDAG(l)...)
	errs = append(errs, validateReferences(l)...)
	errs = append(errs, validateNames(l)...)
	errs = append(errs, validateRoots(l)...)
	errs = append(errs, validateKinds(l)...)
	return errs
}

// ValidateAll runs the structural and geometric tiers and separates
// errors from warnings.
func ValidateAll(l *Layout) ValidationResult {
	var result ValidationResult
	for _, e := range Validate(l) {
		if e.Severity == SeverityWarning {
			result.Warnings = append(result.Warnings, ValidationWarning{
				NodeID:  e.NodeID,
				Message: e.Message,
			})
		} else {
			result.Errors = append(result.Errors, e)
		}
	}

	geomErrs, geomWarnings := validateGeometry(l)
	result.Errors = append(result.Errors, geomErrs...)
	result.Warnings = append(result.Warnings, geomWarnings...)
	return result
}

// validateDAG checks for cycles using DFS with 3-color marking.
func validateDAG(l *Layout) []ValidationError {
	const (
		white = iota
		gray
		black
	)

	color := make(map[NodeID]int)
	var errs []ValidationError

	var visit func(id NodeID) bool // true if a cycle was found
	visit = func(id NodeID) bool {
		switch color[id] {
		case black:
			return false
		case gray:
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("cycle detected: node %s is part of a cycle", id.Short()),
				Severity: SeverityError,
			})
			return true
		}

		color[id] = gray
		node, ok := l.Nodes[id]
		if !ok {
			// dangling, reported by validateReferences
			color[id] = black
			return false
		}
		for _, childID := range node.Children {
			if visit(childID) {
				return true
			}
		}
		color[id] = black
		return false
	}

	for id := range l.Nodes {
		if color[id] == white && visit(id) {
			break
		}
	}
	return errs
}

// validateReferences checks that every child ID points to an existing node.
func validateReferences(l *Layout) []ValidationError {
	var errs []ValidationError
	for _, node := range l.Nodes {
		for _, childID := range node.Children {
			if _, ok := l.Nodes[childID]; !ok {
				errs = append(errs, ValidationError{
					NodeID:   node.ID,
					Message:  fmt.Sprintf("child reference %s does not exist", childID.Short()),
					Severity: SeverityError,
				})
			}
		}
	}
	return errs
}

// validateNames checks that the name index is injective, points at
// existing nodes and that shapes and groups are named.
func validateNames(l *Layout) []ValidationError {
	var errs []ValidationError

	for name, id := range l.NameIndex {
		if _, ok := l.Nodes[id]; !ok {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("name index entry %q references non-existent node %s", name, id.Short()),
				Severity: SeverityError,
			})
		}
	}

	byName := make(map[string]int)
	for _, node := range l.Nodes {
		if node.Name != "" {
			byName[node.Name]++
			continue
		}
		if node.Kind != NodeTransform {
			errs = append(errs, ValidationError{
				NodeID:   node.ID,
				Message:  fmt.Sprintf("%s node has an empty name", node.Kind),
				Severity: SeverityError,
			})
		}
	}
	for name, n := range byName {
		if n > 1 {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("duplicate name %q assigned to %d nodes", name, n),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

// validateRoots checks that every root exists and warns about nodes that
// no root reaches.
func validateRoots(l *Layout) []ValidationError {
	var errs []ValidationError

	for _, rid := range l.Roots {
		if _, ok := l.Nodes[rid]; !ok {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("root reference %s does not exist", rid.Short()),
				Severity: SeverityError,
			})
		}
	}
	// Without roots every shape is previewed on its own.
	if len(l.Nodes) == 0 || len(l.Roots) == 0 {
		return errs
	}

	reachable := make(map[NodeID]bool)
	queue := make([]NodeID, 0, len(l.Roots))
	for _, rid := range l.Roots {
		if _, ok := l.Nodes[rid]; ok && !reachable[rid] {
			reachable[rid] = true
			queue = append(queue, rid)
		}
	}
	for len(queue) > 0 {
		node := l.Nodes[queue[0]]
		queue = queue[1:]
		if node == nil {
			continue
		}
		for _, childID := range node.Children {
			if !reachable[childID] {
				reachable[childID] = true
				queue = append(queue, childID)
			}
		}
	}

	for id, node := range l.Nodes {
		if !reachable[id] {
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("node %q is not reachable from any root (orphan)", node.Label()),
				Severity: SeverityWarning,
			})
		}
	}
	return errs
}

// validateKinds checks that each node carries the payload of its kind and
// the number of children that kind allows.
func validateKinds(l *Layout) []ValidationError {
	var errs []ValidationError
	report := func(n *Node, format string, args ...any) {
		errs = append(errs, ValidationError{
			NodeID:   n.ID,
			Message:  fmt.Sprintf(format, args...),
			Severity: SeverityError,
		})
	}

	for _, node := range l.Nodes {
		switch node.Kind {
		case NodeShape:
			if _, ok := node.Data.(ShapeData); !ok {
				report(node, "shape node carries %T", node.Data)
			}
			if len(node.Children) != 0 {
				report(node, "shape node has %d children, want none", len(node.Children))
			}
		case NodeTransform:
			if _, ok := node.Data.(TransformData); !ok {
				report(node, "transform node carries %T", node.Data)
			}
			if len(node.Children) != 1 {
				report(node, "transform node has %d children, want exactly one", len(node.Children))
			}
		case NodeGroup:
			if _, ok := node.Data.(GroupData); !ok {
				report(node, "group node carries %T", node.Data)
			}
		default:
			report(node, "unknown node kind %d", int(node.Kind))
		}
	}
	return errs
}
