package graph

import "fmt"

// ValidationSeverity indicates whether a validation finding blocks evaluation
// or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks evaluation
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
	NodeID   NodeID             // which node has the problem (NoNode if graph-level)
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if !e.NodeID.IsValid() {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] node %s: %s", e.Severity, e.NodeID, e.Message)
}

// ValidationWarning describes a non-blocking advisory finding.
type ValidationWarning struct {
	NodeID  NodeID
	Message string
}

func (w ValidationWarning) String() string {
	if !w.NodeID.IsValid() {
		return w.Message
	}
	return fmt.Sprintf("node %s: %s", w.NodeID, w.Message)
}

// ValidationResult bundles errors (blocking) and warnings (advisory)
// from all validation tiers.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// OK reports whether no blocking error was found.
func (r ValidationResult) OK() bool { return len(r.Errors) == 0 }

// Validate runs the Tier 1 structural checks on the graph and returns the
// findings. An empty slice means the graph is valid. This function is
// read-only and never mutates the graph.
func Validate(g *Graph) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateOrder(g)...)
	errs = append(errs, validateData(g)...)
	errs = append(errs, validateNames(g)...)
	errs = append(errs, validateRoots(g)...)
	return errs
}

// ValidateAll runs the structural and geometric tiers and returns a
// ValidationResult with separated errors and warnings.
func ValidateAll(g *Graph) ValidationResult {
	// Tier 1: structural validation.
	tier1 := Validate(g)

	var result ValidationResult
	for _, e := range tier1 {
		if e.Severity == SeverityWarning {
			result.Warnings = append(result.Warnings, ValidationWarning{
				NodeID:  e.NodeID,
				Message: e.Message,
			})
		} else {
			result.Errors = append(result.Errors, e)
		}
	}

	// Tier 2 builds domains, which needs a sound structure.
	if len(result.Errors) > 0 {
		return result
	}

	// Tier 2: geometric validation.
	tier2Errs, tier2Warnings := validateGeometry(g)
	result.Errors = append(result.Errors, tier2Errs...)
	result.Warnings = append(result.Warnings, tier2Warnings...)

	return result
}

// validateOrder checks that every node sits at its own index and only
// references nodes stored before it. Together these rule out cycles and
// dangling references.
func validateOrder(g *Graph) []ValidationError {
	var errs []ValidationError

	for i, node := range g.Nodes {
		id := NodeID(i)
		if node == nil {
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  "nil node in arena",
				Severity: SeverityError,
			})
			continue
		}
		if node.ID != id {
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("node stored at %s claims ID %s", id, node.ID),
				Severity: SeverityError,
			})
		}
		for _, childID := range node.Children {
			switch {
			case childID < 0 || int(childID) >= len(g.Nodes):
				errs = append(errs, ValidationError{
					NodeID:   id,
					Message:  fmt.Sprintf("child reference %s does not exist", childID),
					Severity: SeverityError,
				})
			case childID >= id:
				errs = append(errs, ValidationError{
					NodeID:   id,
					Message:  fmt.Sprintf("child reference %s is not older than its parent", childID),
					Severity: SeverityError,
				})
			}
		}
	}

	return errs
}

// validateData checks that every node has a payload matching its kind and
// the number of children that payload takes.
func validateData(g *Graph) []ValidationError {
	var errs []ValidationError

	for _, node := range g.Nodes {
		if node == nil {
			continue
		}
		if node.Data == nil {
			errs = append(errs, ValidationError{
				NodeID:   node.ID,
				Message:  "node has no data",
				Severity: SeverityError,
			})
			continue
		}
		if k := node.Data.Kind(); k != node.Kind {
			errs = append(errs, ValidationError{
				NodeID:   node.ID,
				Message:  fmt.Sprintf("node kind %s does not match %T (%s)", node.Kind, node.Data, k),
				Severity: SeverityError,
			})
		}
		lo, hi := arity(node.Data)
		n := len(node.Children)
		if n < lo || (hi >= 0 && n > hi) {
			want := fmt.Sprintf("%d", lo)
			switch {
			case hi < 0:
				want = fmt.Sprintf("at least %d", lo)
			case hi != lo:
				want = fmt.Sprintf("%d to %d", lo, hi)
			}
			errs = append(errs, ValidationError{
				NodeID:   node.ID,
				Message:  fmt.Sprintf("%T takes %s children, got %d", node.Data, want, n),
				Severity: SeverityError,
			})
		}
	}

	return errs
}

// validateNames checks that the NameIndex is injective (no two nodes share the
// same name) and that every entry in NameIndex points to an existing node.
func validateNames(g *Graph) []ValidationError {
	var errs []ValidationError

	for name, id := range g.NameIndex {
		n := g.Get(id)
		if n == nil {
			errs = append(errs, ValidationError{
				NodeID:   NoNode,
				Message:  fmt.Sprintf("name index entry %q references non-existent node %s", name, id),
				Severity: SeverityError,
			})
			continue
		}
		if n.Name != name {
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("name index entry %q points at node named %q", name, n.Name),
				Severity: SeverityError,
			})
		}
	}

	nameToNodes := make(map[string][]NodeID)
	for _, node := range g.Nodes {
		if node != nil && node.Name != "" {
			nameToNodes[node.Name] = append(nameToNodes[node.Name], node.ID)
		}
	}
	for name, ids := range nameToNodes {
		if len(ids) > 1 {
			errs = append(errs, ValidationError{
				NodeID:   NoNode,
				Message:  fmt.Sprintf("duplicate name %q assigned to %d nodes", name, len(ids)),
				Severity: SeverityError,
			})
		}
	}

	return errs
}

// validateRoots checks that every root ID references an existing node and
// warns about orphan nodes (nodes unreachable from any root).
func validateRoots(g *Graph) []ValidationError {
	var errs []ValidationError

	for _, rid := range g.Roots {
		if g.Get(rid) == nil {
			errs = append(errs, ValidationError{
				NodeID:   NoNode,
				Message:  fmt.Sprintf("root reference %s does not exist", rid),
				Severity: SeverityError,
			})
		}
	}

	if len(g.Nodes) == 0 {
		return errs
	}
	if len(g.Roots) == 0 {
		return append(errs, ValidationError{
			NodeID:   NoNode,
			Message:  "graph has nodes but no roots; nothing will be meshed",
			Severity: SeverityWarning,
		})
	}

	// Children are always older than parents, so one backward sweep marks
	// everything reachable.
	reachable := make([]bool, len(g.Nodes))
	for _, rid := range g.Roots {
		if g.Get(rid) != nil {
			reachable[rid] = true
		}
	}
	for i := len(g.Nodes) - 1; i >= 0; i-- {
		if !reachable[i] || g.Nodes[i] == nil {
			continue
		}
		for _, c := range g.Nodes[i].Children {
			if g.Get(c) != nil {
				reachable[c] = true
			}
		}
	}

	for i, node := range g.Nodes {
		if reachable[i] || node == nil {
			continue
		}
		name := node.Name
		if name == "" {
			name = NodeID(i).String()
		}
		errs = append(errs, ValidationError{
			NodeID:   NodeID(i),
			Message:  fmt.Sprintf("node %q is not reachable from any root (orphan)", name),
			Severity: SeverityWarning,
		})
	}

	return errs
}
