package store

import (
	"context"
	"fmt"
	"slices"
	"strings"

	hvmerrors "github.com/systmms/helm-values-manager/internal/errors"
)

// Generate assembles the nested values structure for one deployment. Every
// path with a value is resolved through its backend and written at the
// position its dot-path names. Missing required values and leaf/interior
// conflicts are collected together; output is produced only when the check
// list comes back empty. Backend failures during resolution abort the run
// with a typed error instead of a finding.
func (s *Store) Generate(ctx context.Context, deployment string) (map[string]any, error) {
	if _, ok := s.deployments[deployment]; !ok {
		return nil, &hvmerrors.DeploymentError{Deployment: deployment, Err: hvmerrors.ErrDeploymentNotFound}
	}

	// Sorted order makes conflict detection independent of the order paths
	// were added in: a prefix path always lands before its extensions.
	paths := make([]string, len(s.pathOrder))
	copy(paths, s.pathOrder)
	slices.Sort(paths)

	var findings hvmerrors.Findings
	root := newTreeNode()

	for _, path := range paths {
		entry := s.paths[path]
		v := entry.value(deployment)
		if v == nil {
			if entry.metadata.Required {
				findings = append(findings, hvmerrors.Finding{
					Code:       CodeMissingRequiredValue,
					Path:       path,
					Deployment: deployment,
					Message:    "required path has no value for this deployment",
				})
			}
			continue
		}

		if err := s.ensureBound(v, path, deployment); err != nil {
			return nil, err
		}
		resolved, err := v.Get(ctx)
		if err != nil {
			return nil, &hvmerrors.ValueError{Path: path, Deployment: deployment, Err: err}
		}

		if conflict := root.insert(path, resolved); conflict != nil {
			findings = append(findings, *conflict)
		}
	}

	if len(findings) > 0 {
		return nil, findings
	}

	out := root.materialize()
	s.logger.Debug("generated %d top-level key(s) for deployment %s", len(out), deployment)
	return out, nil
}

// treeNode is one position in the generated structure. A node is either a
// leaf carrying a resolved value or an interior node with children; the two
// roles never mix, and insert reports the collision as a PathConflict.
type treeNode struct {
	children map[string]*treeNode
	value    any
	leaf     bool
	// definedBy names the path that made this node a leaf, for conflict
	// messages.
	definedBy string
}

func newTreeNode() *treeNode {
	return &treeNode{children: make(map[string]*treeNode)}
}

// insert places value at the leaf named by path. It returns a finding when
// the path crosses an existing leaf or terminates on an interior node, and
// leaves the tree untouched in that case.
func (n *treeNode) insert(path string, value any) *hvmerrors.Finding {
	segments := strings.Split(path, ".")
	node := n
	for _, seg := range segments[:len(segments)-1] {
		child, ok := node.children[seg]
		if !ok {
			child = newTreeNode()
			node.children[seg] = child
		}
		if child.leaf {
			return &hvmerrors.Finding{
				Code:    CodePathConflict,
				Path:    path,
				Message: fmt.Sprintf("conflicts with value defined at %q", child.definedBy),
			}
		}
		node = child
	}

	last := segments[len(segments)-1]
	if child, ok := node.children[last]; ok {
		if child.leaf {
			return &hvmerrors.Finding{
				Code:    CodePathConflict,
				Path:    path,
				Message: fmt.Sprintf("value already defined at %q", child.definedBy),
			}
		}
		return &hvmerrors.Finding{
			Code:    CodePathConflict,
			Path:    path,
			Message: "conflicts with nested values under this path",
		}
	}
	node.children[last] = &treeNode{value: value, leaf: true, definedBy: path}
	return nil
}

// materialize converts the tree into the plain nested map emitted as YAML.
func (n *treeNode) materialize() map[string]any {
	out := make(map[string]any, len(n.children))
	for name, child := range n.children {
		if child.leaf {
			out[name] = child.value
			continue
		}
		out[name] = child.materialize()
	}
	return out
}
