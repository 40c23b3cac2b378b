// Package validator lints chapter content beyond what the document schema
// can express: cross-node navigation integrity and reachability.
package validator

import (
	"fmt"
	"sort"

	"github.com/parleyhq/parley/pkg/domain"
	"github.com/parleyhq/parley/pkg/expr"
)

// Issue is one problem found in a chapter. Warnings do not block loading;
// the engine degrades at runtime instead (a dangling edge completes the
// conversation with a logged warning).
type Issue struct {
	Severity string // "error" or "warning"
	NodeID   string
	Message  string
}

func (i Issue) String() string {
	if i.NodeID != "" {
		return fmt.Sprintf("%s: node %q: %s", i.Severity, i.NodeID, i.Message)
	}
	return fmt.Sprintf("%s: %s", i.Severity, i.Message)
}

const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Check inspects a chapter and returns every issue found, errors first,
// then warnings, each group in node order.
func Check(ch *domain.Chapter) []Issue {
	var errs, warns []Issue

	ids := make(map[string]int, len(ch.Nodes))
	for _, n := range ch.Nodes {
		ids[n.ID]++
	}
	for _, n := range ch.Nodes {
		if ids[n.ID] > 1 {
			errs = append(errs, Issue{SeverityError, n.ID, "duplicate node id"})
			ids[n.ID] = 1 // report once
		}
	}

	exists := func(id string) bool {
		_, ok := ids[id]
		return ok
	}

	for _, n := range ch.Nodes {
		check := func(target, label string) {
			if target != "" && !exists(target) {
				errs = append(errs, Issue{SeverityError, n.ID, fmt.Sprintf("%s references unknown node %q", label, target)})
			}
		}
		check(n.NextNode, "nextNode")
		for _, c := range n.Conditional {
			check(c.NextNode, "conditionalNext")
			if _, err := expr.Parse(c.Condition); err != nil {
				errs = append(errs, Issue{SeverityError, n.ID, fmt.Sprintf("condition %q does not parse: %v", c.Condition, err)})
			}
		}
		for _, o := range n.Options {
			check(o.NextNode, "option "+o.ID)
		}
		if n.Compute != nil {
			if _, err := expr.Parse(n.Compute.Logic); err != nil {
				errs = append(errs, Issue{SeverityError, n.ID, fmt.Sprintf("computeVariable logic %q does not parse: %v", n.Compute.Logic, err)})
			}
		}
		if n.IsChapterEnd && n.NextNode != "" {
			warns = append(warns, Issue{SeverityWarning, n.ID, "isChapterEnd set but nextNode present; the successor is never reached"})
		}
	}

	for _, id := range unreachable(ch) {
		warns = append(warns, Issue{SeverityWarning, id, "unreachable from the entry node"})
	}

	return append(errs, warns...)
}

// unreachable crawls every edge from the entry node and reports nodes the
// crawl never touches, sorted for stable output.
func unreachable(ch *domain.Chapter) []string {
	if len(ch.Nodes) == 0 {
		return nil
	}

	nodes := make(map[string]domain.Node, len(ch.Nodes))
	for _, n := range ch.Nodes {
		nodes[n.ID] = n
	}

	seen := make(map[string]bool, len(nodes))
	stack := []string{ch.EntryNodeID()}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		n, ok := nodes[id]
		if !ok {
			continue
		}
		seen[id] = true

		if n.NextNode != "" {
			stack = append(stack, n.NextNode)
		}
		for _, c := range n.Conditional {
			stack = append(stack, c.NextNode)
		}
		for _, o := range n.Options {
			if o.NextNode != "" {
				stack = append(stack, o.NextNode)
			}
		}
	}

	var missing []string
	for id := range nodes {
		if !seen[id] {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)
	return missing
}

// HasErrors reports whether any issue is severe enough to block loading.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}
