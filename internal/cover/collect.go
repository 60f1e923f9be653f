package cover

import (
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-multierror"

	"github.com/xfuzz/hwcover/ir"
)

// Collect consumes the request table, producing one PointRequest per
// table entry. Targets that are not named bindings, or that no statement
// declares, are errors; all of them are returned together.
func Collect(c *Context) error {
	var result *multierror.Error

	for _, m := range c.Circuit.DefinedModules() {
		if c.Table.Len() == 0 {
			break
		}
		ir.Walk(m.Body, func(s ir.Statement) bool {
			name, ok := ir.DeclaredName(s)
			if !ok {
				return true
			}
			target := ir.CoverTarget{Module: m.Name, Name: name}
			reqs, ok := c.Table.Take(target)
			if !ok {
				return true
			}
			node, isNode := s.(*ir.Node)
			if !isNode {
				result = multierror.Append(result, fmt.Errorf("%w: %s is a %s",
					ErrUnsupportedTargetKind, target, ir.StatementKind(s)))
				return true
			}
			for _, r := range reqs {
				c.Requests = append(c.Requests, &PointRequest{
					Module: m.Name,
					Name:   name,
					Kind:   r.Kind,
					Points: r.Points,
					Node:   node,
				})
				if c.TraceEnabled() {
					c.Trace("collected cover request",
						slog.String("target", target.String()),
						slog.String("kind", r.Kind.String()))
				}
			}
			return true
		})
	}

	for _, target := range c.Table.Pending() {
		c.Table.Take(target)
		result = multierror.Append(result, fmt.Errorf("%w: %s", ErrTargetNotFound, target))
	}

	c.Accounting.Requested = len(c.Requests)
	return result.ErrorOrNil()
}

// RequestsByModule groups the collected requests per owning module,
// keeping module order.
func (c *Context) RequestsByModule() map[string][]*PointRequest {
	out := make(map[string][]*PointRequest)
	for _, r := range c.Requests {
		out[r.Module] = append(out[r.Module], r)
	}
	return out
}
