package cover

import (
	"fmt"
	"log/slog"

	"github.com/xfuzz/hwcover/internal/types"
	"github.com/xfuzz/hwcover/ir"
)

// Synthesize assigns every collected request a range inside the
// descriptor of its (kind, width), or records it as skipped when the bound
// expression is a literal. Descriptor bases are assigned per kind in
// descriptor creation order once all ranges are known.
func Synthesize(c *Context) error {
	for _, req := range c.Requests {
		m, ok := c.Circuit.Defined(req.Module)
		if !ok {
			return fmt.Errorf("%w: %s", ErrTargetNotFound, req.Target())
		}
		t, err := ir.InferType(c.Scope(m), req.Node.Value)
		if err != nil {
			return fmt.Errorf("cover %s: %w", req.Target(), err)
		}
		req.Type = t
		width := t.Width

		if ir.IsLiteral(req.Node.Value) {
			req.Skipped = true
			c.Accounting.Skipped++
			c.EmitDiagnostic(types.DiagCoverLiteral, ir.SeverityInfo, req.Module, req.Node.Info,
				fmt.Sprintf("binding %s is the constant %s, not covered", req.Name, ir.Format(req.Node.Value)))
			continue
		}

		points, err := c.pointCount(req, width)
		if err != nil {
			return err
		}

		d := c.descriptor(req.Kind, width)
		req.Site = d.addSite(points, req)
		c.Accounting.Synthesized++
		c.Accounting.Points += points

		if c.TraceEnabled() {
			c.Trace("synthesized cover site",
				slog.String("target", req.Target().String()),
				slog.String("descriptor", d.DefName),
				slog.Int("offset", req.Site.Offset),
				slog.Int("points", points))
		}
	}

	for _, kind := range ir.AllCoverKinds {
		base := 0
		for _, d := range c.Descriptors {
			if d.Kind == kind {
				d.Base = base
				base += d.Total
			}
		}
	}
	return nil
}

func (c *Context) pointCount(req *PointRequest, width int) (int, error) {
	switch req.Kind {
	case ir.CoverMultibit:
		return width, nil
	case ir.CoverNormal:
		if width == 1 {
			return 1, nil
		}
		if width > c.maxEncodedWidth {
			return 0, fmt.Errorf("%w: %s is %d bits wide, limit %d",
				ErrEncodedWidthTooLarge, req.Target(), width, c.maxEncodedWidth)
		}
		return 1 << width, nil
	case ir.CoverRaw:
		if req.Points > 0 {
			return req.Points, nil
		}
		if width > c.maxEncodedWidth {
			return 0, fmt.Errorf("%w: raw %s is %d bits wide with no point count, limit %d",
				ErrEncodedWidthTooLarge, req.Target(), width, c.maxEncodedWidth)
		}
		c.EmitDiagnostic(types.DiagRawPointsDefault, ir.SeverityWarning, req.Module, req.Node.Info,
			fmt.Sprintf("raw binding %s has no point count, using %d", req.Name, 1<<width))
		return 1 << width, nil
	default:
		return 0, fmt.Errorf("cover %s: unknown kind %s", req.Target(), req.Kind)
	}
}
