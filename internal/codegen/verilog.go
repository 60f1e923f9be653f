package codegen

import (
	"github.com/xfuzz/hwcover/internal/cover"
	"github.com/xfuzz/hwcover/ir"
)

// VerilogFile returns the file name of a probe module body.
func VerilogFile(d *cover.Descriptor) string {
	return d.DefName + ".v"
}

// renderProbe writes the Verilog body shared by every site of d. The
// setter receives COVER_INDEX plus the point offset inside the site.
//
// A Normal probe wider than one bit treats valid as a binary-encoded
// state: the value is added to COVER_INDEX as is.
func renderProbe(d *cover.Descriptor, kindTotal int) []byte {
	setter := SetterName(d.Kind)
	w := newWriter("  ")
	w.writeLine("module %s #(", d.DefName)
	w.pushIndent()
	w.writeLine("parameter %s = %d,", cover.ParamCoverTotal, kindTotal)
	w.writeLine("parameter %s = 0", cover.ParamCoverIndex)
	w.popIndent()
	w.writeLine(") (")
	w.pushIndent()
	w.writeLine("input %s,", cover.ProbeClock)
	w.writeLine("input %s,", cover.ProbeReset)
	if d.Width > 1 {
		w.writeLine("input [%d:0] %s", d.Width-1, cover.ProbeValid)
	} else {
		w.writeLine("input %s", cover.ProbeValid)
	}
	w.popIndent()
	w.writeLine(");")
	w.blank()
	w.writeLine(`import "DPI-C" function void %s(input longint unsigned index);`, setter)
	w.blank()
	w.writeLine("always @(posedge %s) begin", cover.ProbeClock)
	w.pushIndent()
	w.writeLine("if (!%s) begin", cover.ProbeReset)
	w.pushIndent()
	switch {
	case d.Kind == ir.CoverMultibit && d.Width > 1:
		for bit := range d.Width {
			w.writeLine("if (%s[%d]) %s(%s + %d);", cover.ProbeValid, bit, setter, cover.ParamCoverIndex, bit)
		}
	case d.Kind == ir.CoverRaw || d.Width > 1:
		w.writeLine("%s(%s + %s);", setter, cover.ParamCoverIndex, cover.ProbeValid)
	default:
		w.writeLine("if (%s) %s(%s);", cover.ProbeValid, setter, cover.ParamCoverIndex)
	}
	w.popIndent()
	w.writeLine("end")
	w.popIndent()
	w.writeLine("end")
	w.blank()
	w.writeLine("endmodule")
	return w.bytes()
}
