package codegen

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/samber/lo"

	"github.com/xfuzz/hwcover/internal/cover"
	"github.com/xfuzz/hwcover/ir"
)

// Native artifact file names.
const (
	HeaderFile = "firrtl-cover.h"
	SourceFile = "firrtl-cover.cpp"
)

// SetterName returns the exported C function marking a point of kind.
func SetterName(kind ir.CoverKind) string {
	return "v_cover_" + kind.String()
}

func pointsArray(kind ir.CoverKind) string {
	return kind.String() + "_points"
}

func namesArray(kind ir.CoverKind) string {
	return kind.String() + "_point_names"
}

// SignalMacro returns the marker macro of a threaded top-level port.
func SignalMacro(port string) string {
	upper := strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return unicode.ToUpper(r)
		}
		return '_'
	}, port)
	return "FIRRTL_COVER_" + upper
}

// cString quotes s as a C string literal.
func cString(s string) string {
	return strconv.Quote(s)
}

func renderHeader(kinds []ir.CoverKind, signals []string) []byte {
	w := newWriter("  ")
	w.writeLine("#ifndef __FIRRTL_COVER_H__")
	w.writeLine("#define __FIRRTL_COVER_H__")
	w.blank()
	w.writeLine("#include <cstdint>")
	w.blank()
	w.writeLine("typedef struct {")
	w.pushIndent()
	w.writeLine("uint8_t *points;")
	w.writeLine("const uint64_t total;")
	w.writeLine("const char *name;")
	w.writeLine("const char **point_names;")
	w.popIndent()
	w.writeLine("} FIRRTLCoverPoint;")
	w.blank()
	w.writeLine("typedef struct {")
	w.pushIndent()
	w.writeLine("const FIRRTLCoverPoint cover;")
	w.writeLine("bool is_feedback;")
	w.popIndent()
	w.writeLine("} FIRRTLCoverPointParam;")
	w.blank()
	w.writeLine("extern FIRRTLCoverPointParam firrtl_cover[%d];", len(kinds))
	if len(signals) > 0 {
		w.blank()
		for _, macro := range lo.Uniq(lo.Map(signals, func(s string, _ int) string { return SignalMacro(s) })) {
			w.writeLine("#define %s", macro)
		}
	}
	w.blank()
	w.writeLine("#endif // __FIRRTL_COVER_H__")
	return w.bytes()
}

func renderSource(ctx *cover.Context, kinds []ir.CoverKind) []byte {
	w := newWriter("  ")
	w.writeLine("#include %s", cString(HeaderFile))

	for _, kind := range kinds {
		total := ctx.KindTotal(kind)
		w.blank()
		w.writeLine("static uint8_t %s[%d];", pointsArray(kind), total)
		w.blank()
		w.writeLine(`extern "C" void %s(uint64_t index) {`, SetterName(kind))
		w.pushIndent()
		w.writeLine("%s[index] = 1;", pointsArray(kind))
		w.popIndent()
		w.writeLine("}")
		w.blank()
		w.writeLine("static const char *%s[] = {", namesArray(kind))
		w.pushIndent()
		for _, s := range ctx.Sites() {
			if s.Descriptor.Kind != kind {
				continue
			}
			for _, name := range s.PointNames() {
				w.writeLine("%s,", cString(name))
			}
		}
		w.popIndent()
		w.writeLine("};")
	}

	w.blank()
	w.writeLine("FIRRTLCoverPointParam firrtl_cover[%d] = {", len(kinds))
	w.pushIndent()
	for i, kind := range kinds {
		w.writeLine("{ { %s, %dUL, %s, %s }, %t },",
			pointsArray(kind), ctx.KindTotal(kind), cString(kind.String()), namesArray(kind), i == 0)
	}
	w.popIndent()
	w.writeLine("};")
	return w.bytes()
}
