package ir

// Annotation is a circuit-level annotation attached by the pipeline for the
// host compiler. It is a closed union.
type Annotation interface {
	annotation()
}

// NoDedupAnnotation stops the host from deduplicating Module. An empty
// Module applies to every module of the circuit.
type NoDedupAnnotation struct {
	Module string
}

// DontTouchAnnotation keeps Name in Module from being renamed or removed.
type DontTouchAnnotation struct {
	Module string
	Name   string
}

// WiringSourceAnnotation marks Port of Module as the source of Signal.
type WiringSourceAnnotation struct {
	Module string
	Port   string
	Signal string
}

// WiringSinkAnnotation marks Target in Module as a sink of Signal.
type WiringSinkAnnotation struct {
	Module string
	Target string
	Signal string
}

// InlineBodyAnnotation attaches the body text of an opaque module, keyed
// by its DefName.
type InlineBodyAnnotation struct {
	DefName  string
	Filename string
	Text     string
}

func (NoDedupAnnotation) annotation()      {}
func (DontTouchAnnotation) annotation()    {}
func (WiringSourceAnnotation) annotation() {}
func (WiringSinkAnnotation) annotation()   {}
func (InlineBodyAnnotation) annotation()   {}

// AnnotationsOf returns every annotation of type T in declaration order.
func AnnotationsOf[T Annotation](c *Circuit) []T {
	var out []T
	for _, a := range c.Annotations {
		if t, ok := a.(T); ok {
			out = append(out, t)
		}
	}
	return out
}
