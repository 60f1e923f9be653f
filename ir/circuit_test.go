package ir

import "testing"

func TestCircuitModuleLookup(t *testing.T) {
	c := &Circuit{Main: "Top"}
	c.AddModule(&DefinedModule{Name: "Top", Body: NewBlock()})
	c.AddModule(&OpaqueModule{Name: "Ext"})

	if _, ok := c.Module("Ext"); !ok {
		t.Fatal("Ext not found")
	}
	c.AddModule(&DefinedModule{Name: "Core", Body: NewBlock()})
	if _, ok := c.Defined("Core"); !ok {
		t.Error("Core not found after AddModule")
	}

	// Direct edits to Modules are picked up on the next lookup.
	c.Modules = []Module{c.Modules[2], c.Modules[0]}
	if _, ok := c.Module("Ext"); ok {
		t.Error("Ext still found after removal")
	}
	m, ok := c.Module("Top")
	if !ok || m.ModuleName() != "Top" {
		t.Errorf("Module(Top) = %v, %v", m, ok)
	}
	c.Modules = append(c.Modules, &DefinedModule{Name: "Late", Body: NewBlock()})
	if _, ok := c.Defined("Late"); !ok {
		t.Error("Late not found after append")
	}
	if _, err := c.Top(); err != nil {
		t.Errorf("Top: %v", err)
	}
}

func TestCircuitModuleFirstWins(t *testing.T) {
	first := &DefinedModule{Name: "Top", Body: NewBlock()}
	c := &Circuit{Main: "Top", Modules: []Module{first, &OpaqueModule{Name: "Top"}}}
	if m, _ := c.Module("Top"); m != Module(first) {
		t.Errorf("Module(Top) = %T, want the first definition", m)
	}
}
