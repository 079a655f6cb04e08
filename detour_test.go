package drivershim

import (
	"errors"
	"reflect"
	"testing"
)

func funcPtr(fn any) uintptr {
	return reflect.ValueOf(fn).Pointer()
}

func TestAttachVirtualMethodIdempotent(t *testing.T) {
	base := func(x int) int { return x }
	repl1 := func(x int) int { return x + 1 }
	repl2 := func(x int) int { return x + 2 }

	table := NewDispatchTable(base)

	orig1, err := AttachVirtualMethod(table, 0, repl1)
	if err != nil {
		t.Fatalf("first attach: %v", err)
	}
	if funcPtr(orig1) != funcPtr(base) {
		t.Fatalf("captured original is not the base function")
	}
	if funcPtr(table.Slot(0)) != funcPtr(repl1) {
		t.Fatalf("slot not redirected to replacement")
	}

	// Second attach is a no-op: same captured original, slot untouched.
	orig2, err := AttachVirtualMethod(table, 0, repl2)
	if err != nil {
		t.Fatalf("second attach: %v", err)
	}
	if funcPtr(orig2) != funcPtr(orig1) {
		t.Fatalf("second attach captured a different original")
	}
	if funcPtr(table.Slot(0)) != funcPtr(repl1) {
		t.Fatalf("second attach modified the live slot")
	}
}

func TestAttachVirtualMethodErrors(t *testing.T) {
	table := NewDispatchTable(func(x int) int { return x })

	if _, err := AttachVirtualMethod(table, 5, func(x int) int { return x }); !errors.Is(err, ErrSlotOutOfRange) {
		t.Errorf("out-of-range slot: got %v, want ErrSlotOutOfRange", err)
	}
	if _, err := AttachVirtualMethod(table, 0, func(x string) string { return x }); !errors.Is(err, ErrDifferentType) {
		t.Errorf("mismatched type: got %v, want ErrDifferentType", err)
	}
	if _, err := AttachVirtualMethod(table, 0, 42); !errors.Is(err, ErrInputType) {
		t.Errorf("non-func replacement: got %v, want ErrInputType", err)
	}
}

func TestAttachExportedSymbol(t *testing.T) {
	base := func() string { return "original" }
	repl := func() string { return "hooked" }

	table := NewExportTable()
	table.Export("EntryPoint", base)
	RegisterModule("detour_test_module", table)

	orig, err := AttachExportedSymbol("detour_test_module", "EntryPoint", repl)
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if got := orig.(func() string)(); got != "original" {
		t.Errorf("captured original returned %q", got)
	}
	if got := table.Symbol("EntryPoint").(func() string)(); got != "hooked" {
		t.Errorf("live export returned %q, want hooked", got)
	}

	// Idempotent per symbol.
	orig2, err := AttachExportedSymbol("detour_test_module", "EntryPoint", base)
	if err != nil {
		t.Fatalf("second attach: %v", err)
	}
	if funcPtr(orig2) != funcPtr(orig) {
		t.Errorf("second attach captured a different original")
	}

	if err := VerifyAttached("detour_test_module", "EntryPoint"); err != nil {
		t.Errorf("VerifyAttached after attach: %v", err)
	}
}

func TestAttachExportedSymbolUnresolved(t *testing.T) {
	table := NewExportTable()
	RegisterModule("detour_test_empty", table)

	if _, err := AttachExportedSymbol("detour_test_missing", "X", func() {}); !errors.Is(err, ErrModuleNotFound) {
		t.Errorf("missing module: got %v, want ErrModuleNotFound", err)
	}
	if _, err := AttachExportedSymbol("detour_test_empty", "X", func() {}); !errors.Is(err, ErrSymbolNotFound) {
		t.Errorf("missing symbol: got %v, want ErrSymbolNotFound", err)
	}

	// A failed resolve leaves no captured original, which the install-time
	// precondition check must report.
	if err := VerifyAttached("detour_test_empty", "X"); !errors.Is(err, ErrNotAttached) {
		t.Errorf("VerifyAttached: got %v, want ErrNotAttached", err)
	}
	if err := VerifyAttached("detour_test_missing", "X"); !errors.Is(err, ErrModuleNotFound) {
		t.Errorf("VerifyAttached missing module: got %v, want ErrModuleNotFound", err)
	}
}

func TestAttachFunctionPointer(t *testing.T) {
	target := func(x int) int { return x }
	repl := func(x int) int { return x * 10 }
	var original func(int) int

	AttachFunctionPointer(&target, repl, &original)
	if got := target(3); got != 30 {
		t.Errorf("target(3) = %d after attach, want 30", got)
	}
	if got := original(3); got != 3 {
		t.Errorf("original(3) = %d, want 3", got)
	}

	// A non-nil original marks the hook installed; re-attach is a no-op.
	other := func(x int) int { return x * 100 }
	AttachFunctionPointer(&target, other, &original)
	if got := target(3); got != 30 {
		t.Errorf("target(3) = %d after re-attach, want 30", got)
	}
	if got := original(3); got != 3 {
		t.Errorf("original(3) = %d after re-attach, want 3", got)
	}
}
