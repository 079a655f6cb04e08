package drivershim

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// The interposition engine redirects a single entry in an owned dispatch
// table or module export table while preserving the previously-live function
// for forwarding. The original technique patched live code in a closed host
// process; here every table is an explicit Go structure, so a patch is a
// value swap guarded by a process-wide lock (the memory-safe analogue of
// suspending other threads for the duration of the patch).

var (
	// ErrDifferentType means the replacement's function type does not match
	// the target's.
	ErrDifferentType = errors.New("replacement and target are of different type")
	// ErrInputType means the replacement or target is not a func value.
	ErrInputType = errors.New("inputs are not func type")
	// ErrSlotOutOfRange means the dispatch table has no such slot.
	ErrSlotOutOfRange = errors.New("dispatch table slot out of range")
	// ErrModuleNotFound means no module with that name is registered.
	ErrModuleNotFound = errors.New("module not found")
	// ErrSymbolNotFound means the module exports no such symbol.
	ErrSymbolNotFound = errors.New("symbol not found")
	// ErrNotAttached is reported by VerifyAttached when no original was captured.
	ErrNotAttached = errors.New("no captured original")
)

// patchMu serializes every attach so no call ever observes a half-applied
// patch. Each hook attaches at most once per process lifetime, so the lock is
// never contended on the hot path.
var patchMu sync.Mutex

// DispatchTable is the fixed-order table of method entry points defined by an
// interface contract. Slot index is a method's fixed position in the table,
// and callers invoke methods by reading the slot, so swapping a slot redirects
// every subsequent call.
type DispatchTable struct {
	slots    []any
	captured map[int]any
}

// NewDispatchTable builds a table from function values in slot order.
func NewDispatchTable(slots ...any) *DispatchTable {
	return &DispatchTable{
		slots:    slots,
		captured: make(map[int]any),
	}
}

// Slot returns the currently-live entry at index i.
func (t *DispatchTable) Slot(i int) any {
	patchMu.Lock()
	defer patchMu.Unlock()
	if i < 0 || i >= len(t.slots) {
		return nil
	}
	return t.slots[i]
}

// Len reports the number of slots.
func (t *DispatchTable) Len() int { return len(t.slots) }

// AttachVirtualMethod captures the entry at slot and installs replacement,
// returning the previously-live function for forwarding. The capture happens
// at most once per table+slot: if an original is already held, the call is a
// no-op and returns that same original.
func AttachVirtualMethod(table *DispatchTable, slot int, replacement any) (any, error) {
	patchMu.Lock()
	defer patchMu.Unlock()

	if slot < 0 || slot >= len(table.slots) {
		return nil, fmt.Errorf("%w: slot %d of %d", ErrSlotOutOfRange, slot, len(table.slots))
	}
	if original, ok := table.captured[slot]; ok {
		// Already hooked.
		return original, nil
	}

	target := table.slots[slot]
	if err := checkFuncTypes(target, replacement); err != nil {
		return nil, err
	}

	table.captured[slot] = target
	table.slots[slot] = replacement
	return target, nil
}

// ExportTable is a loaded module's table of exported symbols.
type ExportTable struct {
	exports  map[string]any
	captured map[string]any
}

// NewExportTable returns an empty export table.
func NewExportTable() *ExportTable {
	return &ExportTable{
		exports:  make(map[string]any),
		captured: make(map[string]any),
	}
}

// Export publishes a symbol.
func (t *ExportTable) Export(symbol string, fn any) {
	patchMu.Lock()
	defer patchMu.Unlock()
	t.exports[symbol] = fn
}

// Symbol returns the currently-live export, or nil.
func (t *ExportTable) Symbol(symbol string) any {
	patchMu.Lock()
	defer patchMu.Unlock()
	return t.exports[symbol]
}

// moduleRegistry maps module names to their export tables, standing in for
// the process's loaded-module list.
var moduleRegistry = struct {
	sync.Mutex
	m map[string]*ExportTable
}{m: make(map[string]*ExportTable)}

// RegisterModule makes a module's exports resolvable by name.
func RegisterModule(name string, table *ExportTable) {
	moduleRegistry.Lock()
	defer moduleRegistry.Unlock()
	moduleRegistry.m[name] = table
}

func lookupModule(name string) *ExportTable {
	moduleRegistry.Lock()
	defer moduleRegistry.Unlock()
	return moduleRegistry.m[name]
}

// AttachExportedSymbol is AttachVirtualMethod at the level of a module's
// exported symbol table, for entry points not reached through a dispatch
// table. When the module or symbol cannot be resolved the captured original
// remains nil; installation must be verified with VerifyAttached before any
// forwarding call, since forwarding through a nil original is a fatal
// misconfiguration rather than a recoverable error.
func AttachExportedSymbol(moduleName, symbol string, replacement any) (any, error) {
	table := lookupModule(moduleName)
	if table == nil {
		return nil, fmt.Errorf("%w: %q", ErrModuleNotFound, moduleName)
	}

	patchMu.Lock()
	defer patchMu.Unlock()

	if original, ok := table.captured[symbol]; ok {
		// Already hooked.
		return original, nil
	}

	target, ok := table.exports[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %q!%q", ErrSymbolNotFound, moduleName, symbol)
	}
	if err := checkFuncTypes(target, replacement); err != nil {
		return nil, err
	}

	table.captured[symbol] = target
	table.exports[symbol] = replacement
	return target, nil
}

// VerifyAttached is the install-time precondition check: it fails unless a
// non-nil original has been captured for the named export.
func VerifyAttached(moduleName, symbol string) error {
	table := lookupModule(moduleName)
	if table == nil {
		return fmt.Errorf("%w: %q", ErrModuleNotFound, moduleName)
	}
	patchMu.Lock()
	defer patchMu.Unlock()
	if original, ok := table.captured[symbol]; !ok || original == nil {
		return fmt.Errorf("%w: %q!%q", ErrNotAttached, moduleName, symbol)
	}
	return nil
}

// AttachFunctionPointer is the lowest-level primitive: it redirects target to
// replacement and stores the previously-live function in original. If
// original already holds a function the hook is considered installed and the
// call is a no-op.
func AttachFunctionPointer[T any](target *T, replacement T, original *T) {
	patchMu.Lock()
	defer patchMu.Unlock()

	if v := reflect.ValueOf(*original); v.Kind() == reflect.Func && !v.IsNil() {
		// Already hooked.
		return
	}

	*original = *target
	*target = replacement
}

func checkFuncTypes(target, replacement any) error {
	tt := reflect.TypeOf(target)
	rt := reflect.TypeOf(replacement)
	if tt == nil || rt == nil || tt.Kind() != reflect.Func || rt.Kind() != reflect.Func {
		return ErrInputType
	}
	if tt != rt {
		return fmt.Errorf("%w: %v != %v", ErrDifferentType, tt, rt)
	}
	return nil
}
