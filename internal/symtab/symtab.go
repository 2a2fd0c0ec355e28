// Package symtab implements the lexically-scoped symbol table of section
// 4.3 of the spec: an ordered stack of scope frames holding a tagged
// Identifier sum type, re-architected from the original's three
// overlapping constructors plus boolean flags (is_func, is_enum_type,
// is_enum_variant) into a single Kind-discriminated struct.
package symtab

import (
	"fmt"

	"github.com/quadlang/quadc/internal/types"
)

// Kind discriminates the four disjoint identifier shapes of section 3.
type Kind int

const (
	Variable Kind = iota
	Function
	EnumType
	EnumVariant
)

func (k Kind) label() string {
	switch k {
	case Variable:
		return "Variable"
	case Function:
		return "Function"
	case EnumType:
		return "Enum"
	case EnumVariant:
		return "EnumVariant"
	default:
		return "Identifier"
	}
}

// Identifier is the symbol-table entry described in section 3. Fields not
// meaningful for a given Kind are left zero.
type Identifier struct {
	Name          string
	Kind          Kind
	DeclaredScope int
	DeclaredLine  int
	IsUsed        bool

	// Variable
	VarType       types.Tag
	IsInitialized bool
	IsConst       bool
	Value         types.Value
	EnumTypeName  string // set when VarType == types.EnumRef, or for EnumVariant

	// Function
	ReturnType types.Tag
	ParamTypes []types.Tag

	// EnumType
	Variants []string
}

// acceptsLookup reports whether an identifier of this Kind satisfies a
// lookup for expectedKind, applying the spec's rule that a Variable lookup
// also accepts EnumVariant identifiers (anything not Function, not
// EnumType).
func (id *Identifier) acceptsLookup(expected Kind) bool {
	if id.Kind == expected {
		return true
	}
	if expected == Variable {
		return id.Kind != Function && id.Kind != EnumType
	}
	return false
}

// SymbolTable is the ordered stack of scope frames from section 3. Frame 0
// is always the global scope.
type SymbolTable struct {
	frames  []map[string]*Identifier
	current int
}

// New creates a symbol table with the global frame already present.
func New() *SymbolTable {
	return &SymbolTable{
		frames:  []map[string]*Identifier{make(map[string]*Identifier)},
		current: 0,
	}
}

// CurrentScope returns the index of the top frame.
func (st *SymbolTable) CurrentScope() int { return st.current }

// EnterScope pushes a new, empty frame.
func (st *SymbolTable) EnterScope() {
	st.frames = append(st.frames, make(map[string]*Identifier))
	st.current++
}

// LeaveScope invokes onUnused for every identifier in the top frame that
// was never marked used, then pops that frame (mirroring the spec's
// warning pass in section 4.3).
func (st *SymbolTable) LeaveScope(onUnused func(id *Identifier)) {
	top := st.frames[st.current]
	for _, id := range top {
		if !id.IsUsed {
			onUnused(id)
		}
	}
	st.frames = st.frames[:st.current]
	st.current--
}

// Declare inserts id into the current (top) frame. It fails if the name is
// already present in that frame, per section 4.3's "declare" rule; the
// returned error carries the original declaration's line for the caller to
// report.
func (st *SymbolTable) Declare(id *Identifier) error {
	top := st.frames[st.current]
	if existing, ok := top[id.Name]; ok {
		return fmt.Errorf("Identifier '%s' has already been declared in this scope in L#%d.", id.Name, existing.DeclaredLine)
	}
	id.DeclaredScope = st.current
	top[id.Name] = id
	return nil
}

// Lookup scans frames top-down for name, returning the first match whose
// Kind satisfies expectedKind. It fails with an "undeclared" error when no
// frame has the name at all, or a kind-specific error when a match exists
// but its Kind does not satisfy expectedKind.
func (st *SymbolTable) Lookup(name string, expectedKind Kind) (*Identifier, error) {
	for s := st.current; s >= 0; s-- {
		id, ok := st.frames[s][name]
		if !ok {
			continue
		}
		if !id.acceptsLookup(expectedKind) {
			switch expectedKind {
			case Function:
				return nil, fmt.Errorf("'%s' is not a function.", name)
			case EnumType:
				return nil, fmt.Errorf("'%s' is not a enum type.", name)
			case Variable:
				return nil, fmt.Errorf("'%s' is not a variable.", name)
			default:
				return nil, fmt.Errorf("'%s' is not a %s.", name, expectedKind.label())
			}
		}
		return id, nil
	}
	return nil, fmt.Errorf("%s '%s' has not been declared before.", expectedKind.label(), name)
}

// ScopeOf returns the frame index in which name is declared, scanning
// top-down, or -1 if it is not declared anywhere.
func (st *SymbolTable) ScopeOf(name string) int {
	for s := st.current; s >= 0; s-- {
		if _, ok := st.frames[s][name]; ok {
			return s
		}
	}
	return -1
}

// Frames exposes the live scope frames bottom-up for the symbol-table log
// (section 4.7), which iterates "all live scopes" at the moment it fires.
func (st *SymbolTable) Frames() []map[string]*Identifier {
	return st.frames
}
