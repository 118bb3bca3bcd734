// Package symtab holds the compile-time symbol tables a codegen context
// needs: function signatures, globals, lexical bindings, import aliases,
// use-module directives, and the string-literal intern table. Every table
// here is owned by one Table value per compilation — never a package
// global — per the design note that these tables should be contextual,
// not process-wide, so multiple compilations (or tests) never interfere.
package symtab

// FunSig is a callable's signature as the resolver and codegen see it:
// enough to pick an overload and to know how to lower a call to it.
type FunSig struct {
	Name       string
	Arity      int
	IsVariadic bool
	Comptime   bool // may be evaluated at comptime; false puts it on the deny-list
}

// Global is a module-level binding (not necessarily a function).
type Global struct {
	Name  string
	Const bool
}

// scope is one lexical level of local bindings.
type scope struct {
	names map[string]struct{}
}

// ImportAlias maps a short alias to the fully-qualified module path it
// stands for (`use std.collections as coll`).
type ImportAlias struct {
	Alias string
	Full  string
}

// Table is the full compile-time symbol environment for one compilation
// unit. Zero value is not usable; use New.
type Table struct {
	FunSigs       []FunSig
	Globals       map[string]Global
	ImportAliases []ImportAlias
	UseModules    []string
	Exports       []string // names an `export` statement made visible outside the module
	StringIntern  map[string]int // literal text -> stable id, for dedup

	CurrentModule string
	scopes        []scope
}

// New creates an empty table ready for one compilation.
func New() *Table {
	return &Table{
		Globals:      make(map[string]Global),
		StringIntern: make(map[string]int),
	}
}

// PushScope/PopScope bracket a lexical block's local bindings.
func (t *Table) PushScope() { t.scopes = append(t.scopes, scope{names: make(map[string]struct{})}) }

func (t *Table) PopScope() {
	if len(t.scopes) > 0 {
		t.scopes = t.scopes[:len(t.scopes)-1]
	}
}

// Bind declares a local name in the innermost scope.
func (t *Table) Bind(name string) {
	if len(t.scopes) == 0 {
		t.PushScope()
	}
	t.scopes[len(t.scopes)-1].names[name] = struct{}{}
}

// IsLocal reports whether name is bound in any enclosing lexical scope,
// innermost first.
func (t *Table) IsLocal(name string) bool {
	for i := len(t.scopes) - 1; i >= 0; i-- {
		if _, ok := t.scopes[i].names[name]; ok {
			return true
		}
	}
	return false
}

// AddFunSig registers a function signature (builtins, extern decls, and
// user-defined functions all funnel through this).
func (t *Table) AddFunSig(sig FunSig) { t.FunSigs = append(t.FunSigs, sig) }

// FindExact returns the last-registered signature with an exact name
// match (later declarations shadow earlier ones, matching the teacher's
// reverse-scan lookup order).
func (t *Table) FindExact(name string) (*FunSig, bool) {
	for i := len(t.FunSigs) - 1; i >= 0; i-- {
		if t.FunSigs[i].Name == name {
			return &t.FunSigs[i], true
		}
	}
	return nil, false
}

// AddImportAlias registers `use X as Y`.
func (t *Table) AddImportAlias(alias, full string) {
	t.ImportAliases = append(t.ImportAliases, ImportAlias{Alias: alias, Full: full})
}

// ResolveImportAlias returns the full module path an alias stands for.
func (t *Table) ResolveImportAlias(name string) (string, bool) {
	for _, a := range t.ImportAliases {
		if a.Alias == name {
			return a.Full, true
		}
	}
	return "", false
}

// AddUseModule registers a bare `use std.collections` directive.
func (t *Table) AddUseModule(mod string) { t.UseModules = append(t.UseModules, mod) }

// AddExport registers a name an `export` statement made visible outside
// the current module.
func (t *Table) AddExport(name string) { t.Exports = append(t.Exports, name) }

// IsExported reports whether name was named by an export statement.
func (t *Table) IsExported(name string) bool {
	for _, e := range t.Exports {
		if e == name {
			return true
		}
	}
	return false
}

// Intern records (or looks up) a string literal's intern id.
func (t *Table) Intern(s string) int {
	if id, ok := t.StringIntern[s]; ok {
		return id
	}
	id := len(t.StringIntern)
	t.StringIntern[s] = id
	return id
}

// StdlibFallbackPrefixes is the hard-coded module-prefix search order an
// unqualified builtin-ish name falls back through, grounded in syms.c's
// lookup_fun fallback list.
var StdlibFallbackPrefixes = []string{
	"std.core", "std.io", "std.collections", "std.strings.str", "std.math", "std.os",
}
