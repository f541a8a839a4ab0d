package ir

// Builder assembles a Unit one block/op at a time. It exists so tests (and
// cmd/evalctl's demo units) can construct units without hand-writing struct
// literals for every field; it is not part of the lowering collaborator's
// contract.
type Builder struct {
	u *Unit
}

// NewBuilder starts building a unit of the given name/kind.
func NewBuilder(name string, kind UnitKind) *Builder {
	return &Builder{u: &Unit{Name: name, Kind: kind, Pure: true}}
}

// Pure sets the unit's purity flag (default true).
func (b *Builder) Pure(pure bool) *Builder {
	b.u.Pure = pure
	return b
}

// Parent sets the enclosing unit's name for lexical scope walks.
func (b *Builder) Parent(name string) *Builder {
	b.u.Parent = name
	return b
}

// Result sets the unit's declared result type.
func (b *Builder) Result(t Type) *Builder {
	b.u.ResultType = t
	return b
}

// Var declares one variable slot and returns its id.
func (b *Builder) Var(t Type, extern bool) int {
	b.u.Vars = append(b.u.Vars, VarDecl{Type: t, Extern: extern})
	return len(b.u.Vars) - 1
}

// Param declares var as a positional parameter, bound by fcall.
func (b *Builder) Param(varID int) *Builder {
	b.u.Params = append(b.u.Params, varID)
	return b
}

// Reg reserves and returns the next free register id.
func (b *Builder) Reg() int {
	id := b.u.NumRegs
	b.u.NumRegs++
	return id
}

// Block starts a new block and returns its index.
func (b *Builder) Block() int {
	b.u.Blocks = append(b.u.Blocks, Block{})
	return len(b.u.Blocks) - 1
}

// Emit appends op to the given block and returns the builder for chaining.
func (b *Builder) Emit(block int, op Op) *Builder {
	b.u.Blocks[block].Ops = append(b.u.Blocks[block].Ops, op)
	return b
}

// Build finalizes and returns the constructed unit.
func (b *Builder) Build() *Unit {
	return b.u
}

// IntType is a convenience constructor for an integer type with the
// inclusive range [low, high] (tests rarely care about the declared range
// unless exercising bounds ops).
func IntType(low, high int64) Type {
	return Type{Kind: TInteger, Low: low, High: high}
}

// RealType is a convenience constructor for the real type.
func RealType() Type {
	return Type{Kind: TReal}
}

// EnumType is a convenience constructor for an enum type with the given
// literal identifiers, ordinal-indexed.
func EnumType(literals ...string) Type {
	return Type{Kind: TEnum, Low: 0, High: int64(len(literals) - 1), EnumLiterals: literals}
}

// BoolType is the two-valued boolean enum used for conditions and
// comparisons that fold to a boolean-enum literal.
func BoolType() Type {
	return EnumType("false", "true")
}

// CArrayType is a convenience constructor for a constrained array of elem,
// fixed at count elements.
func CArrayType(elem Type, count int) Type {
	e := elem
	return Type{Kind: TCArray, Elem: &e, ElemCount: count}
}

// UArrayType is a convenience constructor for an unconstrained array of
// elem.
func UArrayType(elem Type) Type {
	e := elem
	return Type{Kind: TUArray, Elem: &e}
}
