// Package emit renders generated artifacts (schema migration, data contracts,
// endpoints, state hooks, UI scaffolds, tests, feature config) from a
// validated Blueprint and its ExecutionPlan.
package emit

import (
	"github.com/jonathan/module-builder/internal/types"
)

// Field is a column with its inferred contract types.
type Field struct {
	Column types.ColumnSpec
	// TSType is the TypeScript type of a row value.
	TSType string
	// ZodRule is the validation rule without optionality modifiers.
	ZodRule string
	// Optional is true when the column may be omitted: nullable and no default.
	Optional bool
	// Defaulted is true for nullable columns with a default: they may be
	// omitted but are never null once stored.
	Defaulted bool
	// Injected marks columns added by the generator rather than the Blueprint.
	Injected bool
}

// Name returns the column name.
func (f Field) Name() string {
	return f.Column.Name
}

// Infer maps a parsed column to its contract types. It is a pure function of
// the column and is shared by every emitter.
func Infer(col types.ColumnSpec) Field {
	f := Field{Column: col}
	switch col.SQLType {
	case types.SQLTypeUUID:
		f.TSType, f.ZodRule = "string", "z.string().uuid()"
	case types.SQLTypeInteger:
		f.TSType, f.ZodRule = "number", "z.number().int()"
	case types.SQLTypeDecimal:
		f.TSType, f.ZodRule = "number", "z.number()"
	case types.SQLTypeBoolean:
		f.TSType, f.ZodRule = "boolean", "z.boolean()"
	case types.SQLTypeDate, types.SQLTypeTimestamp:
		f.TSType, f.ZodRule = "Date", "z.coerce.date()"
	case types.SQLTypeJSON:
		f.TSType, f.ZodRule = "Record<string, unknown>", "z.record(z.string(), z.unknown())"
	default:
		f.TSType, f.ZodRule = "string", "z.string()"
	}

	switch {
	case !col.Nullable:
	case col.HasDefault:
		f.Defaulted = true
	default:
		f.Optional = true
	}
	return f
}

// TSDeclaration renders the field as a TypeScript interface member.
func (f Field) TSDeclaration() string {
	switch {
	case f.Optional:
		return f.Name() + "?: " + f.TSType + " | null;"
	case f.Defaulted:
		return f.Name() + "?: " + f.TSType + ";"
	default:
		return f.Name() + ": " + f.TSType + ";"
	}
}

// ZodDeclaration renders the field as a zod object member.
func (f Field) ZodDeclaration() string {
	switch {
	case f.Optional:
		return f.Name() + ": " + f.ZodRule + ".nullable().optional(),"
	case f.Defaulted:
		return f.Name() + ": " + f.ZodRule + ".optional(),"
	default:
		return f.Name() + ": " + f.ZodRule + ","
	}
}

// Searchable reports whether the column takes part in free-text search.
func (f Field) Searchable() bool {
	return f.Column.SQLType == types.SQLTypeText && !f.Column.PrimaryKey && f.Column.ReferencedTable == ""
}
