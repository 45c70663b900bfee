package blueprint

import (
	"errors"
	"regexp"
	"strings"

	"github.com/jonathan/module-builder/internal/types"
)

// columnKeywords are tokens that can follow a column name but are not types.
var columnKeywords = map[string]bool{
	"NOT":        true,
	"NULL":       true,
	"DEFAULT":    true,
	"REFERENCES": true,
	"PRIMARY":    true,
	"UNIQUE":     true,
	"CHECK":      true,
	"GENERATED":  true,
}

// constraintKeywords start a table-level constraint rather than a column.
var constraintKeywords = map[string]bool{
	"PRIMARY":    true,
	"UNIQUE":     true,
	"CONSTRAINT": true,
	"FOREIGN":    true,
	"CHECK":      true,
	"EXCLUDE":    true,
}

var referencesPattern = regexp.MustCompile(`(?i)\bREFERENCES\s+((?:"?[A-Za-z_]\w*"?\.)?"?[A-Za-z_]\w*"?)`)

// typeAliases maps SQL type spellings onto the normalized storage types.
var typeAliases = map[string]types.SQLType{
	"UUID":        types.SQLTypeUUID,
	"TEXT":        types.SQLTypeText,
	"VARCHAR":     types.SQLTypeText,
	"CHAR":        types.SQLTypeText,
	"CHARACTER":   types.SQLTypeText,
	"CITEXT":      types.SQLTypeText,
	"STRING":      types.SQLTypeText,
	"INTEGER":     types.SQLTypeInteger,
	"INT":         types.SQLTypeInteger,
	"INT2":        types.SQLTypeInteger,
	"INT4":        types.SQLTypeInteger,
	"INT8":        types.SQLTypeInteger,
	"SMALLINT":    types.SQLTypeInteger,
	"BIGINT":      types.SQLTypeInteger,
	"SERIAL":      types.SQLTypeInteger,
	"BIGSERIAL":   types.SQLTypeInteger,
	"DECIMAL":     types.SQLTypeDecimal,
	"NUMERIC":     types.SQLTypeDecimal,
	"REAL":        types.SQLTypeDecimal,
	"FLOAT":       types.SQLTypeDecimal,
	"FLOAT4":      types.SQLTypeDecimal,
	"FLOAT8":      types.SQLTypeDecimal,
	"DOUBLE":      types.SQLTypeDecimal,
	"MONEY":       types.SQLTypeDecimal,
	"BOOLEAN":     types.SQLTypeBoolean,
	"BOOL":        types.SQLTypeBoolean,
	"DATE":        types.SQLTypeDate,
	"TIMESTAMP":   types.SQLTypeTimestamp,
	"TIMESTAMPTZ": types.SQLTypeTimestamp,
	"DATETIME":    types.SQLTypeTimestamp,
	"TIME":        types.SQLTypeTimestamp,
	"TIMETZ":      types.SQLTypeTimestamp,
	"JSON":        types.SQLTypeJSON,
	"JSONB":       types.SQLTypeJSON,
}

// NormalizeType maps a raw SQL type token such as "VARCHAR(255)" or "jsonb"
// to a storage type. The boolean is false for unrecognized tokens.
func NormalizeType(raw string) (types.SQLType, bool) {
	base := strings.ToUpper(strings.TrimSpace(raw))
	if i := strings.IndexAny(base, "(["); i >= 0 {
		base = base[:i]
	}
	t, ok := typeAliases[base]
	return t, ok
}

// IsTableConstraint reports whether a descriptor is a table-level constraint
// ("UNIQUE(org_id, name)", "PRIMARY KEY (a, b)") rather than a column.
func IsTableConstraint(descriptor string) bool {
	tokens := tokenize(descriptor)
	if len(tokens) == 0 {
		return false
	}
	first := strings.ToUpper(tokens[0])
	if i := strings.Index(first, "("); i >= 0 {
		first = first[:i]
	}
	return constraintKeywords[first]
}

// ParseColumn parses a free-text column descriptor of the form
// "<name> <TYPE> [NOT NULL] [DEFAULT ...] [REFERENCES table]".
//
// A descriptor without a type yields a text column together with a
// *MissingTypeError so callers can decide whether that matters.
func ParseColumn(descriptor string) (types.ColumnSpec, error) {
	tokens := tokenize(descriptor)
	if len(tokens) == 0 {
		return types.ColumnSpec{}, &ColumnError{Descriptor: descriptor, Message: "empty descriptor"}
	}
	if IsTableConstraint(descriptor) {
		return types.ColumnSpec{}, &ColumnError{Descriptor: descriptor, Message: "table constraint, not a column"}
	}

	col := types.ColumnSpec{
		Name:     unquote(tokens[0]),
		SQLType:  types.SQLTypeText,
		Nullable: true,
	}

	rest := tokens[1:]
	var typeErr error
	if len(rest) == 0 || columnKeywords[strings.ToUpper(rest[0])] {
		typeErr = &MissingTypeError{Column: col.Name}
	} else {
		col.RawType = strings.ToUpper(rest[0])
		if t, ok := NormalizeType(rest[0]); ok {
			col.SQLType = t
		}
		if strings.HasSuffix(col.RawType, "SERIAL") {
			col.HasDefault = true
		}
		rest = rest[1:]
	}

	applyModifiers(&col, rest)
	return col, typeErr
}

// applyModifiers reads NOT NULL, PRIMARY KEY, UNIQUE, DEFAULT and REFERENCES.
func applyModifiers(col *types.ColumnSpec, tokens []string) {
	for i := 0; i < len(tokens); i++ {
		tok := strings.ToUpper(tokens[i])
		next := ""
		if i+1 < len(tokens) {
			next = strings.ToUpper(tokens[i+1])
		}
		switch {
		case tok == "NOT" && next == "NULL":
			col.Nullable = false
			i++
		case tok == "PRIMARY" && next == "KEY":
			col.PrimaryKey = true
			col.Nullable = false
			i++
		case tok == "UNIQUE":
			col.Unique = true
		case tok == "DEFAULT" && i+1 < len(tokens):
			col.HasDefault = true
			col.Default = tokens[i+1]
			i++
		case tok == "REFERENCES" && i+1 < len(tokens):
			col.ReferencedTable = referenceTarget(tokens[i+1])
			i++
		}
	}
}

// FromField converts a structured field record into a ColumnSpec.
func FromField(f types.FieldSpec) (types.ColumnSpec, error) {
	col := types.ColumnSpec{
		Name:            f.Name,
		SQLType:         types.SQLTypeText,
		RawType:         strings.ToUpper(f.Type),
		Nullable:        !f.NotNull && !f.PrimaryKey,
		HasDefault:      f.Default != "",
		Default:         f.Default,
		PrimaryKey:      f.PrimaryKey,
		Unique:          f.Unique,
		ReferencedTable: referenceTarget(f.References),
	}
	if f.Name == "" {
		return col, &ColumnError{Descriptor: f.Type, Message: "field has no name"}
	}
	if f.Type == "" {
		col.RawType = ""
		return col, &MissingTypeError{Column: f.Name}
	}
	if t, ok := NormalizeType(f.Type); ok {
		col.SQLType = t
	}
	if strings.HasSuffix(col.RawType, "SERIAL") {
		col.HasDefault = true
	}
	return col, nil
}

// ResolveColumns returns the parsed columns of a table, preferring structured
// fields. Table constraints are skipped and missing types fall back to text.
func ResolveColumns(table types.TableSpec) ([]types.ColumnSpec, error) {
	var cols []types.ColumnSpec
	var missing *MissingTypeError

	if len(table.Fields) > 0 {
		for _, f := range table.Fields {
			col, err := FromField(f)
			if err != nil && !errors.As(err, &missing) {
				return nil, err
			}
			cols = append(cols, col)
		}
		return cols, nil
	}

	for _, desc := range table.Columns {
		if IsTableConstraint(desc) {
			continue
		}
		col, err := ParseColumn(desc)
		if err != nil && !errors.As(err, &missing) {
			return nil, err
		}
		cols = append(cols, col)
	}
	return cols, nil
}

// TableConstraints returns the table-level constraint descriptors of a table.
func TableConstraints(table types.TableSpec) []string {
	var out []string
	for _, desc := range table.Columns {
		if IsTableConstraint(desc) {
			out = append(out, strings.TrimSpace(desc))
		}
	}
	return out
}

// ExtractReferences returns every table named by a REFERENCES token in the
// table's descriptors or structured fields, lowercased and in order.
func ExtractReferences(table types.TableSpec) []string {
	var refs []string
	for _, f := range table.Fields {
		if f.References != "" {
			refs = append(refs, referenceTarget(f.References))
		}
	}
	for _, desc := range table.Columns {
		for _, m := range referencesPattern.FindAllStringSubmatch(desc, -1) {
			refs = append(refs, referenceTarget(m[1]))
		}
	}
	return refs
}

// referenceTarget reduces "public.\"Users\"(id)" to "users".
func referenceTarget(raw string) string {
	target := strings.TrimSpace(raw)
	if i := strings.Index(target, "("); i >= 0 {
		target = target[:i]
	}
	target = unquote(target)
	if i := strings.LastIndex(target, "."); i >= 0 {
		target = target[i+1:]
	}
	return strings.ToLower(unquote(target))
}

func unquote(s string) string {
	return strings.Trim(s, "\"`")
}

// tokenize splits a descriptor on whitespace while keeping parenthesized
// groups and quoted literals together.
func tokenize(s string) []string {
	var tokens []string
	var cur strings.Builder
	depth := 0
	var quote rune

	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	for _, r := range s {
		switch {
		case quote != 0:
			cur.WriteRune(r)
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
			cur.WriteRune(r)
		case r == '(':
			depth++
			cur.WriteRune(r)
		case r == ')':
			if depth > 0 {
				depth--
			}
			cur.WriteRune(r)
		case (r == ' ' || r == '\t' || r == '\n' || r == ',') && depth == 0:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return tokens
}
