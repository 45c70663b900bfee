package types

// SQLType is the storage type of a column after normalization.
type SQLType string

// Storage types understood by the emitters.
const (
	SQLTypeUUID      SQLType = "uuid"
	SQLTypeText      SQLType = "text"
	SQLTypeInteger   SQLType = "integer"
	SQLTypeDecimal   SQLType = "decimal"
	SQLTypeBoolean   SQLType = "boolean"
	SQLTypeDate      SQLType = "date"
	SQLTypeTimestamp SQLType = "timestamp"
	SQLTypeJSON      SQLType = "json"
)

// ColumnSpec is a parsed column definition. It is derived once per run from a
// TableSpec and never mutated.
type ColumnSpec struct {
	Name            string  `json:"name"`
	SQLType         SQLType `json:"sql_type"`
	RawType         string  `json:"raw_type,omitempty"`
	Nullable        bool    `json:"nullable"`
	HasDefault      bool    `json:"has_default"`
	Default         string  `json:"default,omitempty"`
	PrimaryKey      bool    `json:"primary_key,omitempty"`
	Unique          bool    `json:"unique,omitempty"`
	ReferencedTable string  `json:"referenced_table,omitempty"`
}

// Optional reports whether generated contracts may omit the column: it is
// nullable and nothing fills it in.
func (c ColumnSpec) Optional() bool {
	return c.Nullable && !c.HasDefault
}
