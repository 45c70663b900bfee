package blueprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/module-builder/internal/types"
)

func TestParseColumn_Basic(t *testing.T) {
	col, err := ParseColumn("email TEXT")
	require.NoError(t, err)
	assert.Equal(t, "email", col.Name)
	assert.Equal(t, types.SQLTypeText, col.SQLType)
	assert.True(t, col.Nullable)
	assert.False(t, col.HasDefault)
	assert.True(t, col.Optional())
}

func TestParseColumn_NotNull(t *testing.T) {
	col, err := ParseColumn("email TEXT NOT NULL")
	require.NoError(t, err)
	assert.False(t, col.Nullable)
	assert.False(t, col.Optional())
}

func TestParseColumn_Default(t *testing.T) {
	col, err := ParseColumn("min_points INTEGER DEFAULT 0")
	require.NoError(t, err)
	assert.Equal(t, types.SQLTypeInteger, col.SQLType)
	assert.True(t, col.Nullable)
	assert.True(t, col.HasDefault)
	assert.Equal(t, "0", col.Default)
	assert.False(t, col.Optional())
}

func TestParseColumn_PrimaryKey(t *testing.T) {
	col, err := ParseColumn("id UUID PRIMARY KEY DEFAULT gen_random_uuid()")
	require.NoError(t, err)
	assert.Equal(t, types.SQLTypeUUID, col.SQLType)
	assert.True(t, col.PrimaryKey)
	assert.False(t, col.Nullable)
	assert.Equal(t, "gen_random_uuid()", col.Default)
}

func TestParseColumn_References(t *testing.T) {
	col, err := ParseColumn("tier_id UUID NOT NULL REFERENCES loyalty_tiers(id) ON DELETE CASCADE")
	require.NoError(t, err)
	assert.Equal(t, "loyalty_tiers", col.ReferencedTable)
	assert.False(t, col.Nullable)
}

func TestParseColumn_ParenthesizedType(t *testing.T) {
	col, err := ParseColumn("price DECIMAL(10, 2) NOT NULL DEFAULT 0")
	require.NoError(t, err)
	assert.Equal(t, types.SQLTypeDecimal, col.SQLType)
	assert.Equal(t, "DECIMAL(10, 2)", col.RawType)
	assert.True(t, col.HasDefault)
}

func TestParseColumn_QuotedDefault(t *testing.T) {
	col, err := ParseColumn("status VARCHAR(20) DEFAULT 'in progress'")
	require.NoError(t, err)
	assert.Equal(t, types.SQLTypeText, col.SQLType)
	assert.Equal(t, "'in progress'", col.Default)
}

func TestParseColumn_TypeMapping(t *testing.T) {
	tests := map[string]types.SQLType{
		"a uuid":        types.SQLTypeUUID,
		"a varchar(40)": types.SQLTypeText,
		"a BIGINT":      types.SQLTypeInteger,
		"a NUMERIC":     types.SQLTypeDecimal,
		"a BOOL":        types.SQLTypeBoolean,
		"a DATE":        types.SQLTypeDate,
		"a TIMESTAMPTZ": types.SQLTypeTimestamp,
		"a JSONB":       types.SQLTypeJSON,
	}
	for desc, want := range tests {
		col, err := ParseColumn(desc)
		require.NoError(t, err, desc)
		assert.Equal(t, want, col.SQLType, desc)
	}
}

func TestParseColumn_MissingType(t *testing.T) {
	col, err := ParseColumn("nickname")
	require.Error(t, err)
	var missing *MissingTypeError
	assert.ErrorAs(t, err, &missing)
	assert.Equal(t, "nickname", col.Name)
	assert.Equal(t, types.SQLTypeText, col.SQLType)

	_, err = ParseColumn("nickname NOT NULL")
	assert.ErrorAs(t, err, &missing)
}

func TestParseColumn_SerialHasDefault(t *testing.T) {
	col, err := ParseColumn("seq BIGSERIAL")
	require.NoError(t, err)
	assert.True(t, col.HasDefault)
}

func TestIsTableConstraint(t *testing.T) {
	assert.True(t, IsTableConstraint("UNIQUE(organization_id, name)"))
	assert.True(t, IsTableConstraint("PRIMARY KEY (a, b)"))
	assert.True(t, IsTableConstraint("CONSTRAINT fk_x FOREIGN KEY (x) REFERENCES y(id)"))
	assert.False(t, IsTableConstraint("unique_code TEXT"))
	assert.False(t, IsTableConstraint("name TEXT UNIQUE"))
}

func TestResolveColumns_SkipsConstraints(t *testing.T) {
	table := types.TableSpec{
		Name: "loyalty_tiers",
		Columns: []string{
			"id UUID PRIMARY KEY",
			"name TEXT NOT NULL",
			"UNIQUE(organization_id, name)",
		},
	}
	cols, err := ResolveColumns(table)
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.Equal(t, "name", cols[1].Name)
	assert.Equal(t, []string{"UNIQUE(organization_id, name)"}, TableConstraints(table))
}

func TestResolveColumns_PrefersFields(t *testing.T) {
	table := types.TableSpec{
		Name:    "rewards",
		Columns: []string{"ignored TEXT"},
		Fields: []types.FieldSpec{
			{Name: "id", Type: "uuid", PrimaryKey: true},
			{Name: "points", Type: "integer", Default: "0"},
			{Name: "tier_id", Type: "uuid", NotNull: true, References: "loyalty_tiers"},
		},
	}
	cols, err := ResolveColumns(table)
	require.NoError(t, err)
	require.Len(t, cols, 3)
	assert.False(t, cols[0].Nullable)
	assert.True(t, cols[1].HasDefault)
	assert.False(t, cols[1].Optional())
	assert.Equal(t, "loyalty_tiers", cols[2].ReferencedTable)
}

func TestExtractReferences(t *testing.T) {
	table := types.TableSpec{
		Columns: []string{
			"tier_id UUID REFERENCES loyalty_tiers(id)",
			"org_id UUID REFERENCES public.\"Organizations\"(id)",
			"CONSTRAINT fk FOREIGN KEY (member_id) REFERENCES members (id)",
		},
		Fields: []types.FieldSpec{{Name: "x", Type: "uuid", References: "profiles(id)"}},
	}
	assert.Equal(t, []string{"profiles", "loyalty_tiers", "organizations", "members"}, ExtractReferences(table))
}
