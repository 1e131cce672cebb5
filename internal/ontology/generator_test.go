package ontology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/schemaplane/db-ontology-builder/internal/metadata"
)

func TestNamingHelpers(t *testing.T) {
	tests := []struct {
		in     string
		pascal string
		camel  string
		human  string
	}{
		{in: "users", pascal: "Users", camel: "users", human: "Users"},
		{in: "order_items", pascal: "OrderItems", camel: "orderItems", human: "Order Items"},
		{in: "createdAt", pascal: "CreatedAt", camel: "createdAt", human: "Created At"},
		{in: "user_id", pascal: "UserId", camel: "userId", human: "User Id"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.pascal, PascalCase(tc.in))
			assert.Equal(t, tc.camel, CamelCase(tc.in))
			assert.Equal(t, tc.human, Humanize(tc.in))
		})
	}
}

func TestMapDataType(t *testing.T) {
	tests := []struct {
		sqlType string
		want    DataType
	}{
		{sqlType: "integer", want: TypeInteger},
		{sqlType: "BIGINT", want: TypeInteger},
		{sqlType: "numeric(10,2)", want: TypeDouble},
		{sqlType: "varchar(255)", want: TypeString},
		{sqlType: "timestamp with time zone", want: TypeTimestamp},
		{sqlType: "timestamptz", want: TypeTimestamp},
		{sqlType: "date", want: TypeDate},
		{sqlType: "boolean", want: TypeBoolean},
		{sqlType: "uuid", want: TypeString},
		{sqlType: "something_custom", want: TypeString},
	}
	for _, tc := range tests {
		t.Run(tc.sqlType, func(t *testing.T) {
			assert.Equal(t, tc.want, mapDataType(tc.sqlType))
		})
	}
}

func TestGenerate(t *testing.T) {
	md := &metadata.DatabaseMetadata{
		DatabaseName: "shop",
		Tables: []metadata.Table{
			{
				Name:   "order_items",
				Schema: "public",
				Columns: []metadata.Column{
					{Name: "id", DataType: "bigint", IsPrimaryKey: true},
					{Name: "product_id", DataType: "bigint"},
					{Name: "unit_price", DataType: "numeric(10,2)", Nullable: true},
				},
				Comment: "Line items per order",
			},
			{
				Name:   "products",
				Schema: "public",
				Columns: []metadata.Column{
					{Name: "id", DataType: "bigint", IsPrimaryKey: true},
				},
			},
		},
		DetectedRelationships: []metadata.DetectedRelationship{
			{
				SourceTable: "order_items", SourceColumn: "product_id",
				TargetTable: "products", TargetColumn: "id",
				Confidence:      metadata.ConfidenceHigh,
				DetectionMethod: metadata.MethodForeignKey,
			},
			// References a table that was not extracted.
			{
				SourceTable: "order_items", SourceColumn: "order_id",
				TargetTable: "orders", TargetColumn: "id",
				Confidence:      metadata.ConfidenceMedium,
				DetectionMethod: metadata.MethodNamingConvention,
			},
		},
	}

	ont := NewGenerator(zap.NewNop()).Generate(md)

	require.Len(t, ont.ObjectTypes, 2)
	obj := ont.GetObjectType("OrderItems")
	require.NotNil(t, obj)
	assert.Equal(t, "Order Items", obj.DisplayName)
	assert.Equal(t, "public.order_items", obj.SourceTable)
	assert.Equal(t, "Line items per order", obj.Description)
	assert.Equal(t, "id", obj.PrimaryKey)

	price := obj.GetProperty("unitPrice")
	require.NotNil(t, price)
	assert.Equal(t, TypeDouble, price.DataType)
	assert.False(t, price.Required)
	assert.Equal(t, "unit_price", price.SourceColumn)

	id := obj.GetProperty("id")
	require.NotNil(t, id)
	assert.True(t, id.IsPrimaryKey)
	assert.True(t, id.Required)

	// Only the link whose endpoints both exist survives.
	require.Len(t, ont.LinkTypes, 1)
	link := ont.LinkTypes[0]
	assert.Equal(t, "hasProduct", link.APIName)
	assert.Equal(t, "OrderItems", link.SourceObjectType)
	assert.Equal(t, "Products", link.TargetObjectType)
	assert.Equal(t, "many-to-one", link.Cardinality)
	assert.Equal(t, "productId", link.SourceProperty)
	assert.Contains(t, link.CreationReason, "declared foreign key")

	s := ont.Summarize()
	assert.Equal(t, Summary{ObjectTypes: 2, Properties: 4, LinkTypes: 1}, s)
}

func TestLinkNameFallback(t *testing.T) {
	assert.Equal(t, "hasUser", linkName("user_id", "Users"))
	assert.Equal(t, "hasParentAccount", linkName("parent_account_fk", "Accounts"))
	assert.Equal(t, "relatesToUsers", linkName("owner", "Users"))
}
