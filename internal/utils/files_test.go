package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTablesFlag(t *testing.T) {
	tests := []struct {
		name    string
		flag    string
		want    map[string][]string
		wantErr bool
	}{
		{
			name: "empty",
			flag: "",
			want: map[string][]string{},
		},
		{
			name: "plain tables",
			flag: "orders,users",
			want: map[string][]string{"orders": nil, "users": nil},
		},
		{
			name: "with columns",
			flag: "orders[id,amount],users",
			want: map[string][]string{"orders": {"id", "amount"}, "users": nil},
		},
		{
			name: "spaces stripped",
			flag: "orders [id, amount], users",
			want: map[string][]string{"orders": {"id", "amount"}, "users": nil},
		},
		{
			name:    "missing bracket",
			flag:    "orders[id",
			wantErr: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseTablesFlag(tc.flag)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestTableOrder(t *testing.T) {
	assert.Equal(t, []string{"orders", "users", "products"}, TableOrder("orders[id,amount],users,products[id]"))
	assert.Nil(t, TableOrder(""))
}

func TestWriteOutputFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")

	path, err := WriteOutputFile(dir, "report.md", []byte("# hi\n"))
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# hi\n", string(content))
}
