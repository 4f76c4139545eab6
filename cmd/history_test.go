package cmd

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/devflow/schema"
)

func TestHistoryBackendFromConfig(t *testing.T) {
	t.Cleanup(viper.Reset)

	tests := []struct {
		name     string
		backend  string
		connStr  string
		expected schema.DatabaseBackend
		wantErr  bool
	}{
		{name: "empty means disabled", backend: "", expected: schema.NoneBackend},
		{name: "sqlite default path", backend: "SQLite", expected: schema.SQLiteBackend},
		{name: "postgres with dsn", backend: "postgresql", connStr: "host=localhost port=5432 dbname=devflow", expected: schema.PostgreSQLBackend},
		{name: "mysql without connection", backend: "mysql", wantErr: true},
		{name: "unknown backend", backend: "redis", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Set("history-backend", tt.backend)
			viper.Set("history-db-connect", tt.connStr)

			backend, connStr, err := historyBackendFromConfig()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, backend)
			assert.Equal(t, tt.connStr, connStr)
		})
	}
}
