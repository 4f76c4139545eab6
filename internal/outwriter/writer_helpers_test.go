package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestCreateFormatters(t *testing.T) {
	tests := []struct {
		name      string
		precision int
		value     float64
		expected  string
	}{
		{name: "precision 1", precision: 1, value: 3.14159, expected: "3.1"},
		{name: "precision 2", precision: 2, value: 3.14159, expected: "3.14"},
		{name: "precision 3", precision: 3, value: 3.14159, expected: "3.142"},
		{name: "negative value", precision: 2, value: -42.567, expected: "-42.57"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fmtFloat, fmtOptional := createFormatters(tt.precision)
			assert.Equal(t, tt.expected, fmtFloat(tt.value))
			assert.Equal(t, tt.expected, fmtOptional(&tt.value))
			assert.Empty(t, fmtOptional(nil))
		})
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, map[string]any{"name": "test", "value": 42}))
	assert.Equal(t, "{\n  \"name\": \"test\",\n  \"value\": 42\n}\n", buf.String())

	err := writeJSON(&buf, make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to encode JSON")
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeYAML(&buf, map[string]any{"family": "flow", "metrics": []string{"a", "b"}}))

	var out map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "flow", out["family"])
	assert.Contains(t, buf.String(), "  - a")
}

func TestWriteCSVWithHeader(t *testing.T) {
	tests := []struct {
		name     string
		header   []string
		rows     [][]string
		expected string
	}{
		{
			name:     "simple csv",
			header:   []string{"family", "metric"},
			rows:     [][]string{{"flow", "merged_count"}, {"quality", "revert_rate"}},
			expected: "family,metric\nflow,merged_count\nquality,revert_rate\n",
		},
		{
			name:     "empty rows",
			header:   []string{"col1", "col2"},
			expected: "col1,col2\n",
		},
		{
			name:     "values with commas",
			header:   []string{"family", "error"},
			rows:     [][]string{{"quality", "fetch failed, retry later"}},
			expected: "family,error\nquality,\"fetch failed, retry later\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := writeCSVWithHeader(&buf, tt.header, func(w *csv.Writer) error {
				for _, row := range tt.rows {
					if err := w.Write(row); err != nil {
						return err
					}
				}
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, buf.String())
		})
	}

	t.Run("row error propagates", func(t *testing.T) {
		var buf bytes.Buffer
		err := writeCSVWithHeader(&buf, []string{"col"}, func(*csv.Writer) error { return assert.AnError })
		assert.Equal(t, assert.AnError, err)
	})
}

func TestWriteWithFile(t *testing.T) {
	t.Run("stdout", func(t *testing.T) {
		called := false
		err := writeWithFile("", func(w io.Writer) error {
			called = true
			return nil
		}, "Test message")
		require.NoError(t, err)
		assert.True(t, called)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.json")
		err := writeWithFile(path, func(w io.Writer) error {
			return writeJSON(w, map[string]int{"count": 123})
		}, "Wrote JSON")
		require.NoError(t, err)

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		var out map[string]float64
		require.NoError(t, json.Unmarshal(content, &out))
		assert.InDelta(t, 123, out["count"], 0)
	})

	t.Run("writer error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.txt")
		err := writeWithFile(path, func(io.Writer) error { return assert.AnError }, "Test message")
		assert.Equal(t, assert.AnError, err)
	})

	t.Run("invalid path", func(t *testing.T) {
		err := writeWithFile("/nonexistent/path/file.txt", func(io.Writer) error { return nil }, "Test message")
		require.Error(t, err)
	})
}
