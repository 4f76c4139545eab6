package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAbbreviateName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"popcorn", "popcorn"},
		{"Samuel Huang", "Samuel H"},
		{"First Second Third", "First T"},
		{"Ava (Billy) Cathy", "Ava C"},
		{"Anne-Marie Smith", "Anne-Marie S"},
		{"  Alice  ", "Alice"},
		{"J. R. R. Tolkien", "J T"},
		{"*Security-Bot*", "Security-Bot"},
		{"jane.doe@example.com", "jane.doe"},
		{"renovate[bot]", "renovate[bot]"},
		{"Hans Müller", "Hans M"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AbbreviateName(tt.name))
		})
	}
}

func TestAuthorKey(t *testing.T) {
	assert.Equal(t, "jane@example.com", AuthorKey("Jane", " Jane@Example.com "))
	assert.Equal(t, "Jane Doe", AuthorKey(" Jane Doe ", ""))
	assert.Empty(t, AuthorKey("", ""))
}

func TestFormatAuthors(t *testing.T) {
	assert.Equal(t, "Samuel H, jane", FormatAuthors([]string{"Samuel Huang", "jane@example.com"}))
	assert.Empty(t, FormatAuthors(nil))
}
