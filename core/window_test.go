package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/devflow/internal/contract"
)

func TestNewWindow(t *testing.T) {
	end := t0.Add(10 * day)
	w, err := NewWindow(7, end, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(7), w.SubjectID)
	assert.Equal(t, t0, w.Start)
	assert.Equal(t, 10*day, w.End.Sub(w.Start))
	assert.Equal(t, 10, w.LengthDays)
	assert.True(t, w.Contains(w.Start))
	assert.True(t, w.Contains(w.End))
	assert.False(t, w.Contains(w.End.Add(1)))
}

func TestNewWindowValidation(t *testing.T) {
	for _, days := range []int{0, -3, contract.MaxWindowDays + 1} {
		_, err := NewWindow(1, t0, days)
		assert.True(t, contract.IsValidation(err), "days=%d", days)
	}
	_, err := NewWindow(1, time.Time{}, 1)
	assert.True(t, contract.IsValidation(err), "zero end")
}
