package dbtypes

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycleStates(t *testing.T) {
	active := Active()
	assert.True(t, active.IsActive())
	assert.Equal(t, LifecycleActive, active.State())
	_, ok := active.DeletedAt()
	assert.False(t, ok)

	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.FixedZone("ICT", 7*3600))
	deleted := Deleted(at)
	assert.False(t, deleted.IsActive())
	assert.Equal(t, LifecycleDeleted, deleted.State())
	got, ok := deleted.DeletedAt()
	require.True(t, ok)
	assert.True(t, got.Equal(at))
	assert.Equal(t, time.UTC, got.Location())
}

func TestLifecycleValueAndScan(t *testing.T) {
	v, err := Active().Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	v, err = Deleted(at).Value()
	require.NoError(t, err)
	assert.Equal(t, at, v)

	var l Lifecycle
	require.NoError(t, l.Scan(nil))
	assert.True(t, l.IsActive())

	require.NoError(t, l.Scan("2024-05-01 10:00:00+00:00"))
	got, ok := l.DeletedAt()
	require.True(t, ok)
	assert.True(t, got.Equal(at))

	require.NoError(t, l.Scan([]byte("2024-05-01T10:00:00Z")))
	assert.False(t, l.IsActive())

	assert.Error(t, l.Scan(42))
	assert.Error(t, l.Scan("yesterday"))
}

func TestLifecycleJSON(t *testing.T) {
	raw, err := json.Marshal(Active())
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":"active"}`, string(raw))

	raw, err = json.Marshal(Deleted(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":"deleted","deleted_at":"2024-05-01T00:00:00Z"}`, string(raw))
}
