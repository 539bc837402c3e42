package repository

import (
	"testing"
	"time"

	"SignalScan/internal/domain/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClickHouseStoreStatements(t *testing.T) {
	s := NewClickHouseStore(nil)
	fixed := time.Date(2024, 10, 10, 10, 0, 0, 0, time.FixedZone("IST", 19800))
	s.now = func() time.Time { return fixed }

	payload := models.SignalPayload{Symbol: "TCS", SignalType: "reversal_bear", Timestamp: "2024-10-10 10:00:00"}

	query, args, err := s.latestInsert("signals/reversal_bear/TCS/", payload)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO signal_latest (path,payload,updated_at) VALUES (?,?,?)", query)
	require.Len(t, args, 3)
	assert.Equal(t, "/signals/reversal_bear/TCS", args[0])
	assert.JSONEq(t, `{"symbol":"TCS","signal_type":"reversal_bear","timestamp":"2024-10-10 10:00:00"}`, args[1].(string))
	assert.Equal(t, fixed.UTC(), args[2])

	id := uuid.New()
	query, args, err = s.historyInsert(models.HistoryPath(models.SignalReversalBear), id, payload)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO signal_history (path,push_id,payload,created_at) VALUES (?,?,?,?)", query)
	assert.Equal(t, "/signals/history/reversal_bear", args[0])
	assert.Equal(t, id.String(), args[1])
}

func TestClickHouseSchemaTables(t *testing.T) {
	require.Len(t, ClickHouseSchema, 2)
	assert.Contains(t, ClickHouseSchema[0], "ReplacingMergeTree")
	assert.Contains(t, ClickHouseSchema[1], "MergeTree")
}
