package engine

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bracketbot/internal/strategy"
)

func TestDecisionLoggerAppendsNDJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decisions.ndjson")
	logger, err := NewDecisionLogger(path, "run-1")
	require.NoError(t, err)

	logger.Append(Decision{
		RunID:     logger.RunID(),
		Timestamp: time.Date(2026, 1, 5, 15, 15, 1, 0, time.UTC),
		Mode:      strategy.ModeIntraday,
		Symbol:    "TSLA",
		Price:     100.2,
		Signal:    strategy.Buy,
		Result:    "order_submitted",
		OrderID:   "abc",
	})
	logger.Append(Decision{
		RunID:          logger.RunID(),
		Signal:         strategy.Sell,
		Result:         "suppressed",
		SuppressReason: "not_armed",
	})
	require.NoError(t, logger.Close())

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	var decisions []Decision
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var d Decision
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &d))
		decisions = append(decisions, d)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, decisions, 2)
	assert.Equal(t, "run-1", decisions[0].RunID)
	assert.Equal(t, strategy.Buy, decisions[0].Signal)
	assert.Equal(t, "abc", decisions[0].OrderID)
	assert.Equal(t, "not_armed", decisions[1].SuppressReason)
}
