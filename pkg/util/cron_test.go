package util

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCronExpr(t *testing.T) {
	tests := []struct {
		expr    string
		wantErr bool
	}{
		{"0 2 1 * *", false},
		{"*/15 * * * *", false},
		{"0 0 * * MON", false},
		{"", true},
		{"* * * *", true},
		{"0 0 0 * * *", true},
		{"61 * * * *", true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			err := ValidateCronExpr(tt.expr)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNextCronTime(t *testing.T) {
	from := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

	next, err := NextCronTime("0 2 1 * *", from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 2, 1, 2, 0, 0, 0, time.UTC), next)

	dhaka := time.FixedZone("BST", 6*60*60)
	next, err = NextCronTime("30 9 * * *", from.In(dhaka))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 10, 9, 30, 0, 0, time.UTC), next)

	_, err = NextCronTime("bogus", from)
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	dev := newLogger(&buf, "development", "")
	dev.Debug("checked in", "channel", "QR")
	assert.Contains(t, buf.String(), "msg=\"checked in\"")

	buf.Reset()
	prod := newLogger(&buf, "production", "")
	prod.Debug("hidden")
	prod.Info("checked in", "channel", "NFC")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"channel":"NFC"`)

	buf.Reset()
	quiet := newLogger(&buf, "production", "warn")
	quiet.Info("hidden")
	quiet.Warn("slow query")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "slow query")

	buf.Reset()
	fallback := newLogger(&buf, "production", "loud")
	fallback.Info("kept")
	assert.Contains(t, buf.String(), "kept")

	assert.NotNil(t, NewLogger("production", ""))
}
