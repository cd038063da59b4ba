package timex

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuration_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{`"3s"`, 3 * time.Second, false},
		{`"15m"`, 15 * time.Minute, false},
		{`2000000000`, 2 * time.Second, false},
		{`"soon"`, 0, true},
		{`true`, 0, true},
		{`{`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var d Duration
			err := json.Unmarshal([]byte(tt.in), &d)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Duration)
		})
	}
}

func TestDuration_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Every Duration `json:"every"`
	}{Duration{90 * time.Second}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"every":"1m30s"}`, string(b))
}
