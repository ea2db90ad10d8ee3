package timezone_test

import (
	"marina/shared/timezone"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNow(t *testing.T) {
	now := timezone.Now()

	assert.False(t, now.IsZero())
	assert.Equal(t, timezone.GetLocation(), now.Location())
}

func TestFormat(t *testing.T) {
	instant := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)

	formatted := timezone.Format(instant, time.RFC3339)
	parsed, err := time.Parse(time.RFC3339, formatted)

	require.NoError(t, err)
	assert.True(t, instant.Equal(parsed))
}

func TestParseDay(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{name: "calendar day", input: "2025-09-01", want: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)},
		{name: "leap day", input: "2028-02-29", want: time.Date(2028, 2, 29, 0, 0, 0, 0, time.UTC)},
		{name: "invalid month", input: "2025-13-01", wantErr: true},
		{name: "wrong layout", input: "01-09-2025", wantErr: true},
		{name: "timestamp", input: "2025-09-01T10:00:00Z", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := timezone.ParseDay(tt.input)
			if tt.wantErr {
				assert.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got))
			assert.Equal(t, tt.input, timezone.FormatDay(got))
		})
	}
}
