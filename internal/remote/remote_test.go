package remote

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_NotConfigured(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"no driver", Config{}},
		{"supabase without key", Config{Driver: DriverSupabase, URL: "https://x.supabase.co"}},
		{"supabase without url", Config{Driver: DriverSupabase, Key: "k"}},
		{"postgres without dsn", Config{Driver: DriverPostgres}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs, err := Open(tt.cfg)
			require.ErrorIs(t, err, ErrNotConfigured)
			assert.Nil(t, rs)
		})
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "mysql"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotConfigured)
}

func TestOpen_Drivers(t *testing.T) {
	rs, err := Open(Config{Driver: DriverSupabase, URL: "https://x.supabase.co/", Key: "k"})
	require.NoError(t, err)
	sb, ok := rs.(*Supabase)
	require.True(t, ok)
	assert.Equal(t, "https://x.supabase.co/rest/v1", sb.baseURL)
	assert.Equal(t, DefaultTimeout, sb.httpClient.Timeout)

	rs, err = Open(Config{Driver: DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, rs)

	rs, err = Open(Config{Driver: DriverPostgres, DSN: "host=localhost user=aads dbname=aads sslmode=disable"})
	require.NoError(t, err)
	assert.IsType(t, &Postgres{}, rs)
	require.NoError(t, rs.Close())
}
