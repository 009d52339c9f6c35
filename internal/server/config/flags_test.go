package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected Config
		wantErr  bool
	}{
		{
			name: "all flags",
			args: []string{
				"-a", "127.0.0.1:9090", "-w", ":8081", "-u", "https://tasks.example.com",
				"-d", "db", "-s", "secret", "-t", "5", "-r", "redis://r:6379/1",
			},
			expected: Config{
				EndpointAddrGRPC:            "127.0.0.1:9090",
				EndpointAddrHTTP:            ":8081",
				BaseURL:                     "https://tasks.example.com",
				DatabaseDSN:                 "db",
				SecretKey:                   "secret",
				AccessTokenValidityDuration: 5 * time.Minute,
				RedisURL:                    "redis://r:6379/1",
			},
		},
		{
			name:     "unknown flags are ignored",
			args:     []string{"-c", "config.json", "-x", "1", "-a", ":1"},
			expected: Config{EndpointAddrGRPC: ":1"},
		},
		{
			name:    "bad ttl",
			args:    []string{"-t", "soon"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Config
			err := parseFlags(&got, tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseFlags_KeepsTTLWhenUnset(t *testing.T) {
	c := Config{AccessTokenValidityDuration: 90 * time.Second}
	assert.NoError(t, parseFlags(&c, nil))
	assert.Equal(t, 90*time.Second, c.AccessTokenValidityDuration)
}
