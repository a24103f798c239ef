package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"imgseal",
				"-m", "encrypt", "-i", "in", "-o", "out", "-x", ".jpg", "-k", "00ff", "-f", "map.json",
				"-d", "db", "-t", "customers", "-kc", "phone", "-rc", "photo_id", "-rt", "text",
				"-n", "4", "-ft", "5", "-continue", "-sr", "2",
				"-sink", "s3", "-u", "user", "-p", "password", "-b", "bucket", "-g", "eu-west-1",
				"-e", "http://endpoint", "-prefix", "enc/", "-l", "text", "-ll", "debug",
				"-id", "abc", "-out", "restored.png",
			},
			expected: &Config{
				Mode:            "encrypt",
				SourceDir:       "in",
				DestDir:         "out",
				InputExt:        ".jpg",
				HexKey:          "00ff",
				MappingPath:     "map.json",
				DatabaseDSN:     "db",
				Table:           "customers",
				KeyColumn:       "phone",
				RefColumn:       "photo_id",
				RefType:         "text",
				Concurrency:     4,
				FileTimeout:     5 * time.Second,
				ContinueOnError: true,
				SyncRetries:     2,
				Sink:            "s3",
				S3RootUser:      "user",
				S3RootPassword:  "password",
				S3Bucket:        "bucket",
				S3Region:        "eu-west-1",
				S3BaseEndpoint:  "http://endpoint",
				S3Prefix:        "enc/",
				LogFormat:       "text",
				LogLevel:        "debug",
				DecryptID:       "abc",
				DecryptOut:      "restored.png",
			},
		},
		{
			name:     "foreign flags ignored",
			args:     []string{"imgseal", "-c", "conf.json", "-zz", "1", "-m", "sync"},
			expected: &Config{Mode: "sync"},
		},
		{
			name:        "bad int panics",
			args:        []string{"imgseal", "-n", "many"},
			expectPanic: true,
		},
	}

	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(tt.expected, config))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}

func TestParseFlags_KeepsLayeredFileTimeout(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		name string
		env  string
		args []string
		want time.Duration
	}{
		{"sub-second env value survives", "1500ms", []string{"imgseal"}, 1500 * time.Millisecond},
		{"below one second is not zeroed", "500ms", []string{"imgseal", "-m", "encrypt"}, 500 * time.Millisecond},
		{"explicit flag wins", "1500ms", []string{"imgseal", "-ft", "5"}, 5 * time.Second},
		{"explicit zero disables", "1500ms", []string{"imgseal", "-ft", "0"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.LoadDefaults()
			parseEnv(cfg, envFrom(map[string]string{"FILE_TIMEOUT": tt.env}))

			os.Args = tt.args
			parseFlags(cfg)

			assert.Equal(t, tt.want, cfg.FileTimeout)
		})
	}
}
