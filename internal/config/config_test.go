package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	t.Parallel()
	cfg := Default()

	assert.Equal(t, "amazonec2", cfg.Machine.Driver)
	assert.Equal(t, "eu-west-2", cfg.Machine.Region)
	assert.Equal(t, 100, cfg.Machine.RootSize)
	assert.Equal(t, "a", cfg.Machine.Zone)
	assert.Equal(t, "ami-0d9ba70fd9e495233", cfg.Machine.AMI)
	assert.Equal(t, "admin", cfg.Machine.SSHUser)
	assert.Equal(t, "overlay2", cfg.Machine.EngineStorageDriver)
	assert.Equal(t, "docker-machine", cfg.Executor.DockerMachine)
	assert.Equal(t, "docker", cfg.Executor.Docker)
	assert.Equal(t, 10*time.Second, cfg.Executor.KillGrace)
	assert.NoError(t, cfg.Validate())
}

func TestMachineArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		machine Machine
		want    []string
	}{
		{
			name:    "defaults",
			machine: Default().Machine,
			want: []string{
				"--driver", "amazonec2",
				"--amazonec2-region", "eu-west-2",
				"--amazonec2-root-size", "100",
				"--amazonec2-zone", "a",
				"--amazonec2-ami", "ami-0d9ba70fd9e495233",
				"--amazonec2-ssh-user", "admin",
				"--engine-storage-driver", "overlay2",
			},
		},
		{
			name: "credentials",
			machine: Machine{
				Driver:       "amazonec2",
				AccessKey:    "AKIA",
				SecretKey:    "secret",
				SessionToken: "token",
			},
			want: []string{
				"--driver", "amazonec2",
				"--amazonec2-access-key", "AKIA",
				"--amazonec2-secret-key", "secret",
				"--amazonec2-session-token", "token",
			},
		},
		{
			name:    "other driver ignores amazonec2 settings",
			machine: Machine{Driver: "virtualbox", Region: "eu-west-2", EngineStorageDriver: "overlay2"},
			want:    []string{"--driver", "virtualbox", "--engine-storage-driver", "overlay2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.machine.MachineArgs())
		})
	}
}

func TestLoadFile_Missing(t *testing.T) {
	t.Parallel()
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile_Empty(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile_OverridesDefaults(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
machine:
  region: us-east-1
  rootSize: 50
executor:
  workers: 3
  killGrace: 30s
`), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", cfg.Machine.Region)
	assert.Equal(t, 50, cfg.Machine.RootSize)
	assert.Equal(t, "a", cfg.Machine.Zone)
	assert.Equal(t, 3, cfg.Executor.Workers)
	assert.Equal(t, 30*time.Second, cfg.Executor.KillGrace)
	assert.Equal(t, "docker", cfg.Executor.Docker)
}

func TestLoadFile_UnknownField(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("machine:\n  regoin: typo\n"), 0o600))

	_, err := LoadFile(path)
	assert.ErrorContains(t, err, "failed to unmarshal yaml")
}

func TestSaveRoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Machine.AccessKey = "must-not-persist"
	cfg.Executor.Workers = 7

	require.NoError(t, Save(path, cfg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "must-not-persist")

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 7, loaded.Executor.Workers)
	assert.Empty(t, loaded.Machine.AccessKey)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("ANCHORAGE_WORKERS", "5")
	t.Setenv("ANCHORAGE_KILL_GRACE", "2s")
	t.Setenv("ANCHORAGE_RECORD_RETRIES", "9")
	t.Setenv("ANCHORAGE_RECORD_RETRY_DELAY", "invalid")
	t.Setenv("MACHINE_STORAGE_PATH", "/srv/machine")
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIA")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	t.Setenv("AWS_SESSION_TOKEN", "")
	t.Setenv("AWS_PROFILE", "swarm")

	cfg := Default()
	cfg.ApplyEnv()

	assert.Equal(t, 5, cfg.Executor.Workers)
	assert.Equal(t, 2*time.Second, cfg.Executor.KillGrace)
	assert.Equal(t, 9, cfg.Executor.RecordRetries)
	assert.Equal(t, Default().Executor.RecordRetryDelay, cfg.Executor.RecordRetryDelay)
	assert.Equal(t, "/srv/machine", cfg.Machine.StoragePath)
	assert.Equal(t, "AKIA", cfg.Machine.AccessKey)
	assert.Equal(t, "secret", cfg.Machine.SecretKey)
	assert.Empty(t, cfg.Machine.SessionToken)
	assert.Equal(t, "swarm", cfg.Machine.AWSProfile)
}

func TestLoad_ValidationFailure(t *testing.T) {
	t.Setenv("ANCHORAGE_WORKERS", "-1")

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "executor.workers must not be negative")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"no driver", func(c *Config) { c.Machine.Driver = "" }, "machine.driver is required"},
		{"negative root size", func(c *Config) { c.Machine.RootSize = -1 }, "machine.rootSize"},
		{"negative grace", func(c *Config) { c.Executor.KillGrace = -time.Second }, "executor.killGrace"},
		{"no docker-machine", func(c *Config) { c.Executor.DockerMachine = "" }, "executor.dockerMachine is required"},
		{"no docker", func(c *Config) { c.Executor.Docker = "" }, "executor.docker is required"},
		{"no record retries", func(c *Config) { c.Executor.RecordRetries = 0 }, "executor.recordRetries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidateIdentifier(t *testing.T) {
	t.Parallel()

	valid := []string{"abc", "test-cluster", "Prod-01", strings.Repeat("a", 128)}
	invalid := []string{"", "ab", "test_me", "has space", "dot.name", strings.Repeat("a", 128) + "a"}

	for _, name := range valid {
		assert.NoError(t, ValidateIdentifier(name), name)
	}
	for _, name := range invalid {
		assert.ErrorIs(t, ValidateIdentifier(name), ErrInvalidIdentifier, name)
	}
}

func TestValidateClusterSize(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateClusterSize(1, 0, 0))
	assert.NoError(t, ValidateClusterSize(3, 2, 1))
	assert.ErrorIs(t, ValidateClusterSize(0, 1, 0), ErrNoManagers)
	assert.Error(t, ValidateClusterSize(1, -1, 0))
}

func TestDefaultPath(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "config.yaml", filepath.Base(DefaultPath()))
	assert.Equal(t, ".anchorage", filepath.Base(filepath.Dir(DefaultPath())))
}
