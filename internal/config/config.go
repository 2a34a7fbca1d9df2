package config

import (
	"strconv"
	"time"
)

// Driver names understood by MachineArgs.
const (
	DriverAmazonEC2 = "amazonec2"
)

// Config is the complete anchorage configuration.
type Config struct {
	Machine  Machine  `yaml:"machine"`
	Executor Executor `yaml:"executor"`
}

// Machine holds the docker-machine settings used for new machines.
type Machine struct {
	Driver              string `yaml:"driver"`
	Region              string `yaml:"region"`
	RootSize            int    `yaml:"rootSize"`
	Zone                string `yaml:"zone"`
	AMI                 string `yaml:"ami"`
	SSHUser             string `yaml:"sshUser"`
	EngineStorageDriver string `yaml:"engineStorageDriver"`

	// StoragePath is docker-machine's storage directory. Empty means the
	// docker-machine default.
	StoragePath string `yaml:"storagePath,omitempty"`

	// AWSProfile names a shared-config profile to resolve amazonec2
	// credentials from when no keys are given.
	AWSProfile string `yaml:"awsProfile,omitempty"`

	// Credentials are never read from or written to the config file.
	AccessKey    string `yaml:"-"`
	SecretKey    string `yaml:"-"`
	SessionToken string `yaml:"-"`
}

// Executor holds settings for draining the task graph.
type Executor struct {
	// Workers caps concurrently running tasks. Zero means twice the CPU count.
	Workers int `yaml:"workers"`

	// KillGrace is the delay between SIGTERM and SIGKILL on interrupt.
	KillGrace time.Duration `yaml:"killGrace"`

	// DockerMachine and Docker are the executables to run.
	DockerMachine string `yaml:"dockerMachine"`
	Docker        string `yaml:"docker"`

	// RecordRetries and RecordRetryDelay control how long a machine record
	// is waited for.
	RecordRetries    int           `yaml:"recordRetries"`
	RecordRetryDelay time.Duration `yaml:"recordRetryDelay"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Machine: Machine{
			Driver:              DriverAmazonEC2,
			Region:              "eu-west-2",
			RootSize:            100,
			Zone:                "a",
			AMI:                 "ami-0d9ba70fd9e495233",
			SSHUser:             "admin",
			EngineStorageDriver: "overlay2",
		},
		Executor: Executor{
			KillGrace:        10 * time.Second,
			DockerMachine:    "docker-machine",
			Docker:           "docker",
			RecordRetries:    3,
			RecordRetryDelay: 500 * time.Millisecond,
		},
	}
}

// MachineArgs returns the docker-machine create flags for m, without the
// machine name.
func (m Machine) MachineArgs() []string {
	args := []string{"--driver", m.Driver}

	if m.Driver == DriverAmazonEC2 {
		args = appendFlag(args, "--amazonec2-region", m.Region)
		if m.RootSize > 0 {
			args = append(args, "--amazonec2-root-size", strconv.Itoa(m.RootSize))
		}
		args = appendFlag(args, "--amazonec2-zone", m.Zone)
		args = appendFlag(args, "--amazonec2-ami", m.AMI)
		args = appendFlag(args, "--amazonec2-ssh-user", m.SSHUser)
		args = appendFlag(args, "--amazonec2-access-key", m.AccessKey)
		args = appendFlag(args, "--amazonec2-secret-key", m.SecretKey)
		args = appendFlag(args, "--amazonec2-session-token", m.SessionToken)
	}

	return appendFlag(args, "--engine-storage-driver", m.EngineStorageDriver)
}

func appendFlag(args []string, flag, value string) []string {
	if value == "" {
		return args
	}
	return append(args, flag, value)
}
