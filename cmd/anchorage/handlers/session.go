package handlers

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/imamik/anchorage/internal/cluster"
	"github.com/imamik/anchorage/internal/config"
	"github.com/imamik/anchorage/internal/machine"
	"github.com/imamik/anchorage/internal/metrics"
	"github.com/imamik/anchorage/internal/provisioning"
	"github.com/imamik/anchorage/internal/report"
	"github.com/imamik/anchorage/internal/scheduler"
	"github.com/imamik/anchorage/internal/util/logging"
)

// Factory function variables - can be replaced in tests.
var (
	// loadConfig loads the configuration file, environment and defaults.
	loadConfig = config.Load

	// newClusterStore opens the cluster record store.
	newClusterStore = func() *cluster.Store { return cluster.NewStore("") }

	// resolveCredentials resolves amazonec2 credentials.
	resolveCredentials = machine.ResolveCredentials
)

// dryRunConfirmation replaces the success message of a dry run.
const dryRunConfirmation = "Dry run complete, nothing was changed."

// CredentialFlags are the AWS credential flags of commands that create
// machines. Empty fields leave the configured values in place.
type CredentialFlags struct {
	AccessKey string
	SecretKey string
	Profile   string
}

// session is the state of one command invocation: configuration, logger,
// metrics and the scheduler its tasks are admitted to.
type session struct {
	globals  *Globals
	cfg      *config.Config
	log      logr.Logger
	registry *prometheus.Registry
	sched    *scheduler.Scheduler
	renderer *report.Renderer
}

func newSession(g *Globals, quiet bool) (*session, error) {
	cfg, err := loadConfig(g.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if g.Workers > 0 {
		cfg.Executor.Workers = g.Workers
	}

	log := logging.New(g.stderr(), g.Verbosity)

	registry := prometheus.NewRegistry()
	recorder, err := metrics.NewRecorder(registry)
	if err != nil {
		return nil, err
	}

	renderer := report.NewRenderer(g.stdout())
	renderer.SetQuiet(quiet)

	opts := []scheduler.Option{
		scheduler.WithLogger(log.WithName("scheduler")),
		scheduler.WithMetrics(recorder),
		scheduler.WithOnComplete(renderer.Progress),
	}
	if cfg.Executor.Workers > 0 {
		opts = append(opts, scheduler.WithWorkers(cfg.Executor.Workers))
	}

	return &session{
		globals:  g,
		cfg:      cfg,
		log:      log,
		registry: registry,
		sched:    scheduler.New(opts...),
		renderer: renderer,
	}, nil
}

func (s *session) builder(addresses provisioning.AddressResolver, advertise string) *provisioning.Builder {
	return provisioning.NewBuilder(s.sched, provisioning.Options{
		DryRun:           s.globals.DryRun,
		MachineArgs:      s.cfg.Machine.MachineArgs(),
		DockerMachine:    s.cfg.Executor.DockerMachine,
		Docker:           s.cfg.Executor.Docker,
		AdvertiseAddress: advertise,
		Addresses:        addresses,
		KillGrace:        s.cfg.Executor.KillGrace,
		Log:              s.log.WithName("provisioning"),
	})
}

func (s *session) machineStore() *machine.Store {
	store := machine.NewStore(s.cfg.Machine.StoragePath)
	if s.cfg.Executor.RecordRetries > 0 {
		store.Attempts = s.cfg.Executor.RecordRetries
	}
	if s.cfg.Executor.RecordRetryDelay > 0 {
		store.Delay = s.cfg.Executor.RecordRetryDelay
	}
	store.OnRetry = func(name string, attempt int, err error) {
		s.log.V(1).Info("Machine record not readable yet, retrying", "machine", name, "attempt", attempt, "error", err.Error())
	}
	return store
}

// applyCredentials merges flags into the machine config and resolves
// amazonec2 credentials. A profile is only resolved outside dry run.
func (s *session) applyCredentials(ctx context.Context, flags CredentialFlags) error {
	m := &s.cfg.Machine
	if flags.AccessKey != "" {
		m.AccessKey = flags.AccessKey
	}
	if flags.SecretKey != "" {
		m.SecretKey = flags.SecretKey
	}
	if flags.Profile != "" {
		m.AWSProfile = flags.Profile
	}
	if m.Driver != config.DriverAmazonEC2 {
		return nil
	}

	explicit := m.AccessKey != "" || m.SecretKey != ""
	if !explicit && (m.AWSProfile == "" || s.globals.DryRun) {
		return nil
	}

	creds, err := resolveCredentials(ctx, machine.CredentialSource{
		AccessKey:    m.AccessKey,
		SecretKey:    m.SecretKey,
		SessionToken: m.SessionToken,
		Profile:      m.AWSProfile,
	})
	if err != nil {
		return fmt.Errorf("failed to resolve AWS credentials: %w", err)
	}
	m.AccessKey = creds.AccessKey
	m.SecretKey = creds.SecretKey
	m.SessionToken = creds.SessionToken
	s.log.V(1).Info("Resolved AWS credentials", "source", creds.Source)
	return nil
}

// execute drains the graph, prints the summary and writes metrics. It
// returns an *ExitError when any task failed.
func (s *session) execute(ctx context.Context, confirmation string) error {
	tasks, err := s.sched.Execute(ctx)
	if err != nil {
		return fmt.Errorf("failed to run tasks: %w", err)
	}

	res := report.Aggregate(tasks)
	if s.globals.DryRun {
		confirmation = dryRunConfirmation
	}
	s.renderer.Summary(res, confirmation)

	if path := s.globals.MetricsFile; path != "" {
		if err := metrics.WriteTextfile(path, s.registry); err != nil {
			return err
		}
		s.log.V(1).Info("Wrote metrics", "path", path)
	}

	if !res.Success {
		return &ExitError{Code: res.ExitCode, Failed: len(res.Failures()), Total: len(res.Entries)}
	}
	return nil
}
