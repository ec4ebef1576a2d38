// Package cli implements the bigbooks command line client.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/oremus-labs/bigbooks-relay/config"
	"github.com/oremus-labs/bigbooks-relay/internal/bigbooks"
	"github.com/oremus-labs/bigbooks-relay/internal/events"
	"github.com/oremus-labs/bigbooks-relay/internal/format"
	"github.com/oremus-labs/bigbooks-relay/internal/logutil"
	"github.com/oremus-labs/bigbooks-relay/internal/redisx"
	"github.com/oremus-labs/bigbooks-relay/internal/relay"
	"github.com/oremus-labs/bigbooks-relay/internal/store"
	"github.com/oremus-labs/bigbooks-relay/internal/supervisor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// app holds flag values and the collaborators built from them for one run.
type app struct {
	cfgFile     string
	server      string
	user        string
	password    string
	output      string
	launch      bool
	logDir      string
	logLevel    string
	metricsAddr string

	stdout io.Writer
	stderr io.Writer

	cfg     *config.Config
	api     *bigbooks.API
	bus     *events.Bus
	redis   redis.UniversalClient
	sup     *supervisor.Supervisor
	closers []func()
}

// Execute runs the CLI against os.Args.
func Execute(ctx context.Context) error {
	a := newApp(os.Stdout, os.Stderr)
	return a.run(ctx, os.Args[1:])
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr}
}

// run executes args and always releases what setup acquired, including a
// launched API process.
func (a *app) run(ctx context.Context, args []string) error {
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	defer a.close()
	return root.ExecuteContext(ctx)
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "bigbooks",
		Short: "Authenticated client for the BigBooks API",
		Long: `bigbooks talks to the BigBooks API: every call authenticates first and then
performs one request. With --launch it starts the API process before the command
and stops it afterwards.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "app-config.json", "Path to the configuration file (JSON or YAML)")
	flags.StringVar(&a.server, "server", "", "Override the API base URL")
	flags.StringVarP(&a.user, "user", "u", "", "User id to authenticate as (default: adminUserId)")
	flags.StringVarP(&a.password, "password", "p", "", "Password (default: defaultUserPassword)")
	flags.StringVarP(&a.output, "output", "o", "table", "Output format: table|json|yaml")
	flags.BoolVar(&a.launch, "launch", false, "Start the API process before running the command")
	flags.StringVar(&a.logDir, "log-dir", "", "Directory for log files; empty logs to stderr")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: trace|debug|info|warn|error")
	flags.StringVar(&a.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")

	root.AddCommand(
		a.demoCmd(),
		a.usersCmd(),
		a.booksCmd(),
		a.purchaseCmd(),
		a.catalogCmd(),
		a.verifyCmd(),
		a.eventsCmd(),
		a.configCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("server") {
		cfg.APIBaseURL = a.server
	}
	if flags.Changed("log-dir") {
		cfg.LogDir = a.logDir
	}
	if flags.Changed("log-level") {
		cfg.LoggingLevel = a.logLevel
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = a.metricsAddr
	}
	if a.user == "" {
		a.user = cfg.AdminUserID
	}
	if a.password == "" {
		a.password = cfg.DefaultPassword
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	level, err := logutil.ParseLevel(cfg.LoggingLevel)
	if err != nil {
		return err
	}
	logutil.SetLevel(level)
	if err := a.openLogFile(); err != nil {
		return err
	}

	ctx := cmd.Context()
	if cfg.MetricsAddr != "" {
		a.serveMetrics(cfg.MetricsAddr)
	}

	client, err := redisx.NewClient(ctx, redisx.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		logutil.Warn("redis unavailable; lifecycle events stay in-process", map[string]interface{}{"error": err.Error()})
	}
	if client != nil {
		a.redis = client
		a.closers = append(a.closers, func() { _ = client.Close() })
	}
	a.bus = events.NewBus(events.Options{Client: a.redis, Channel: cfg.EventsChannel})

	relayClient, err := bigbooks.NewClient(relay.Options{
		BaseURL:            cfg.APIBaseURL,
		Timeout:            cfg.RequestTimeout,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	})
	if err != nil {
		return err
	}
	a.api = bigbooks.NewAPI(relayClient)
	a.sup = supervisor.New(supervisor.Options{Events: a.bus})

	if a.launch {
		return a.startAPI(ctx)
	}
	return nil
}

func (a *app) openLogFile() error {
	if a.cfg.LogDir == "" {
		return nil
	}
	if err := os.MkdirAll(a.cfg.LogDir, 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	path := filepath.Join(a.cfg.LogDir, "log_"+format.Stamp(time.Now())+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	log.SetOutput(f)
	a.closers = append(a.closers, func() {
		log.SetOutput(os.Stderr)
		_ = f.Close()
	})
	return nil
}

func (a *app) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logutil.Error("metrics server failed", err, map[string]interface{}{"addr": addr})
		}
	}()
	a.closers = append(a.closers, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
}

func (a *app) launchSpec() (supervisor.LaunchSpec, error) {
	mode, err := supervisor.ParseReadinessMode(a.cfg.ReadinessMode)
	if err != nil {
		return supervisor.LaunchSpec{}, err
	}
	return supervisor.LaunchSpec{
		Command:      a.cfg.APIRunCommand,
		Dir:          a.cfg.APIProjectPath,
		Delay:        a.cfg.APILaunchDelay,
		Confirmation: a.cfg.APIStatusMessage,
		Mode:         mode,
		PollInterval: a.cfg.ReadinessPollInterval,
	}, nil
}

func (a *app) startAPI(ctx context.Context) error {
	spec, err := a.launchSpec()
	if err != nil {
		return err
	}
	a.displayWithTime("Starting API process...")
	a.closers = append(a.closers, a.endAPI)
	if !a.sup.Start(ctx, spec) {
		return fmt.Errorf("API launch failed: %w", a.sup.Err())
	}
	a.displayWithTime(fmt.Sprintf("API launched, pid %d", a.sup.PID()))
	return nil
}

func (a *app) endAPI() {
	if a.sup == nil || a.sup.PID() == 0 {
		return
	}
	a.displayWithTime("Closing background process")
	a.sup.End()
}

// close runs the registered cleanups in reverse order.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// creds returns the credentials selected by --user/--password.
func (a *app) creds() relay.Credentials {
	return relay.Credentials{UserID: a.user, Password: a.password}
}

func (a *app) openStore() (*store.Store, error) {
	return store.Open(a.cfg.DatabaseFile)
}
