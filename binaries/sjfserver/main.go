package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/twitter/sjf/common/endpoints"
	"github.com/twitter/sjf/common/log/hooks"
	"github.com/twitter/sjf/scheduler/api"
	"github.com/twitter/sjf/scheduler/config"
	"github.com/twitter/sjf/scheduler/server"
)

// SJF scheduler server: the job store, the scheduler loop and the HTTP/websocket gateway.
//	Flags:
//		--addr [<host:port> to serve the gateway and admin endpoints on]
//		--config [name of a config in scheduler/config, or literal JSON]
//		--workers [overrides the configured worker count when > 0]
//		--log_level [<error|info|debug> level and above should be logged]

type serverFlags struct {
	addr     string
	config   string
	workers  int
	logLevel string
}

func main() {
	log.AddHook(hooks.NewContextHook())

	flags := &serverFlags{}
	cmd := &cobra.Command{
		Use:          "sjfserver",
		Short:        "Runs the shortest-job-first scheduler",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), flags)
		},
	}
	cmd.Flags().StringVar(&flags.addr, "addr", "localhost:8080", "Bind address for the gateway.")
	cmd.Flags().StringVar(&flags.config, "config", "local.memory", "Scheduler configuration name or JSON.")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "Number of jobs run at once, 0 keeps the configured value.")
	cmd.Flags().StringVar(&flags.logLevel, "log_level", "info", "Log everything at this level and above (error|info|debug)")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := cmd.ExecuteContext(ctx); err != nil {
		log.Fatal("Error running sjfserver: ", err)
	}
}

func run(ctx context.Context, flags *serverFlags) error {
	level, err := log.ParseLevel(flags.logLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)

	configs, err := config.GetSchedulerConfigs(flags.config)
	if err != nil {
		return err
	}
	log.Infof("Starting sjfserver on %s with config: %s", flags.addr, configs)

	schedConfig, err := configs.Scheduler.CreateSchedulerConfig()
	if err != nil {
		return err
	}
	if flags.workers > 0 {
		schedConfig.Workers = flags.workers
	}
	gatewayConfig, err := configs.Gateway.CreateGatewayConfig()
	if err != nil {
		return err
	}

	stat := endpoints.MakeStatsReceiver().Precision(time.Millisecond)

	backend, err := configs.Store.CreateBackend()
	if err != nil {
		return err
	}
	defer backend.Close()

	f, err := configs.Feed.CreateFeed(stat)
	if err != nil {
		return err
	}
	jobStore := server.NewJobStore(backend, f, stat)
	if configs.Scheduler.RecoverJobsOnStartup {
		if _, err := jobStore.Recover(); err != nil {
			return err
		}
	}

	schedCtx, cancelSched := context.WithCancel(context.Background())
	defer cancelSched()
	sched := server.NewStatefulScheduler(schedCtx, jobStore, server.NewTimerExecutor(), *schedConfig, stat)

	handler := api.NewHandler(jobStore, sched, gatewayConfig, stat)
	srv := endpoints.NewTwitterServer(flags.addr, stat, handler.NewRouter())

	// Websocket clients are hijacked, so they're closed before the http server
	// waits for open requests.
	serveCtx, cancelServe := context.WithCancel(context.Background())
	go func() {
		<-ctx.Done()
		log.Info("Shutting down sjfserver")
		handler.Close()
		cancelServe()
	}()
	err = srv.Serve(serveCtx)
	cancelServe()

	cancelSched()
	<-sched.Done()
	return err
}
