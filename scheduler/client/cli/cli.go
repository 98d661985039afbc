package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	commoncli "github.com/twitter/sjf/common/client"
	"github.com/twitter/sjf/scheduler/client"
	"github.com/twitter/sjf/scheduler/domain"
)

// SJFCLIClient includes fields required for CLI client handling
type SJFCLIClient struct {
	commoncli.SimpleClient
}

// returnError extends the error with Invalid Request, Not Found, or server error
func returnError(err error) error {
	switch {
	case domain.IsInvalidInput(err):
		return fmt.Errorf("Invalid Request: %v", err)
	case domain.IsNotFound(err):
		return fmt.Errorf("Not Found: %v", err)
	default:
		return fmt.Errorf("sjf server error: %v", err)
	}
}

// Exec runs the command line; SIGINT and SIGTERM cancel the command's context.
func (c *SJFCLIClient) Exec() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return c.RootCmd.ExecuteContext(ctx)
}

func NewSimpleCLIClient() (commoncli.CLIClient, error) {
	c := &SJFCLIClient{}

	c.RootCmd = &cobra.Command{
		Use:               "sjfcl",
		Short:             "sjfcl is a command-line client to the sjf scheduler",
		PersistentPreRunE: c.Init,
		Run:               func(*cobra.Command, []string) {},
		SilenceUsage:      true,
	}
	c.RootCmd.PersistentFlags().StringVar(&c.Addr, "addr", client.DefaultAddr, "sjf server address, host:port or URL")
	c.RootCmd.PersistentFlags().StringVar(&c.LogLevel, "log_level", "info", "Log everything at this level and above (error|info|debug)")

	c.addCmd(&submitJobCmd{})
	c.addCmd(&listJobsCmd{})
	c.addCmd(&getJobCmd{})
	c.addCmd(&watchJobsCmd{})
	c.addCmd(&getSchedulerStatusCmd{})

	return c, nil
}

// Can only be called from cobra command run or hook
func (c *SJFCLIClient) Init(cmd *cobra.Command, args []string) error {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.Error(err)
		return err
	}
	log.SetLevel(level)

	c.SJFClient = client.NewClient(c.Addr)
	return nil
}

func (c *SJFCLIClient) addCmd(cmd commoncli.Cmd) {
	cobraCmd := cmd.RegisterFlags()
	cobraCmd.RunE = func(innerCmd *cobra.Command, args []string) error {
		return cmd.Run(&c.SimpleClient, innerCmd, args)
	}
	c.RootCmd.AddCommand(cobraCmd)
}
