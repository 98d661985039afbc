package cli

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/twitter/sjf/common/client"
	schedclient "github.com/twitter/sjf/scheduler/client"
	"github.com/twitter/sjf/scheduler/domain"
)

type watchJobsCmd struct {
	quiet bool
}

func (c *watchJobsCmd) RegisterFlags() *cobra.Command {
	r := &cobra.Command{
		Use:   "watch",
		Short: "Follow job status live until interrupted",
		Args:  cobra.NoArgs,
	}
	r.Flags().BoolVar(&c.quiet, "quiet", false, "Print one line per update instead of the whole table")
	return r
}

func (c *watchJobsCmd) Run(cl *client.SimpleClient, cmd *cobra.Command, args []string) error {
	w := schedclient.NewWatcher(cl.SJFClient, schedclient.NewView())
	w.OnChange = func(v *schedclient.View, job domain.Job) {
		if c.quiet {
			if job.ID != "" {
				fmt.Println(job)
			}
			return
		}
		fmt.Println()
		printTable(os.Stdout, v.Jobs())
	}
	log.Info("Watching jobs, interrupt to stop")
	err := w.Run(cmd.Context())
	if err == cmd.Context().Err() {
		return nil
	}
	return err
}
