package cli

/**
implements the command line entry for the submit command
*/

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/twitter/sjf/common/client"
)

type submitJobCmd struct {
	printAsJson bool
}

func (c *submitJobCmd) RegisterFlags() *cobra.Command {
	r := &cobra.Command{
		Use:   "submit NAME DURATION",
		Short: "Submit a job; DURATION is a Go duration such as 2s or 150ms",
		Args:  cobra.ExactArgs(2),
	}
	r.Flags().BoolVar(&c.printAsJson, "json", false, "Print out the job as JSON")
	return r
}

func (c *submitJobCmd) Run(cl *client.SimpleClient, cmd *cobra.Command, args []string) error {
	duration, err := time.ParseDuration(args[1])
	if err != nil {
		return fmt.Errorf("Invalid duration %q: %v", args[1], err)
	}
	log.WithFields(log.Fields{"name": args[0], "duration": duration}).Info("Submitting job")

	job, err := cl.SJFClient.Submit(cmd.Context(), args[0], duration)
	if err != nil {
		return returnError(err)
	}
	if c.printAsJson {
		return printJSON(job)
	}
	fmt.Println(job.ID)
	return nil
}
