package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/twitter/sjf/common/client"
)

type getSchedulerStatusCmd struct{}

func (c *getSchedulerStatusCmd) RegisterFlags() *cobra.Command {
	return &cobra.Command{
		Use:   "get_scheduler_status",
		Short: "GetSchedulerStatus",
		Args:  cobra.NoArgs,
	}
}

func (c *getSchedulerStatusCmd) Run(cl *client.SimpleClient, cmd *cobra.Command, args []string) error {
	status, err := cl.SJFClient.Status(cmd.Context())
	if err != nil {
		return returnError(err)
	}
	fmt.Printf("%s\n", status)
	return nil
}
