package cli

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/twitter/sjf/common/client"
	"github.com/twitter/sjf/scheduler/domain"
)

type listJobsCmd struct {
	printAsJson bool
}

func (c *listJobsCmd) RegisterFlags() *cobra.Command {
	r := &cobra.Command{
		Use:   "list",
		Short: "List jobs in submission order",
		Args:  cobra.NoArgs,
	}
	r.Flags().BoolVar(&c.printAsJson, "json", false, "Print out jobs as JSON")
	return r
}

func (c *listJobsCmd) Run(cl *client.SimpleClient, cmd *cobra.Command, args []string) error {
	jobs, _, err := cl.SJFClient.List(cmd.Context())
	if err != nil {
		return returnError(err)
	}
	if c.printAsJson {
		return printJSON(jobs)
	}
	printTable(os.Stdout, jobs)
	return nil
}

type getJobCmd struct{}

func (c *getJobCmd) RegisterFlags() *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Print one job as JSON",
		Args:  cobra.ExactArgs(1),
	}
}

func (c *getJobCmd) Run(cl *client.SimpleClient, cmd *cobra.Command, args []string) error {
	job, err := cl.SJFClient.Get(cmd.Context(), args[0])
	if err != nil {
		return returnError(err)
	}
	return printJSON(job)
}

func printTable(out io.Writer, jobs []domain.Job) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDURATION\tSTATUS\tCREATED")
	for _, j := range jobs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", j.ID, j.Name, j.Duration, j.Status, j.CreatedAt.Format(time.RFC3339))
	}
	w.Flush()
}
