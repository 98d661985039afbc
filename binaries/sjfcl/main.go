package main

import (
	log "github.com/sirupsen/logrus"

	"github.com/twitter/sjf/common/log/hooks"
	"github.com/twitter/sjf/scheduler/client/cli"
)

// CLI binary to talk to the SJF scheduler
//	Supported commands: (see "-h" for all options)
//		submit [name] [duration]
//		list
//		get [job id]
//		watch
//		get_scheduler_status
//	Global flags:
//		--addr [<host:port> of the scheduler]
//		--log_level [<error|info|debug> level and above should be logged]

func main() {
	log.AddHook(hooks.NewContextHook())

	cl, err := cli.NewSimpleCLIClient()
	if err != nil {
		log.Fatal("Failed to create new SJF CLI client: ", err)
	}

	err = cl.Exec()
	if err != nil {
		log.Fatal("Error running sjfcl ", err)
	}
}
