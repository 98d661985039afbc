package config

// Where the sqlite store keeps its database when Path is unset.
const DefaultSqlitePath = ".sjfdata/jobs.db"

// SchedulerConfigs the map of available configurations
var SchedulerConfigs = map[string]string{
	"default":      defaultConfig,
	"local.memory": localMemory,
	"local.sqlite": localSqlite,
	"local.pool":   localPool,
}

// defaultConfig the configuration values that are used for nil parts of a specific configuration and for integration tests
const defaultConfig = `
{
	"SchedulerConfig": {
		"Type": "stateful",
		"Workers": 1,
		"TickRate": "250ms",
		"RecoverJobsOnStartup": false
	},
	"Store": {
		"Type": "memory"
	},
	"Feed": {
		"Type": "memory",
		"BufferSize": 256
	},
	"Gateway": {
		"Type": "http",
		"AllowedOrigins": ["http://localhost:3000"],
		"SubmitRate": 0,
		"PingInterval": "30s",
		"WriteTimeout": "10s"
	}
}
`

// localMemory config for local.memory - !!! make sure this constant is added to SchedulerConfigs map above !!!
const localMemory = `
{
	"Store": {
		"Type": "memory"
	}
}
`

// localSqlite config for local.sqlite - !!! make sure this constant is added to SchedulerConfigs map above !!!
const localSqlite = `
{
	"SchedulerConfig": {
		"Type": "stateful",
		"Workers": 1,
		"TickRate": "250ms",
		"RecoverJobsOnStartup": true
	},
	"Store": {
		"Type": "sqlite",
		"Path": ".sjfdata/jobs.db"
	}
}
`

// localPool config for local.pool - !!! make sure this constant is added to SchedulerConfigs map above !!!
const localPool = `
{
	"SchedulerConfig": {
		"Type": "stateful",
		"Workers": 4,
		"TickRate": "100ms"
	},
	"Feed": {
		"Type": "memory",
		"BufferSize": 1024
	},
	"Gateway": {
		"Type": "http",
		"AllowedOrigins": ["*"],
		"SubmitRate": 50,
		"SubmitBurst": 100
	}
}
`
