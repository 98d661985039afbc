package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/twitter/sjf/common/stats"
	"github.com/twitter/sjf/scheduler/api"
	"github.com/twitter/sjf/scheduler/feed"
	"github.com/twitter/sjf/scheduler/server"
	"github.com/twitter/sjf/scheduler/store"
)

// JSONConfigs config structure holding the parsed json configs
type JSONConfigs struct {
	Scheduler SchedulerJSONConfig `json:"SchedulerConfig"`
	Store     StoreJSONConfig     `json:"Store"`
	Feed      FeedJSONConfig      `json:"Feed"`
	Gateway   GatewayJSONConfig   `json:"Gateway"`
}

func (s JSONConfigs) String() string {
	return fmt.Sprintf("\n%s\n%s\n%s\n%s", s.Scheduler, s.Store, s.Feed, s.Gateway)
}

type SchedulerJSONConfig struct {
	Type                 string `json:"Type"`                 // scheduler type: stateful
	Workers              int    `json:"Workers"`              // default to 1
	TickRate             string `json:"TickRate"`             // default to 250ms
	RecoverJobsOnStartup bool   `json:"RecoverJobsOnStartup"` // only meaningful with a durable store
}

func (sc SchedulerJSONConfig) String() string {
	return fmt.Sprintf("SchedulerJSONConfig: Type: %s, Workers: %d, TickRate: %s, RecoverJobsOnStartup: %t",
		sc.Type, sc.Workers, sc.TickRate, sc.RecoverJobsOnStartup)
}

type StoreJSONConfig struct {
	Type string `json:"Type"` // memory, sqlite
	Path string `json:"Path"` // sqlite database file, default to .sjfdata/jobs.db
}

func (s StoreJSONConfig) String() string {
	return fmt.Sprintf("StoreJSONConfig: Type: %s, Path: %s", s.Type, s.Path)
}

type FeedJSONConfig struct {
	Type       string `json:"Type"`       // memory
	BufferSize int    `json:"BufferSize"` // per subscriber, default to 256
}

func (f FeedJSONConfig) String() string {
	return fmt.Sprintf("FeedJSONConfig: Type: %s, BufferSize: %d", f.Type, f.BufferSize)
}

type GatewayJSONConfig struct {
	Type           string   `json:"Type"` // http
	AllowedOrigins []string `json:"AllowedOrigins"`
	SubmitRate     float64  `json:"SubmitRate"` // jobs per second, 0 for no limit
	SubmitBurst    int      `json:"SubmitBurst"`
	PingInterval   string   `json:"PingInterval"` // default to 30s
	WriteTimeout   string   `json:"WriteTimeout"` // default to 10s
}

func (g GatewayJSONConfig) String() string {
	return fmt.Sprintf("GatewayJSONConfig: Type: %s, AllowedOrigins: %v, SubmitRate: %g, SubmitBurst: %d, PingInterval: %s, WriteTimeout: %s",
		g.Type, g.AllowedOrigins, g.SubmitRate, g.SubmitBurst, g.PingInterval, g.WriteTimeout)
}

// GetConfigText returns the named config, or configSelector itself if it's
// a literal JSON object.
func GetConfigText(configSelector string) ([]byte, error) {
	if strings.HasPrefix(strings.TrimSpace(configSelector), "{") {
		return []byte(configSelector), nil
	}
	configText, ok := SchedulerConfigs[configSelector]
	if !ok {
		keys := make([]string, 0, len(SchedulerConfigs))
		for k := range SchedulerConfigs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("invalid configuration %s, supported values are %v", configSelector, keys)
	}

	return []byte(configText), nil
}

// GetSchedulerConfigs parses the selected config. Sections whose Type is
// unset are taken from the default config.
func GetSchedulerConfigs(configSelector string) (*JSONConfigs, error) {
	defaultConfigText, _ := GetConfigText("default")
	defaultConfig := &JSONConfigs{}
	err := json.Unmarshal(defaultConfigText, &defaultConfig)
	if err != nil {
		return nil, fmt.Errorf("couldn't parse the default config: %v", err)
	}

	configText, err := GetConfigText(configSelector)
	if err != nil {
		return nil, err
	}

	schedServerConfig := &JSONConfigs{}
	err = json.Unmarshal(configText, &schedServerConfig)
	if err != nil {
		return nil, fmt.Errorf("couldn't parse top-level config: %v", err)
	}

	// use the default values for any sections whose type was not set in the command line config
	if schedServerConfig.Scheduler.Type == "" {
		log.Infof("using default Scheduler config")
		schedServerConfig.Scheduler = defaultConfig.Scheduler
	}
	if schedServerConfig.Store.Type == "" {
		log.Infof("using default Store config")
		schedServerConfig.Store = defaultConfig.Store
	}
	if schedServerConfig.Feed.Type == "" {
		log.Infof("using default Feed config")
		schedServerConfig.Feed = defaultConfig.Feed
	}
	if schedServerConfig.Gateway.Type == "" {
		log.Infof("using default Gateway config")
		schedServerConfig.Gateway = defaultConfig.Gateway
	}

	return schedServerConfig, nil
}

func (jc *SchedulerJSONConfig) CreateSchedulerConfig() (*server.SchedulerConfiguration, error) {
	if jc.Type != "stateful" {
		return nil, fmt.Errorf("unknown scheduler type %q", jc.Type)
	}
	// DebugMode is only for tests that drive step() themselves
	serverConfig := &server.SchedulerConfiguration{
		Workers: jc.Workers,
	}
	if jc.Workers < 0 {
		return nil, fmt.Errorf("invalid scheduler Workers %d", jc.Workers)
	}
	if jc.TickRate != "" {
		var err error
		serverConfig.TickRate, err = time.ParseDuration(jc.TickRate)
		if err != nil {
			return nil, err
		}
	}
	return serverConfig, nil
}

// CreateBackend opens the configured store backend.
func (sc *StoreJSONConfig) CreateBackend() (store.Backend, error) {
	switch sc.Type {
	case "memory":
		return store.NewMemoryBackend(), nil
	case "sqlite":
		path := sc.Path
		if path == "" {
			path = DefaultSqlitePath
		}
		if path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return nil, err
			}
		}
		return store.OpenSqliteBackend(path)
	}
	return nil, fmt.Errorf("unknown store type %q", sc.Type)
}

func (fc *FeedJSONConfig) CreateFeed(stat stats.StatsReceiver) (*feed.Feed, error) {
	if fc.Type != "memory" {
		return nil, fmt.Errorf("unknown feed type %q", fc.Type)
	}
	if fc.BufferSize < 0 {
		return nil, fmt.Errorf("invalid feed BufferSize %d", fc.BufferSize)
	}
	return feed.NewFeed(fc.BufferSize, stat), nil
}

func (gc *GatewayJSONConfig) CreateGatewayConfig() (api.GatewayConfig, error) {
	config := api.DefaultGatewayConfig()
	if gc.Type != "http" {
		return config, fmt.Errorf("unknown gateway type %q", gc.Type)
	}
	if gc.AllowedOrigins != nil {
		config.AllowedOrigins = gc.AllowedOrigins
	}
	config.SubmitRate = gc.SubmitRate
	config.SubmitBurst = gc.SubmitBurst

	var err error
	if gc.PingInterval != "" {
		if config.PingInterval, err = time.ParseDuration(gc.PingInterval); err != nil {
			return config, err
		}
	}
	if gc.WriteTimeout != "" {
		if config.WriteTimeout, err = time.ParseDuration(gc.WriteTimeout); err != nil {
			return config, err
		}
	}
	return config, nil
}
