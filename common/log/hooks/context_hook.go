// Package hooks holds logrus hooks shared by the sjf binaries.
package hooks

import (
	"runtime/debug"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Entries carry the caller's location under this key.
const CallerKey = "file:line"

type contextHook struct {
	levels []log.Level
}

// NewContextHook returns a hook that annotates entries at the given levels with
// the file:line of the code that logged them. No levels means all levels.
func NewContextHook(levels ...log.Level) log.Hook {
	if len(levels) == 0 {
		levels = log.AllLevels
	}
	return contextHook{levels: levels}
}

func (hook contextHook) Levels() []log.Level {
	return hook.levels
}

func (hook contextHook) Fire(entry *log.Entry) error {
	if loc := callerFromStack(string(debug.Stack())); loc != "" {
		entry.Data[CallerKey] = loc
	}
	return nil
}

// callerFromStack skips the logrus frames that sit above the hook and returns
// the first frame outside of logrus, trimmed to a repo-relative path.
func callerFromStack(stack string) string {
	lines := strings.Split(stack, "\n")
	pastHook := false
	for i := 0; i+1 < len(lines); i++ {
		if strings.Contains(lines[i], "context_hook.go:") {
			pastHook = true
			continue
		}
		if !pastHook || !strings.HasPrefix(lines[i+1], "\t") {
			continue
		}
		if strings.Contains(lines[i], "sirupsen/logrus") {
			i++
			continue
		}
		loc := strings.TrimSpace(lines[i+1])
		if idx := strings.LastIndex(loc, "sjf/"); idx >= 0 {
			loc = loc[idx+len("sjf/"):]
		}
		if sp := strings.Index(loc, " "); sp >= 0 {
			loc = loc[:sp]
		}
		return loc
	}
	return ""
}
