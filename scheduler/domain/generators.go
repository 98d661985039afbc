package domain

import (
	"fmt"
	"time"

	"github.com/leanovate/gopter"
)

//
// Generators for property based testing
//

// GenJobDefinition generates valid definitions. Durations are drawn from a
// small range of milliseconds so collisions (and therefore tie-breaks) are
// common.
func GenJobDefinition() gopter.Gen {
	return func(genParams *gopter.GenParameters) *gopter.GenResult {
		def := genJobDefinition(genParams)
		return gopter.NewGenResult(def, gopter.NoShrinker)
	}
}

// GenJobDefinitions generates between 1 and max valid definitions.
func GenJobDefinitions(max int) gopter.Gen {
	return func(genParams *gopter.GenParameters) *gopter.GenResult {
		n := int(genParams.NextUint64()%uint64(max)) + 1
		defs := make([]JobDefinition, n)
		for i := range defs {
			defs[i] = genJobDefinition(genParams)
		}
		return gopter.NewGenResult(defs, gopter.NoShrinker)
	}
}

func genJobDefinition(genParams *gopter.GenParameters) JobDefinition {
	return JobDefinition{
		Name:     fmt.Sprintf("job-%d", genParams.Rng.Intn(1000)),
		Duration: time.Duration(genParams.Rng.Intn(8)) * time.Millisecond,
	}
}

// GenJob generates a job in any status with consistent timestamps and revision.
func GenJob() gopter.Gen {
	return func(genParams *gopter.GenParameters) *gopter.GenResult {
		def := genJobDefinition(genParams)
		created := time.Unix(0, 0).Add(time.Duration(genParams.Rng.Intn(1000)) * time.Second).UTC()
		j := NewJob(fmt.Sprintf("id-%04d", genParams.Rng.Intn(50)), def, created)
		for steps := genParams.Rng.Intn(3); steps > 0; steps-- {
			j, _ = j.Advance(j.Status+1, created.Add(time.Duration(j.Revision)*time.Second))
		}
		return gopter.NewGenResult(j, gopter.NoShrinker)
	}
}

// GenDefinition returns a fixed definition, handy when the content doesn't matter.
func GenDefinition(name string, d time.Duration) JobDefinition {
	return JobDefinition{Name: name, Duration: d}
}
