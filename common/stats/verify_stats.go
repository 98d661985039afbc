package stats

import (
	"bytes"
	"fmt"
	"testing"
)

/*
Helpers for validating registry contents in tests.
*/

// RuleChecker compares a rendered value (got) against an expected value.
type RuleChecker struct {
	name    string
	checker func(got, expected interface{}) bool
}

func nilCheck(a, b interface{}) (nilFound, eqValues bool) {
	if b == nil && a == nil {
		return true, true
	} else if b == nil || a == nil {
		return true, false
	}
	return false, false
}

// errors if a is not float64, returns true if a > b
func floatGTTest(a, b interface{}) bool {
	if nilFound, eqValue := nilCheck(a, b); nilFound {
		return eqValue
	}
	return a.(float64) > b.(float64)
}

var FloatGTTest = RuleChecker{name: "floatGTTest", checker: floatGTTest}

// errors if a is not int64, returns true if a == b
func int64EqTest(a, b interface{}) bool {
	if nilFound, eqValue := nilCheck(a, b); nilFound {
		return eqValue
	}
	return a.(int64) == int64(b.(int))
}

var Int64EqTest = RuleChecker{name: "Int64EqTest", checker: int64EqTest}

func doesNotExistTest(a, b interface{}) bool {
	return a == nil
}

var DoesNotExistTest = RuleChecker{name: "NotExistCheck", checker: doesNotExistTest}

// Rule pairs a checker with the expected value.
type Rule struct {
	Checker RuleChecker
	Value   interface{}
}

// StatsOk checks every key in contains against its rule. The registry must be
// a finagle registry. Returns false, after reporting through t, if any rule fails.
func StatsOk(tag string, statsRegistry StatsRegistry, t testing.TB, contains map[string]Rule) bool {
	asFinagleRegistry, ok := statsRegistry.(*finagleStatsRegistry)
	if !ok {
		t.Errorf("%s: stats registry is %T, not a finagle registry", tag, statsRegistry)
		return false
	}

	failed := false
	var msg bytes.Buffer
	msg.WriteString(tag)
	msg.WriteString(":stats registry error:\n")

	asJson := asFinagleRegistry.MarshalAll()
	for key, rule := range contains {
		gotValue := asJson[key]
		if rule.Checker.checker(gotValue, rule.Value) {
			continue
		}
		failed = true
		if rule.Checker.name == DoesNotExistTest.name {
			msg.WriteString(fmt.Sprintf("%s: found stat entry when there should not be one\n", key))
		} else {
			msg.WriteString(fmt.Sprintf("%s: got %v, expected to pass %s with %v\n", key, gotValue, rule.Checker.name, rule.Value))
		}
	}
	if failed {
		pretty, _ := asFinagleRegistry.MarshalJSONPretty()
		msg.Write(pretty)
		t.Error(msg.String())
	}
	return !failed
}
