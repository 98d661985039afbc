package cli

import (
	"encoding/json"
	"fmt"
)

func printJSON(v interface{}) error {
	asJson, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("Error converting to JSON: %v", err)
	}
	fmt.Printf("%s\n", asJson) // must go to stdout in case caller looking in stdout for the results
	return nil
}
