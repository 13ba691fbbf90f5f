package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Every flag is registered in its command's init, so a failed lookup is a
// typo in the calling code and not something a user can trigger.
func lookupFlag[T any](name string, get func(string) (T, error)) T {
	v, err := get(name)
	if err != nil {
		panic(fmt.Sprintf("capture-kit: flag --%s: %v", name, err))
	}
	return v
}

func mustGetBool(cmd *cobra.Command, name string) bool {
	return lookupFlag(name, cmd.Flags().GetBool)
}

func mustGetInt(cmd *cobra.Command, name string) int {
	return lookupFlag(name, cmd.Flags().GetInt)
}

func mustGetString(cmd *cobra.Command, name string) string {
	return lookupFlag(name, cmd.Flags().GetString)
}

func mustGetFloat64(cmd *cobra.Command, name string) float64 {
	return lookupFlag(name, cmd.Flags().GetFloat64)
}
