// ransim - discrete-event simulator of a RAN control plane.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ransim",
	Short: "ransim simulates a two-tier RAN control plane on a virtual clock",
	Long: `ransim runs a discrete-event simulation of a cellular radio-access
control plane: a Non-RT RIC authors policies and distributes them over A1
to a Near-RT RIC, which enforces them against O-RAN elements (O-RU, O-DU,
O-CU, UEs) wired together through simulated E2 and fronthaul channels.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(runCmd)
}
