package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var libCmd = &cobra.Command{
	Use:   "lib",
	Short: "List the libraries declared across the switch",
	Run:   runLib,
}

func runLib(cmd *cobra.Command, args []string) {
	cfg, root := setup()
	st, report := loadState(context.Background(), cfg, root)

	for _, name := range st.LibraryNames() {
		lib := st.Libraries[name]
		line := fmt.Sprintf("%s\t(%s)", lib.Name, lib.Package)
		if len(lib.Requires) > 0 {
			line += "\trequires " + strings.Join(lib.Requires, ", ")
		}
		fmt.Println(line)
	}
	printReport(report)
}
