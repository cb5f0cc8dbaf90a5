package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/camldex/camldex/internal/index"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <Module>",
	Short: "Find which package and library own a module",
	Example: `  camldex lookup Fmt
  camldex lookup List     # ambiguous names list every owner
  camldex --objinfo lookup Hidden_unit`,
	Args: cobra.ExactArgs(1),
	Run:  runLookup,
}

func runLookup(cmd *cobra.Command, args []string) {
	cfg, root := setup()
	st, report := loadState(context.Background(), cfg, root)

	mods, err := st.Find(args[0])
	if err != nil {
		printReport(report)
		if errors.Is(err, index.ErrNotFound) {
			log.Fatalf("%v", err)
		}
		log.Fatalf("lookup failed: %v", err)
	}

	if len(mods) > 1 {
		fmt.Fprintf(os.Stderr, "%q is provided by %d packages:\n", args[0], len(mods))
	}
	for _, m := range mods {
		exts := strings.Join(m.Extensions, ",")
		if exts == "" {
			exts = "-"
		}
		fmt.Printf("%s/%s\t%s\t[%s]\n", m.Package, m.Library, m.Name, exts)
	}

	printReport(report)
}
