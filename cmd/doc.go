package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/camldex/camldex/internal/config"
	"github.com/camldex/camldex/internal/index"
)

var docPkg string

var docCmd = &cobra.Command{
	Use:   "doc <Module>",
	Short: "Open the generated documentation for a module",
	Example: `  camldex doc Fmt
  camldex doc --pkg lwt Main   # disambiguate a common module name`,
	Args: cobra.ExactArgs(1),
	Run:  runDoc,
}

func init() {
	docCmd.Flags().StringVar(&docPkg, "pkg", "", "restrict to the named package when the module name is ambiguous")
}

func runDoc(cmd *cobra.Command, args []string) {
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

	if docPkg != "" {
		var filtered []*index.Module
		for _, m := range mods {
			if m.Package == docPkg {
				filtered = append(filtered, m)
			}
		}
		mods = filtered
		if len(mods) == 0 {
			printReport(report)
			log.Fatalf("package %q does not provide a module named %q", docPkg, args[0])
		}
	}

	if len(mods) > 1 {
		fmt.Fprintf(os.Stderr, "%q is ambiguous; pick one with --pkg:\n", args[0])
		for _, m := range mods {
			fmt.Fprintf(os.Stderr, "  %s/%s\n", m.Package, m.Library)
		}
		printReport(report)
		os.Exit(1)
	}

	m := mods[0]
	page := filepath.Join(config.HTMLDir(root), m.Package, m.Name, "index.html")
	if _, err := os.Stat(page); err != nil {
		printReport(report)
		log.Fatalf("no generated page for %s/%s; run `camldex odoc` first", m.Package, m.Name)
	}

	// Spawn the browser and wait instead of replacing this process, so its
	// exit status and stderr still reach the user.
	browse := exec.Command(cfg.Browser, page)
	browse.Stdout = os.Stdout
	browse.Stderr = os.Stderr
	if err := browse.Run(); err != nil {
		log.Fatalf("opening %s with %s: %v", page, cfg.Browser, err)
	}
	printReport(report)
}
