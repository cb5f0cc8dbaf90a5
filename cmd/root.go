package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/camldex/camldex/internal/cache"
	"github.com/camldex/camldex/internal/config"
	"github.com/camldex/camldex/internal/index"
	"github.com/camldex/camldex/internal/scan"
)

var (
	rootFlag    string
	noCache     bool
	objinfoFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "camldex",
	Short: "Index the packages, libraries, and modules of an opam switch",
	Long: `camldex scans an opam switch and builds a unified index of installed
packages, the libraries their META files declare, and the modules those
libraries aggregate. The index answers "who owns this module?" instantly and
feeds documentation generation without rescanning.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("command failed: %v", err)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", "", "opam switch root (default: config, then OPAM_SWITCH_PREFIX)")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "ignore the index snapshot and rescan")
	rootCmd.PersistentFlags().BoolVar(&objinfoFlag, "objinfo", false, "inspect archives with ocamlobjinfo for authoritative module lists")

	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(pkgCmd)
	rootCmd.AddCommand(libCmd)
	rootCmd.AddCommand(odocCmd)
	rootCmd.AddCommand(docCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(mcpCmd)
}

// setup loads the configuration and resolves the switch root exactly once
// per invocation; every command passes the result down from here.
func setup() (*config.Config, string) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	root, err := config.ResolveRoot(cfg, rootFlag)
	if err != nil {
		log.Fatalf("%v", err)
	}
	return cfg, root
}

// loadState returns the switch index, from the snapshot when one is present
// and usable, otherwise from a fresh scan. Scans requested with --objinfo
// write the snapshot back for later invocations.
func loadState(ctx context.Context, cfg *config.Config, root string) (*index.State, *scan.Report) {
	if !noCache && cache.Exists(root) {
		st, err := cache.Load(root)
		if err != nil {
			// An incompatible or corrupt snapshot is fatal rather than
			// silently rescanned: the user asked for cached data.
			log.Fatalf("loading index snapshot: %v (use --no-cache to rescan)", err)
		}
		return st, &scan.Report{}
	}

	st, report, err := scan.Scan(ctx, root, scan.Options{
		Objinfo:     objinfoFlag,
		ObjinfoTool: cfg.Objinfo.Tool,
	})
	if err != nil {
		log.Fatalf("scanning switch: %v", err)
	}

	if objinfoFlag {
		if err := cache.Save(root, st); err != nil {
			report.Add("", config.SnapshotPath(root), err)
		}
	}
	return st, report
}

// printReport surfaces collected failures once, after the command's main
// output.
func printReport(report *scan.Report) {
	if report != nil && !report.Empty() {
		fmt.Fprintln(os.Stderr, report.Summary())
	}
}
