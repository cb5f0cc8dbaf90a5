package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"
)

var pkgCmd = &cobra.Command{
	Use:   "pkg [NAME...]",
	Short: "List installed packages, or show the named ones in detail",
	Run:   runPkg,
}

func runPkg(cmd *cobra.Command, args []string) {
	cfg, root := setup()
	st, report := loadState(context.Background(), cfg, root)

	if len(args) == 0 {
		for _, name := range st.PackageNames() {
			p := st.Packages[name]
			fmt.Printf("%s\t%s\n", p.Name, p.Version)
		}
		printReport(report)
		return
	}

	for _, name := range args {
		p, ok := st.Packages[name]
		if !ok {
			printReport(report)
			log.Fatalf("no installed package named %q", name)
		}
		fmt.Printf("%s %s (%d files)\n", p.Name, p.Version, len(p.Files))
		for _, lib := range st.LibrariesOf(name) {
			mods := st.ModulesOf(lib.Name)
			names := make([]string, len(mods))
			for i, m := range mods {
				names[i] = m.Name
			}
			fmt.Printf("  %s: %s\n", lib.Name, strings.Join(names, " "))
		}
	}
	printReport(report)
}
