package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/camldex/camldex/internal/cache"
	"github.com/camldex/camldex/internal/odoc"
	"github.com/camldex/camldex/internal/scan"
)

var odocCmd = &cobra.Command{
	Use:   "odoc",
	Short: "Generate HTML documentation for the whole switch",
	Long: `Scan the switch with archive inspection enabled, run the odoc binary over
every package's compiled interfaces, and write a static index page. The
built index is snapshotted so later lookups skip the scan.`,
	Run: runOdoc,
}

func runOdoc(cmd *cobra.Command, args []string) {
	cfg, root := setup()
	ctx := context.Background()

	// Doc generation always inspects archives: the snapshot it leaves
	// behind should carry the authoritative module lists.
	st, report, err := scan.Scan(ctx, root, scan.Options{
		Objinfo:     true,
		ObjinfoTool: cfg.Objinfo.Tool,
	})
	if err != nil {
		log.Fatalf("scanning switch: %v", err)
	}
	if err := cache.Save(root, st); err != nil {
		log.Fatalf("saving index snapshot: %v", err)
	}

	gen := &odoc.Generator{Tool: cfg.Odoc.Tool, Jobs: cfg.Odoc.Jobs}
	report.Merge(gen.Run(ctx, root, st))

	page, err := odoc.WriteIndex(root, st, report)
	if err != nil {
		log.Fatalf("writing index page: %v", err)
	}

	fmt.Printf("documented %d packages: %s\n", len(st.Packages), page)
	printReport(report)
}
