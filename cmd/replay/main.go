// Command replay plays a complete run offline with a fixed seed and a scripted
// decision set, printing each week's narrative and the final report. The same
// seed and script always produce the same numbers, which makes it useful for
// checking content changes and for pinning regression fixtures.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/chrisf-bit/store-manager/internal/game"
	"github.com/chrisf-bit/store-manager/internal/sim/catalogs"
	"github.com/chrisf-bit/store-manager/internal/sim/decisions"
	"github.com/chrisf-bit/store-manager/internal/sim/tuning"
	"github.com/chrisf-bit/store-manager/internal/store/memory"
)

func main() {
	var (
		seed      = flag.Int("seed", 1337, "run seed")
		configDir = flag.String("configs", "./configs", "config directory")
		storeName = flag.String("name", "", "store name (default from tuning)")
		storeSize = flag.String("size", "", "store size: small, medium or large")
		region    = flag.String("region", "", "store region")
		script    = flag.String("decisions", "balanced,hold_hours,availability,wellbeing", "comma-separated option keys: commercial,labour,operations,investment")
	)
	flag.Parse()

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load catalogs:", err)
		os.Exit(1)
	}

	keys := strings.Split(*script, ",")
	if len(keys) != len(decisions.Categories) {
		fmt.Fprintf(os.Stderr, "-decisions needs %d option keys\n", len(decisions.Categories))
		os.Exit(2)
	}
	var decs []game.DecisionInput
	for i, cat := range decisions.Categories {
		tmpl := cats.Decisions.ByCategory[cat]
		decs = append(decs, game.DecisionInput{TemplateID: tmpl.ID, OptionKey: strings.TrimSpace(keys[i])})
	}

	tune := tuning.Defaults()
	svc := game.New(game.Config{
		Log:      log.New(io.Discard, "", 0),
		Repo:     memory.New(),
		Catalogs: cats,
		Tuning:   tune,
		Seed:     func() int32 { return int32(*seed) },
	})

	ctx := context.Background()
	created, err := svc.CreateRun(ctx, game.NewRunParams{
		StoreName: *storeName,
		StoreSize: *storeSize,
		Region:    *region,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "create run:", err)
		os.Exit(1)
	}
	fmt.Printf("run %s seed=%d store=%q size=%s region=%s\n\n",
		created.Run.ID, created.Run.RunSeed, created.Run.StoreName, created.Run.StoreSize, created.Run.Region)
	fmt.Println(created.State.Narrative)
	fmt.Println()

	for round := 1; round <= tune.RoundsPerRun; round++ {
		out, err := svc.SubmitRound(ctx, created.Run.ID, round, decs, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "round %d: %v\n", round, err)
			os.Exit(1)
		}
		fmt.Printf("--- round %d (event %s) ---\n", round, out.Event.ID)
		fmt.Println(out.State.Narrative)
		fmt.Printf("revenue=%.0f netProfit=%.0f engagement=%.0f satisfaction=%.0f\n\n",
			out.State.Metrics.Revenue, out.State.Metrics.NetProfit,
			out.State.Metrics.EngagementScore, out.State.Metrics.CustomerSatisfaction)
	}

	rep, err := svc.Report(ctx, created.Run.ID)
	if err != nil {
		fmt.Fprintln(os.Stderr, "report:", err)
		os.Exit(1)
	}
	fmt.Printf("=== report: %s (overall %d) ===\n", rep.Grade, rep.OverallScore)
	for _, cat := range rep.Scorecard {
		fmt.Printf("%-10s %3d\n", cat.Name, cat.Score)
		for _, m := range cat.Metrics {
			fmt.Printf("  %-14s %-12v %s\n", m.Label, m.Value, m.Trend)
		}
	}
	fmt.Println("strengths:")
	for _, line := range rep.Strengths {
		fmt.Println("  -", line)
	}
	fmt.Println("risks:")
	for _, line := range rep.Risks {
		fmt.Println("  -", line)
	}
	fmt.Println("recommendations:")
	for _, line := range rep.Recommendations {
		fmt.Println("  -", line)
	}
}
