// Command admin inspects a server's sqlite store from the command line:
// list runs, dump one run's round history, or regenerate a run's report.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/chrisf-bit/store-manager/internal/game"
	"github.com/chrisf-bit/store-manager/internal/sim/catalogs"
	"github.com/chrisf-bit/store-manager/internal/sim/tuning"
	"github.com/chrisf-bit/store-manager/internal/store/sqldb"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "run":
			runCmd(os.Args[2:])
			return
		case "report":
			reportCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func openRepo(path string) *sqldb.Repo {
	repo, err := sqldb.OpenSQLite(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open store:", err)
		os.Exit(1)
	}
	return repo
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dbPath := fs.String("db", "./data/store.db", "sqlite store path")
	_ = fs.Parse(args)

	repo := openRepo(*dbPath)
	defer repo.Close()

	runs, err := repo.ListRuns(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, "list runs:", err)
		os.Exit(1)
	}
	for _, r := range runs {
		fmt.Printf("%s  %-12s round=%d  %s (%s, %s)\n",
			r.ID, r.Status, r.CurrentRound, r.StoreName, r.StoreSize, r.Region)
	}
}

func runCmd(args []string) {
	fs := flag.NewFlagSet("admin run", flag.ExitOnError)
	dbPath := fs.String("db", "./data/store.db", "sqlite store path")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: admin run [-db path] <run-id>")
		os.Exit(2)
	}
	id := fs.Arg(0)

	repo := openRepo(*dbPath)
	defer repo.Close()
	ctx := context.Background()

	run, err := repo.GetRun(ctx, id)
	if err != nil {
		fmt.Fprintln(os.Stderr, "get run:", err)
		os.Exit(1)
	}
	fmt.Printf("run %s seed=%d status=%s store=%q size=%s region=%s created=%s\n",
		run.ID, run.RunSeed, run.Status, run.StoreName, run.StoreSize, run.Region, run.CreatedAt.Format("2006-01-02 15:04:05"))

	states, err := repo.ListRoundStates(ctx, id)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list states:", err)
		os.Exit(1)
	}
	instances, err := repo.ListEventInstances(ctx, id)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list events:", err)
		os.Exit(1)
	}
	eventByRound := map[int]string{}
	for _, ev := range instances {
		eventByRound[ev.RoundNumber] = ev.TemplateID
	}
	for _, st := range states {
		ev := eventByRound[st.RoundNumber]
		if ev == "" {
			ev = "-"
		}
		fmt.Printf("  round %d  event=%-22s revenue=%.0f netProfit=%.0f engagement=%.0f satisfaction=%.0f\n",
			st.RoundNumber, ev, st.Metrics.Revenue, st.Metrics.NetProfit,
			st.Metrics.EngagementScore, st.Metrics.CustomerSatisfaction)
	}
}

func reportCmd(args []string) {
	fs := flag.NewFlagSet("admin report", flag.ExitOnError)
	dbPath := fs.String("db", "./data/store.db", "sqlite store path")
	configDir := fs.String("configs", "./configs", "config directory")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: admin report [-db path] [-configs dir] <run-id>")
		os.Exit(2)
	}

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load catalogs:", err)
		os.Exit(1)
	}
	repo := openRepo(*dbPath)
	defer repo.Close()

	svc := game.New(game.Config{
		Log:      log.New(io.Discard, "", 0),
		Repo:     repo,
		Catalogs: cats,
		Tuning:   tuning.Defaults(),
	})
	rep, err := svc.Report(context.Background(), fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "report:", err)
		os.Exit(1)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(rep)
}
