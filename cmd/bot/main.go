// Command bot plays a full run against a live server: it creates a run,
// subscribes to the watch stream, picks a random option for every decision and
// scenario each round, and prints the final grade. Useful for smoke-testing a
// deployment end to end.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/chrisf-bit/store-manager/internal/game"
	"github.com/chrisf-bit/store-manager/internal/protocol"
	"github.com/chrisf-bit/store-manager/internal/store"
)

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:8080", "server base url")
		seed    = flag.Int64("seed", 0, "rng seed for option picks (0 = random)")
		size    = flag.String("size", "", "store size (default: server default)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	rng := rand.New(rand.NewSource(*seed))
	if *seed == 0 {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	var created game.NewRun
	mustPost(logger, *baseURL+"/v1/runs", protocol.CreateRunRequest{StoreSize: *size}, &created)
	runID := created.Run.ID
	logger.Printf("run %s seed=%d store=%q", runID, created.Run.RunSeed, created.Run.StoreName)

	go watchRun(logger, *baseURL, runID)

	round := 0
	for {
		var info game.RoundInfo
		mustGet(logger, fmt.Sprintf("%s/v1/runs/%s/rounds/%d", *baseURL, runID, round), &info)
		if len(info.Templates) == 0 {
			break
		}

		req := protocol.SubmitDecisionsRequest{}
		for _, tmpl := range info.Templates {
			opt := tmpl.Options[rng.Intn(len(tmpl.Options))]
			req.Decisions = append(req.Decisions, protocol.DecisionChoice{
				DecisionTemplateID: tmpl.ID,
				OptionKey:          opt.Key,
			})
		}
		for _, sc := range info.Scenarios {
			req.Scenarios = append(req.Scenarios, protocol.ScenarioAnswer{
				ScenarioID:  sc.ID,
				OptionIndex: rng.Intn(len(sc.Options)),
			})
		}

		round++
		var out game.RoundOutcome
		mustPost(logger, fmt.Sprintf("%s/v1/runs/%s/rounds/%d/decisions", *baseURL, runID, round), req, &out)
		logger.Printf("round %d: event=%s revenue=%.0f", round, out.Event.ID, out.State.Metrics.Revenue)
		if out.Run.Status != store.StatusInProgress {
			break
		}
	}

	var rep game.Report
	mustGet(logger, *baseURL+"/v1/runs/"+runID+"/report", &rep)
	logger.Printf("done: grade=%q overall=%d", rep.Grade, rep.OverallScore)
}

// watchRun logs everything the server pushes for the run.
func watchRun(logger *log.Logger, baseURL, runID string) {
	wsURL := strings.Replace(baseURL, "http", "ws", 1) + "/v1/runs/" + runID + "/watch"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		logger.Printf("watch dial: %v", err)
		return
	}
	defer conn.Close()
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var update map[string]any
		if err := json.Unmarshal(msg, &update); err != nil {
			continue
		}
		logger.Printf("watch: round=%v status=%v event=%v", update["roundNumber"], update["status"], update["eventId"])
	}
}

func mustGet(logger *log.Logger, url string, dst any) {
	resp, err := http.Get(url)
	if err != nil {
		logger.Fatalf("GET %s: %v", url, err)
	}
	decode(logger, url, resp, dst)
}

func mustPost(logger *log.Logger, url string, body, dst any) {
	raw, _ := json.Marshal(body)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		logger.Fatalf("POST %s: %v", url, err)
	}
	decode(logger, url, resp, dst)
}

func decode(logger *log.Logger, url string, resp *http.Response, dst any) {
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		logger.Fatalf("%s: %d %s", url, resp.StatusCode, raw)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		logger.Fatalf("%s: decode: %v", url, err)
	}
}
