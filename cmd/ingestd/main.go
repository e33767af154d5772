package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"gighub/internal/follows"
	"gighub/internal/ingest"
	"gighub/pkg/database"
	"gighub/pkg/utils"
)

// ingestd periodically refreshes listings for every followed artist plus an
// optional seed list, so the read API stays warm without user-triggered syncs.
func main() {
	var (
		schedule = flag.String("schedule", "@every 1h", "cron schedule for sync runs")
		seed     = flag.String("seed", "", "comma-separated artist names to always sync")
		once     = flag.Bool("once", false, "run a single sync and exit")
	)
	flag.Parse()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	source := ingest.NewClient(utils.LoadListingsConfig())
	syncer := ingest.NewSyncer(ingest.NewSQLStore(db), source)
	syncCfg := utils.LoadSyncConfig()
	syncer.MaxArtists = syncCfg.MaxArtists
	syncer.GroupSize = syncCfg.GroupSize
	syncer.LimitPerArtist = syncCfg.LimitPerArtist

	followsRepo := follows.NewRepo(db)

	var seedNames []string
	for _, name := range strings.Split(*seed, ",") {
		if name = strings.TrimSpace(name); name != "" {
			seedNames = append(seedNames, name)
		}
	}

	run := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		names, err := followsRepo.AllFollowedArtistNames(ctx)
		if err != nil {
			log.Printf("[ingestd] list followed artists: %v", err)
			return
		}
		names = append(names, seedNames...)
		if len(names) == 0 {
			log.Println("[ingestd] nothing to sync")
			return
		}

		events, err := syncer.SyncArtists(ctx, names, ingest.Options{})
		if err != nil {
			log.Printf("[ingestd] sync failed: %v", err)
			return
		}
		log.Printf("[ingestd] sync run done: %d artists requested, %d events stored", len(names), len(events))
	}

	if *once {
		run()
		return
	}

	c := cron.New()
	if _, err := c.AddFunc(*schedule, run); err != nil {
		log.Fatalf("invalid schedule %q: %v", *schedule, err)
	}
	c.Start()
	log.Printf("[ingestd] scheduled sync with %q", *schedule)

	// First run straight away rather than waiting a full period.
	run()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("[ingestd] shutdown signal received: %s", sig)

	<-c.Stop().Done()
}
