package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/browser"
	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/clean"
	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/config"
	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/detect"
	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/input"
	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/models"
	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/notify"
	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/orchestrate"
	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/parse"
	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/resolve"
	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/store"
	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/walk"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000"})
	log.SetLevel(logrus.InfoLevel)

	configFileFlag := flag.String("config", "config.yaml", "Path to YAML config file")
	inputFlag := flag.String("input", "", "Path to CSV file of tariff codes (overrides config)")
	logLevelFlag := flag.String("loglevel", "info", "Log level (debug, info, warn, error, fatal)")
	resumeFlag := flag.Bool("resume", false, "Skip codes already stored within the resume window")
	headlessFlag := flag.Bool("headless", true, "Run the browser headless")
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevelFlag)
	if err != nil {
		log.Warnf("Invalid log level '%s', using default 'info'. Error: %v", *logLevelFlag, err)
	} else {
		log.SetLevel(level)
	}

	log.Infof("Loading configuration from %s", *configFileFlag)
	cfg, err := config.Load(*configFileFlag)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warnf("Config file '%s' not found, using defaults", *configFileFlag)
			cfg = &config.AppConfig{}
			cfg.ApplyDefaults()
		} else {
			log.Fatalf("Load config file '%s' error: %v", *configFileFlag, err)
		}
	}
	cfg.Scrape.Headless = *headlessFlag
	if *inputFlag != "" {
		cfg.InputCSV = *inputFlag
	}
	if !*resumeFlag {
		cfg.Store.ResumeFreshDays = 0
	}

	warnings, err := cfg.Validate()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	for _, w := range warnings {
		log.Warn(w)
	}
	log.Infof("Config: Workers:%d, SessionRestartEvery:%d, DB:%s, BaseURL:%s",
		cfg.NumWorkers, cfg.SessionRestartEvery, cfg.Store.DBPath, cfg.Scrape.BaseURL)

	if cfg.InputCSV == "" {
		log.Fatal("Error: no input CSV (use -input or input_csv in config)")
	}
	entry := logrus.NewEntry(log)
	codes, err := input.ReadCodes(cfg.InputCSV, entry)
	if err != nil {
		log.Fatalf("Failed to read input codes: %v", err)
	}
	if len(codes) == 0 {
		log.Fatal("Input file contains no usable tariff codes")
	}
	log.Infof("Loaded %d tariff codes from %s", len(codes), cfg.InputCSV)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Warnf("Received signal: %v. Initiating graceful shutdown...", sig)
		cancel()
		select {
		case sig = <-sigChan:
			log.Warnf("Received second signal: %v. Forcing exit.", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			log.Warn("Graceful shutdown period exceeded after signal. Forcing exit.")
			os.Exit(1)
		}
	}()
	defer signal.Stop(sigChan)

	log.Info("Initializing components...")

	db, err := store.Open(cfg.Store, entry)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	run := models.NewRunContext(cfg.Scrape.BaseURL)
	cleaner := clean.NewCleaner(cfg.BoilerplatePhrases)
	resolver := resolve.New(cfg.Scrape, run, entry)
	walker := walk.NewSectionWalker(cfg.Scrape, resolver, cleaner, run, entry)
	parser := parse.NewParser(cleaner, entry)
	factory := browser.NewRodFactory(browser.RodConfig{
		Headless:  cfg.Scrape.Headless,
		UserAgent: cfg.Scrape.UserAgent,
	}, entry)

	orch := orchestrate.New(cfg, factory, walker, parser, db, run, entry)

	log.Infof("Run %s: processing %d codes with %d workers", run.RunID, len(codes), cfg.NumWorkers)
	start := time.Now()
	summary := orchestrate.Collect(orch.Run(ctx, codes), entry)

	strategyLog := run.Snapshot()
	detector := detect.NewChangeDetector(detect.NewBaselineStore(cfg.StateDir), entry)
	changes, err := detector.Compare(strategyLog)
	if err != nil {
		log.Errorf("Failed to update strategy baseline: %v", err)
	}

	log.Infof("Run %s finished in %v: processed=%d success=%d partial=%d duplicate=%d skipped=%d failed=%d",
		run.RunID, time.Since(start).Round(time.Second),
		summary.Processed, summary.Succeeded, summary.Partial,
		summary.Duplicates, summary.Skipped, summary.Failed)

	notifier := notify.New(cfg.NotifyWebhookURL, entry)
	notifier.Send(context.Background(), notify.Payload{
		RunID:            run.RunID,
		FinishedAt:       time.Now().UTC(),
		Processed:        summary.Processed,
		Succeeded:        summary.Succeeded,
		Partial:          summary.Partial,
		Duplicates:       summary.Duplicates,
		Skipped:          summary.Skipped,
		Failed:           summary.Failed,
		DurationSeconds:  time.Since(start).Seconds(),
		StructureChanges: changes,
	})

	if ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled) {
		log.Warn("Run cancelled gracefully.")
		os.Exit(0)
	}
	if summary.Failed > 0 && summary.Failed == summary.Processed {
		log.Error("Every code failed; check site availability and frame heuristics.")
		os.Exit(1)
	}
	log.Info("Run completed successfully.")
}
