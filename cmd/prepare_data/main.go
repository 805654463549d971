package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"dogmove/dataset"
	"dogmove/db"
	"dogmove/pipeline"
	"dogmove/utils"

	"github.com/joho/godotenv"
	"github.com/mdobak/go-xerrors"
	"gopkg.in/yaml.v3"
)

// Config holds the pipeline configuration, assembled from defaults, an
// optional YAML config file, environment variables and command line flags
// (later sources win).
type Config struct {
	Input      string `yaml:"input"`
	Output     string `yaml:"output"`
	WindowSize int    `yaml:"window"`
	StepSize   int    `yaml:"step"`
	Balance    string `yaml:"balance"`
	Strategy   string `yaml:"strategy"`
	Reference  string `yaml:"reference"`
	Seed       int64  `yaml:"seed"`
	Scale      string `yaml:"scale"`
	DogInfo    string `yaml:"dog_info"`
	Store      string `yaml:"store"`
	Verbose    bool   `yaml:"verbose"`
}

func defaultConfig() Config {
	input := os.Getenv("DOGMOVE_INPUT")
	if input == "" {
		input = "DogMoveData.csv"
	}
	return Config{
		Input:      input,
		WindowSize: 100,
		StepSize:   50,
		Balance:    "up",
		Strategy:   "reference",
		Scale:      "none",
	}
}

func main() {
	_ = godotenv.Load()

	config := parseFlags()

	log.SetFlags(log.Ldate | log.Ltime)
	log.Printf("=== Dog Movement Data Preparation ===\n")
	log.Printf("Input: %s\n", config.Input)
	log.Printf("Window: %d samples, step %d\n", config.WindowSize, config.StepSize)
	log.Printf("Balance: %s (strategy %s)\n", config.Balance, config.Strategy)
	log.Println()

	startTime := time.Now()

	// Step 1: Load the raw dataset
	log.Println("Step 1: Loading raw dataset...")
	raw, err := dataset.LoadRaw(config.Input)
	if err != nil {
		fatal("failed to load raw dataset", err)
	}
	log.Printf("Loaded %d records with %d sensor channels\n", len(raw.Records), len(raw.ChannelNames))
	log.Println()

	// Step 2: Unify the three behavior annotation columns
	log.Println("Step 2: Unifying behavior labels...")
	series := pipeline.Unify(raw)
	log.Println()

	// Step 3: Drop noise classes and duplicates
	log.Println("Step 3: Filtering noise classes and duplicates...")
	before := len(series.Records)
	series = pipeline.Clean(series)
	log.Printf("Dropped %d records, %d remain\n", before-len(series.Records), len(series.Records))
	log.Println()

	// Optional: join per-dog metadata as extra channels
	if config.DogInfo != "" {
		log.Println("Step 3b: Enriching records with dog metadata...")
		store, err := dataset.LoadDogInfo(config.DogInfo)
		if err != nil {
			fatal("failed to load dog info", err)
		}
		series, err = store.EnrichSeries(series)
		if err != nil {
			fatal("failed to enrich series", err)
		}
		log.Printf("Channels after enrichment: %d\n", len(series.ChannelNames))
		log.Println()
	}

	if config.Verbose {
		overview, err := pipeline.Overview(series)
		if err != nil {
			fatal("failed to compute overview", err)
		}
		overview.WriteReport(os.Stderr)
	}

	// Step 4: Window and balance
	log.Println("Step 4: Applying windowing and class balancing...")
	windowCfg, err := buildWindowConfig(config)
	if err != nil {
		fatal("invalid configuration", err)
	}
	windows, err := pipeline.ApplyWindowing(series, windowCfg)
	if err != nil {
		fatal("windowing failed", err)
	}
	log.Printf("Produced %d windowed rows\n", len(windows.Rows))
	log.Println()

	// Optional: standardize channel columns
	if config.Scale != "none" && config.Scale != "" {
		log.Printf("Step 4b: Scaling channels (%s)...\n", config.Scale)
		windows, err = scaleWindows(windows, config.Scale)
		if err != nil {
			fatal("channel scaling failed", err)
		}
		log.Println()
	}

	// Step 5: Persist results (both sinks are opt-in)
	if config.Output != "" {
		log.Println("Step 5: Writing windowed table...")
		if err := dataset.SaveWindows(windows, config.Output); err != nil {
			fatal("failed to write output", err)
		}
		log.Printf("Windowed table written to: %s\n", config.Output)
		log.Println()
	}

	if config.Store != "" {
		log.Println("Step 6: Recording run in registry...")
		run, err := recordRun(config, len(series.Records), windows)
		if err != nil {
			fatal("failed to record run", err)
		}
		log.Printf("Run %s recorded in %s\n", run.ID, config.Store)
		log.Println()
	}

	printSummary(windows, startTime)
}

func parseFlags() Config {
	defaults := defaultConfig()

	configPath := flag.String("config", "", "Optional YAML config file")
	input := flag.String("input", defaults.Input, "Raw DogMoveData CSV file")
	output := flag.String("output", "", "Windowed output CSV (omit to skip writing)")
	window := flag.Int("window", defaults.WindowSize, "Window size in samples")
	step := flag.Int("step", defaults.StepSize, "Step size in samples")
	balance := flag.String("balance", defaults.Balance, "Class balancing: up, down or none")
	strategy := flag.String("strategy", defaults.Strategy, "Balancing target: reference, min or max")
	reference := flag.String("reference", "", "Reference class for the reference strategy (default per direction)")
	seed := flag.Int64("seed", 0, "Resampling seed (0 = time-seeded, non-reproducible)")
	scale := flag.String("scale", defaults.Scale, "Channel scaling: none, zscore or minmax")
	dogInfo := flag.String("dog-info", "", "Optional per-dog metadata CSV (enables enrichment)")
	store := flag.String("store", "", "Optional SQLite path recording the run")
	verbose := flag.Bool("verbose", false, "Print a dataset overview before windowing")

	flag.Parse()

	config := defaults
	if *configPath != "" {
		if err := loadConfigFile(*configPath, &config); err != nil {
			log.Fatalf("ERROR: Failed to load config file: %v", err)
		}
	}

	// Explicit flags override the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			config.Input = *input
		case "output":
			config.Output = *output
		case "window":
			config.WindowSize = *window
		case "step":
			config.StepSize = *step
		case "balance":
			config.Balance = *balance
		case "strategy":
			config.Strategy = *strategy
		case "reference":
			config.Reference = *reference
		case "seed":
			config.Seed = *seed
		case "scale":
			config.Scale = *scale
		case "dog-info":
			config.DogInfo = *dogInfo
		case "store":
			config.Store = *store
		case "verbose":
			config.Verbose = *verbose
		}
	})

	if _, err := os.Stat(config.Input); os.IsNotExist(err) {
		log.Fatalf("ERROR: Input file does not exist: %s", config.Input)
	}

	return config
}

func loadConfigFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func buildWindowConfig(config Config) (pipeline.WindowConfig, error) {
	cfg := pipeline.WindowConfig{
		WindowSize: config.WindowSize,
		StepSize:   config.StepSize,
		Resample: pipeline.ResampleOptions{
			Reference: config.Reference,
			Seed:      config.Seed,
		},
	}

	switch config.Balance {
	case "up":
		cfg.Balance = pipeline.BalanceUp
	case "down":
		cfg.Balance = pipeline.BalanceDown
	case "none":
		cfg.Balance = pipeline.BalanceNone
	default:
		return pipeline.WindowConfig{}, fmt.Errorf("unknown balance mode %q", config.Balance)
	}

	switch config.Strategy {
	case "reference", "":
		cfg.Resample.Strategy = pipeline.StrategyReference
	case "min":
		cfg.Resample.Strategy = pipeline.StrategyMin
	case "max":
		cfg.Resample.Strategy = pipeline.StrategyMax
	default:
		return pipeline.WindowConfig{}, fmt.Errorf("unknown strategy %q", config.Strategy)
	}

	return cfg, nil
}

func scaleWindows(windows pipeline.WindowTable, mode string) (pipeline.WindowTable, error) {
	switch mode {
	case "zscore":
		scaler, err := pipeline.NewChannelScalerFromWindows(windows)
		if err != nil {
			return pipeline.WindowTable{}, err
		}
		return scaler.Transform(windows), nil
	case "minmax":
		scaler, err := pipeline.NewMinMaxChannelScalerFromWindows(windows)
		if err != nil {
			return pipeline.WindowTable{}, err
		}
		return scaler.Transform(windows), nil
	default:
		return pipeline.WindowTable{}, fmt.Errorf("unknown scale mode %q", mode)
	}
}

func recordRun(config Config, recordCount int, windows pipeline.WindowTable) (*db.Run, error) {
	client, err := db.NewSQLiteClient(config.Store)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	run := &db.Run{
		InputPath:      config.Input,
		WindowSize:     config.WindowSize,
		StepSize:       config.StepSize,
		BalanceMode:    config.Balance,
		Strategy:       config.Strategy,
		ReferenceClass: config.Reference,
		Seed:           config.Seed,
		RecordCount:    recordCount,
		WindowCount:    len(windows.Rows),
	}
	if err := client.StoreRun(run); err != nil {
		return nil, err
	}
	if err := client.StoreWindowRows(run.ID, windows); err != nil {
		return nil, err
	}
	return run, nil
}

func printSummary(windows pipeline.WindowTable, startTime time.Time) {
	elapsed := time.Since(startTime)

	log.Println("=== Preparation Summary ===")
	log.Println()
	log.Printf("Windowed rows: %d\n", len(windows.Rows))

	groups := pipeline.SplitByBehavior(windows)
	log.Println("Class distribution:")
	overview, err := pipeline.OverviewWindows(windows)
	if err == nil {
		for _, bc := range overview.BehaviorCounts {
			log.Printf("  %-24s: %6d rows\n", bc.Behavior, bc.Count)
		}
	} else {
		for behavior, rows := range groups {
			log.Printf("  %-24s: %6d rows\n", behavior, len(rows))
		}
	}
	log.Println()

	log.Printf("Total preparation time: %.2f seconds\n", elapsed.Seconds())
	log.Println("Preparation complete")
}

func fatal(msg string, err error) {
	logger := utils.GetLogger()
	wrapped := xerrors.New(err)
	logger.ErrorContext(context.Background(), msg, slog.Any("error", wrapped))
	os.Exit(1)
}
