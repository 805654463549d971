package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"dogmove/dataset"
	"dogmove/pipeline"
	"dogmove/utils"

	"github.com/joho/godotenv"
	"github.com/mdobak/go-xerrors"
)

func main() {
	_ = godotenv.Load()

	defaultInput := os.Getenv("DOGMOVE_INPUT")
	if defaultInput == "" {
		defaultInput = "DogMoveData.csv"
	}

	input := flag.String("input", defaultInput, "Raw DogMoveData CSV file")
	windowed := flag.Bool("windowed", false, "Summarise the windowed table instead of the cleaned series")
	window := flag.Int("window", 100, "Window size in samples (with -windowed)")
	step := flag.Int("step", 50, "Step size in samples (with -windowed)")
	flag.Parse()

	raw, err := dataset.LoadRaw(*input)
	if err != nil {
		fatal("failed to load raw dataset", err)
	}

	series := pipeline.Clean(pipeline.Unify(raw))

	if *windowed {
		cfg := pipeline.WindowConfig{
			WindowSize: *window,
			StepSize:   *step,
			Balance:    pipeline.BalanceNone,
		}
		table, err := pipeline.ApplyWindowing(series, cfg)
		if err != nil {
			fatal("windowing failed", err)
		}
		overview, err := pipeline.OverviewWindows(table)
		if err != nil {
			fatal("failed to compute overview", err)
		}
		log.Printf("Windowed overview of %s (window %d, step %d)\n", *input, *window, *step)
		overview.WriteReport(os.Stdout)
		return
	}

	overview, err := pipeline.Overview(series)
	if err != nil {
		fatal("failed to compute overview", err)
	}
	log.Printf("Overview of %s (cleaned series)\n", *input)
	overview.WriteReport(os.Stdout)
}

func fatal(msg string, err error) {
	logger := utils.GetLogger()
	wrapped := xerrors.New(err)
	logger.ErrorContext(context.Background(), msg, slog.Any("error", wrapped))
	os.Exit(1)
}
