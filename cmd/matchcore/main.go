// Command matchcore runs the matching engine behind the TCP wire
// adapter. It owns process lifecycle only: flag parsing, wiring the
// engine/journal/adapter together, and signal-driven graceful shutdown
// — the CLI entry point is explicitly an external collaborator per the
// spec, not part of the matching core.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/matchcore/matchcore/internal/config"
	"github.com/matchcore/matchcore/internal/engine"
	"github.com/matchcore/matchcore/internal/journal"
	"github.com/matchcore/matchcore/internal/netsrv"
)

func main() {
	cfg := config.Default()

	addr := flag.String("addr", cfg.ListenAddr, "TCP listen address")
	journalPath := flag.String("journal", cfg.JournalPath, "append-only journal file path")
	makerRate := flag.Float64("maker-fee", cfg.MakerFeeRate, "maker fee rate")
	takerRate := flag.Float64("taker-fee", cfg.TakerFeeRate, "taker fee rate")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	cfg.ListenAddr = *addr
	cfg.JournalPath = *journalPath
	cfg.MakerFeeRate = *makerRate
	cfg.TakerFeeRate = *takerRate

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	j, err := journal.Open(cfg.JournalPath)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to open journal")
	}
	defer j.Close()

	eng := engine.New(engine.WithJournal(j), engine.WithFees(cfg.Fees()))
	srv := netsrv.New(cfg.ListenAddr, eng)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Run(ctx); err != nil {
			log.Error().Err(err).Msg("server exited with error")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down matchcore")
	srv.Shutdown()
	os.Exit(0)
}
