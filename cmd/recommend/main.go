package main

import (
	"bufio"
	"context"
	"flag"
	"os"
	"os/signal"
	"time"

	"reco-core/internal/logging"
	"reco-core/internal/widget"
)

func main() {
	url := flag.String("url", "http://localhost:5000", "recommendation service base URL")
	timeout := flag.Duration("timeout", 0, "request timeout (0 means none)")
	flag.Parse()

	log := logging.New("warn", "console")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	display := widget.NewTerminalDisplay(os.Stdout)
	w := widget.New(widget.NewClient(*url, *timeout), display)

	if flag.NArg() > 0 {
		for _, id := range flag.Args() {
			w.Submit(ctx, id)
		}
		return
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		start := time.Now()
		w.Submit(ctx, scanner.Text())
		log.Debug().Dur("elapsed", time.Since(start)).Msg("submission finished")
	}
	if err := scanner.Err(); err != nil {
		log.Fatal().Err(err).Msg("failed to read user ids")
	}
}
