// Command placeetl loads reddit r/place placement dumps (the 2017 and 2022
// generations) into a SQL store.
//
//	placeetl --db placements.db 2017.csv 2022_place_canvas_history.csv.gz
//
// With no input files it reads stdin. Any run-level error exits with
// status 1; malformed lines are logged, optionally written to --reject-log,
// and skipped.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	// register all backends with the storage factory.
	_ "placeetl/internal/storage/all"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand(os.Stdout, os.Stderr).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "placeetl: %v\n", err)
		os.Exit(1)
	}
}
