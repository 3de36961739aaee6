// Command gpp-random searches the gas processing plant with the random strategy
// and prints the best operating point.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/GoSim-25-26J-441/simulation-optimizer/internal/gpp"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := gpp.Main(ctx, "random", os.Stdout, os.Stderr, os.LookupEnv)
	stop()
	os.Exit(code)
}
