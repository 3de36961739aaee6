// Command gpp-tpe searches the gas processing plant with the tpe strategy
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
	code := gpp.Main(ctx, "tpe", os.Stdout, os.Stderr, os.LookupEnv)
	stop()
	os.Exit(code)
}
