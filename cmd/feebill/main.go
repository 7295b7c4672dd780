package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/mmynk/feebill/internal/app"
	"github.com/mmynk/feebill/internal/config"
	"github.com/mmynk/feebill/pkg/logging"
)

func main() {
	cfg, err := config.Load(os.Getenv("FEEBILL_CONFIG"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	a, err := app.New(cfg, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cli := &commandLine{app: a, stdout: os.Stdout}
	if err := cli.run(os.Args); err != nil {
		if !errors.Is(err, errHelp) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(2)
	}
}
