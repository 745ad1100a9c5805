package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danmuck/edgeclient/internal/client"
	"github.com/danmuck/edgeclient/internal/config"
	"github.com/danmuck/edgeclient/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	envPath := flag.String("env", ".env", "optional .env file with EDGECLIENT_* overrides")
	initPath := flag.String("init", "", "write a config template to this path and exit")
	force := flag.Bool("force", false, "overwrite an existing file with -init")
	validate := flag.Bool("validate", false, "resolve and validate the config, then exit")
	flag.Parse()

	logging.ConfigureRuntime()

	if *initPath != "" {
		if err := config.WriteTemplate(*initPath, *force); err != nil {
			fail(err)
		}
		fmt.Printf("wrote %s\n", *initPath)
		return
	}

	cfg, err := config.Load(*configPath, *envPath)
	if err != nil {
		fail(err)
	}
	if *validate {
		fmt.Printf("config ok: endpoint=%s server=%s:%d\n", cfg.Endpoint, cfg.ServerHost, cfg.ServerPort)
		return
	}

	if err := client.NewService(cfg).Run(); err != nil {
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "edgeclient: %v\n", err)
	os.Exit(1)
}
