package main

import (
	"os"

	"github.com/wgbh/bawstun/internal/cli"
	"github.com/wgbh/bawstun/pkg/logger"
)

var log = logger.Get("Bootstrap")

func main() {
	if err := cli.Execute(); err != nil {
		log.Emit(logger.FATAL, "%v\n", err)
		os.Exit(1)
	}
}
