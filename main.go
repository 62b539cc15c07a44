package main

import (
	"os"

	"github.com/rs/zerolog/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Debug().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
