package main

import (
	"flag"
	"os"

	"github.com/df07/go-irradiance-tracer/pkg/core"
	"github.com/df07/go-irradiance-tracer/web/server"
)

func main() {
	port := flag.Int("port", 8080, "Port to serve on")
	scenesDir := flag.String("scenes", "scenes", "Directory of YAML scenes to offer")
	debug := flag.Bool("debug", false, "Verbose logging")
	flag.Parse()

	logger := core.NewDefaultLogger(os.Stderr, *debug)
	webServer := server.NewServer(*port, *scenesDir, logger)

	logger.Infof("irradiance tracer web server, visit http://localhost:%d", *port)
	if err := webServer.Start(); err != nil {
		logger.Errorf("error starting server: %v", err)
		os.Exit(1)
	}
}
