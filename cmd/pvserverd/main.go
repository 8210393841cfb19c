// pvserverd serves the single-diode model over HTTP: curve summaries and I-V
// sweeps for the devices in a YAML device library.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/solarmetrics/pvmodel/internal/server"
	"github.com/solarmetrics/pvmodel/pkg/config"
)

const version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

func main() {
	var wg sync.WaitGroup
	var zapLogger *zap.Logger
	var err error

	cfgFile := flag.String("config", "devices.yaml", "Path to the device library file (default: ./devices.yaml)")
	listenAddr := flag.String("listen", "0.0.0.0:8080", "Listen address for the HTTP API")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	if *debug {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Printf("can't initialize zap logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()
	log := zapLogger.Sugar()

	filename, _ := filepath.Abs(*cfgFile)
	provider := config.NewYAMLProvider(filename)
	library, err := provider.LoadLibrary()
	if err != nil {
		log.Errorf("error reading device library. Did you pass the -config flag? Run with -h for help: %v", err)
		os.Exit(1)
	}
	log.Infof("loaded %d device(s) from %s", len(library.Devices), filename)

	ctx, cancel := context.WithCancel(context.Background())

	srv, err := server.New(*listenAddr, library, log)
	if err != nil {
		log.Errorf("could not create API server: %v", err)
		cancel()
		os.Exit(1)
	}
	srv.Start(ctx, &wg)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	<-sigs
	log.Info("shutdown signal received, initiating graceful shutdown...")
	cancel()

	wg.Wait()
	log.Info("shutdown complete")
}
