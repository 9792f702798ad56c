package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"

	"github.com/joshp123/petoneer/internal/config"
	"github.com/joshp123/petoneer/internal/logging"
	"github.com/joshp123/petoneer/plugins/petoneer"
)

type globalFlags struct {
	config string
	device string
	addr   string
	json   bool
	yaml   bool
	debug  bool
}

func main() {
	var g globalFlags
	flag.StringVar(&g.config, "config", "", "path to config.yaml (default "+config.DefaultPath+" if present)")
	flag.StringVar(&g.device, "device", "", "fountain serial or name (default: first registered)")
	flag.StringVar(&g.addr, "addr", "", "daemon gRPC address (default: core.grpc_addr)")
	flag.BoolVar(&g.json, "json", false, "print JSON")
	flag.BoolVar(&g.yaml, "yaml", false, "print YAML")
	flag.BoolVar(&g.debug, "debug", false, "log API requests to stderr")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.LoadDefault(g.config)
	if err != nil {
		fatal("load config", err)
	}
	out := outputMode{json: g.json, yaml: g.yaml}

	switch args[0] {
	case "services", "methods", "health":
		daemonCmd(cfg, g, out, args)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	client := newClient(cfg, g.debug)

	switch args[0] {
	case "devices":
		devicesCmd(ctx, client, out)
	case "status":
		statusCmd(ctx, client, out, g.device)
	case "on", "off":
		powerCmd(ctx, client, out, g.device, args[0] == "on")
	case "led":
		ledCmd(ctx, client, out, g.device, args[1:])
	case "pump-schedule":
		pumpScheduleCmd(ctx, client, out, g.device, args[1:])
	case "reset":
		resetCmd(ctx, client, out, g.device, args[1:])
	case "publish":
		publishCmd(ctx, client, cfg.MQTT, g.device)
	case "menu":
		cancel()
		menuCmd(client, g.device)
	default:
		usage()
		os.Exit(2)
	}
}

func newClient(cfg *config.Config, debug bool) *petoneer.Client {
	clientCfg, err := petoneer.ConfigFromSettings(cfg.Petoneer)
	if err != nil {
		fatal("petoneer config", err)
	}
	level := logging.WarnLevel
	if debug {
		level = logging.DebugLevel
	}
	logger := logging.New(level)

	client, err := petoneer.NewClient(clientCfg, petoneer.WithLogger(logger.With(zap.String("component", "petoneer"))))
	if err != nil {
		fatal("petoneer client", err)
	}
	return client
}

func usage() {
	fmt.Println("petoneer-cli [flags] <command> [args]")
	fmt.Println("")
	fmt.Println("Fountain commands:")
	fmt.Println("  devices")
	fmt.Println("  status")
	fmt.Println("  on | off")
	fmt.Println("  led off|full|dimmed")
	fmt.Println("  led schedule <HH:MM> <HH:MM>")
	fmt.Println("  pump-schedule [--disable] <HH:MM> <HH:MM>")
	fmt.Println("  reset filter|water|pump")
	fmt.Println("  publish")
	fmt.Println("  menu")
	fmt.Println("")
	fmt.Println("Daemon commands:")
	fmt.Println("  services")
	fmt.Println("  methods <service>")
	fmt.Println("  health [service]")
	fmt.Println("")
	fmt.Println("Flags:")
	flag.PrintDefaults()
}

func fatal(action string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", action, err)
	os.Exit(1)
}
