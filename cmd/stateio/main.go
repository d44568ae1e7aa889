package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hubertat/servicemaker"

	"github.com/openrack/stateio"
	"github.com/openrack/stateio/drivers"
	"github.com/openrack/stateio/mqtt"
)

const defaultSyncInterval = "330ms"
const defaultClientId = "stateio"

var (
	Version string
	Build   string

	config       = flag.String("config", "config.json", "path of the configuration file")
	flagInstall  = flag.Bool("install", false, "Install service in os")
	syncInterval = flag.String("sync", defaultSyncInterval, "sync interval (time.Duration)")

	stateioService = servicemaker.ServiceMaker{
		User:               "stateio",
		UserGroups:         []string{"i2c"},
		ServicePath:        "/etc/systemd/system/stateio.service",
		ServiceDescription: "stateio service: remotely configurable I2C expander input/output bank",
		ExecDir:            "/srv/stateio",
		ExecName:           "stateio",
	}
)

func main() {
	log.Info("stateio started", "version", Version)
	flag.Parse()

	if *flagInstall {
		err := stateioService.InstallService()
		if err != nil {
			log.Fatal("service install failed", "err", err)
		}
		log.Info("service installed!")
		return
	}

	syncDuration, err := time.ParseDuration(*syncInterval)
	if err != nil {
		log.Fatal("invalid sync interval", "err", err)
	}

	sk := &stateio.StateIO{}
	configFile, err := os.Open(*config)
	if err != nil {
		log.Fatal("can't find/open config file, will terminate", "path", *config, "err", err)
	}
	cBuff, err := io.ReadAll(configFile)
	configFile.Close()
	if err != nil {
		log.Fatal("failed reading config file", "err", err)
	}
	err = json.Unmarshal(cBuff, sk)
	if err != nil {
		log.Fatal("failed unmarshalling json config", "err", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var client *mqtt.Client
	var transport stateio.Transport
	if len(sk.MqttBroker) > 0 {
		clientId := sk.Name
		if len(clientId) == 0 {
			clientId = defaultClientId
		}
		client, err = mqtt.NewClient(sk.MqttBroker, clientId, sk.EnqueueConfig, sk.EnqueueCommand)
		if err != nil {
			log.Fatal("failed to create mqtt client", "err", err)
		}
		transport = client
	} else {
		log.Warn("mqtt broker not set, events will go to the failover log only")
	}

	log.Info("scanning expander bus...")
	err = sk.Setup(&drivers.McpBus{BusNo: sk.I2CBus}, transport)
	if err != nil {
		log.Fatal("setup failed", "err", err)
	}
	defer sk.Close()

	if client != nil {
		err = client.Connect(ctx)
		if err != nil {
			log.Fatal("failed to connect to mqtt broker", "err", err)
		}
		defer client.Disconnect(context.Background())
	}

	err = sk.StartAPI()
	if err != nil {
		log.Fatal("failed to start admin api", "err", err)
	}

	sk.Run(ctx, syncDuration)
}
