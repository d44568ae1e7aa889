// Package stateio turns a bank of up to eight I2C expander chips into
// a remotely configurable bank of digital inputs and outputs. The bank
// is partitioned at a configurable slot boundary: devices below it are
// monitored as inputs, devices at or above it are driven as outputs,
// all addressed through 1-based logical indices.
package stateio

import (
	"context"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/openrack/stateio/drivers"
	"github.com/openrack/stateio/telemetry"
)

const defaultSettingsFile = "stateio-settings.json"
const queueCapacity = 32

// Transport delivers schemas and status events to the outside world
// and is expected to feed inbound config/command payloads back through
// the enqueue methods.
type Transport interface {
	SetConfigSchema(doc map[string]any) error
	SetCommandSchema(doc map[string]any) error
	PublishStatus(payload []byte) error
}

type inboundKind int

const (
	inboundConfig inboundKind = iota
	inboundCommand
)

type inboundMessage struct {
	kind    inboundKind
	payload []byte
}

// StateIO is the root object, unmarshalled straight from the JSON
// config file.
type StateIO struct {
	Name         string
	I2CBus       uint8
	MqttBroker   string
	HTTPAddr     string
	SettingsFile string

	Influx *telemetry.InfluxSink

	partition PartitionConfig
	inventory Inventory
	store     SettingsStore
	transport Transport

	queue    chan inboundMessage
	logger   *log.Logger
	failover *log.Logger
	ticker   *time.Ticker
}

// Setup loads the persisted partition settings, scans the bus and
// advertises the schemas. Must be called once before Run.
func (sk *StateIO) Setup(bus drivers.Bus, transport Transport) error {
	sk.logger = log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "stateio: ",
		Level:  log.GetLevel(),
	})
	sk.failover = log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "failover: ",
		Level:  log.GetLevel(),
	})

	sk.store = SettingsStore{Path: sk.SettingsFile}
	if len(sk.store.Path) == 0 {
		sk.store.Path = defaultSettingsFile
	}

	settings, err := sk.store.Load()
	if err != nil {
		sk.logger.Error("failed loading settings, using defaults", "err", err)
		settings = Settings{}
	}

	sk.partition, err = settings.Partition()
	if err != nil {
		return errors.Wrap(err, "invalid persisted partition settings")
	}
	sk.logger.Info("partition loaded",
		"outputStart", sk.partition.OutputStart,
		"outputsPerDevice", sk.partition.OutputsPerDevice)

	sk.inventory.Discover(bus, sk.partition, sk.onInputEvent, sk.onOutputEvent, sk.logger)

	sk.transport = transport
	sk.queue = make(chan inboundMessage, queueCapacity)

	am := sk.addressMap()
	if sk.transport != nil {
		if err := sk.transport.SetConfigSchema(buildConfigSchema(am)); err != nil {
			sk.logger.Error("failed setting config schema", "err", err)
		}
		if err := sk.transport.SetCommandSchema(buildCommandSchema(am)); err != nil {
			sk.logger.Error("failed setting command schema", "err", err)
		}
	}

	if sk.Influx != nil {
		if err := sk.Influx.Setup(); err != nil {
			sk.logger.Error("event history sink unavailable", "err", err)
		}
	}

	return nil
}

// addressMap snapshots the current partition and presence state. The
// bounds inside are always computed live, see AddressMap.
func (sk *StateIO) addressMap() AddressMap {
	return AddressMap{
		Partition: sk.partition,
		Found:     sk.inventory.Found(),
	}
}

// EnqueueConfig hands a raw config payload to the run loop. Safe to
// call from transport goroutines.
func (sk *StateIO) EnqueueConfig(payload []byte) {
	sk.enqueue(inboundMessage{kind: inboundConfig, payload: payload})
}

// EnqueueCommand hands a raw command payload to the run loop.
func (sk *StateIO) EnqueueCommand(payload []byte) {
	sk.enqueue(inboundMessage{kind: inboundCommand, payload: payload})
}

func (sk *StateIO) enqueue(msg inboundMessage) {
	if sk.queue == nil {
		return
	}
	select {
	case sk.queue <- msg:
	default:
		sk.logger.Warn("message queue full, dropping payload")
	}
}

// Run drives the polling loop until the context is cancelled. Each
// pass first drains pending config/command messages, then services
// every present slot in order: output timers, a register snapshot and
// input classification. Everything mutable is touched only from this
// goroutine.
func (sk *StateIO) Run(ctx context.Context, interval time.Duration) {
	sk.ticker = time.NewTicker(interval)
	defer sk.ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sk.ticker.C:
			sk.drainQueue()
			sk.pollSlots()
		}
	}
}

func (sk *StateIO) drainQueue() {
	for {
		select {
		case msg := <-sk.queue:
			switch msg.kind {
			case inboundConfig:
				sk.handleConfig(msg.payload)
			case inboundCommand:
				sk.handleCommand(msg.payload)
			}
		default:
			return
		}
	}
}

func (sk *StateIO) pollSlots() {
	for slot := uint8(0); slot < drivers.DeviceCount; slot++ {
		slotRef := &sk.inventory.Slots[slot]
		if !slotRef.Present {
			continue
		}

		if sk.partition.IsOutputSlot(slot) {
			slotRef.Output.Process()
		}

		value, err := slotRef.Chip.ReadAll()
		if err != nil {
			sk.logger.Error("failed reading expander", "slot", slot, "err", err)
			continue
		}

		if sk.partition.IsInputSlot(slot) {
			slotRef.Input.Process(value)
		}
	}
}

func (sk *StateIO) Close() (err error) {
	if sk.Influx != nil {
		sk.Influx.Close()
	}
	return sk.inventory.Close()
}
