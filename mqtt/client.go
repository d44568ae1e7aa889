// Package mqtt connects the controller to its broker: schemas go out
// as a retained adoption payload, status events go to the stat topic,
// and inbound config/command messages are routed to the registered
// handlers.
package mqtt

import (
	"context"
	"encoding/json"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"
	"github.com/pkg/errors"
)

const subscribeTimeoutSeconds = 15
const connectionTimeoutSeconds = 5
const publishTimeoutSeconds = 4

// MessageHandler consumes one inbound payload. Handlers run on the
// client's network goroutine and should hand off quickly.
type MessageHandler func(payload []byte)

type Client struct {
	config   autopaho.ClientConfig
	conn     *autopaho.ConnectionManager
	logger   *log.Logger
	clientId string

	onConfig  MessageHandler
	onCommand MessageHandler

	mu            sync.Mutex
	configSchema  json.RawMessage
	commandSchema json.RawMessage
}

func NewClient(broker string, clientId string, onConfig, onCommand MessageHandler) (c *Client, err error) {
	addr, err := url.Parse(broker)
	if err != nil {
		return
	}

	c = &Client{
		logger: log.NewWithOptions(os.Stderr, log.Options{
			Prefix: "mqtt: ",
			Level:  log.GetLevel(),
		}),
		clientId:  clientId,
		onConfig:  onConfig,
		onCommand: onCommand,
	}

	c.config = autopaho.ClientConfig{
		ServerUrls:            []*url.URL{addr},
		KeepAlive:             20,
		SessionExpiryInterval: 60,
		OnConnectionUp:        c.onConnUp,
		OnConnectError:        c.onConnError,
		ClientConfig: paho.ClientConfig{
			ClientID:           clientId,
			OnClientError:      c.onConnError,
			OnServerDisconnect: c.onSrvDisconnect,
			OnPublishReceived:  c.onPublishRecv(),
		},
	}

	return
}

func (c *Client) ConfigTopic() string  { return "conf/" + c.clientId }
func (c *Client) CommandTopic() string { return "cmnd/" + c.clientId }
func (c *Client) StatusTopic() string  { return "stat/" + c.clientId }
func (c *Client) AdoptTopic() string   { return c.StatusTopic() + "/adopt" }

// Connect starts the connection manager. The context must live as long
// as the client, cancelling it shuts the connection down.
func (c *Client) Connect(ctx context.Context) (err error) {
	c.conn, err = autopaho.NewConnection(ctx, c.config)
	if err != nil {
		return errors.Wrap(err, "failed creating mqtt connection")
	}

	waitCtx, cancel := context.WithTimeout(ctx, connectionTimeoutSeconds*time.Second)
	defer cancel()

	err = c.conn.AwaitConnection(waitCtx)
	if err != nil {
		// The manager keeps reconnecting in the background, a slow
		// first connect is reported but not fatal.
		c.logger.Warn("broker not reachable yet", "err", err)
		err = nil
	}

	return
}

func (c *Client) Disconnect(ctx context.Context) error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Disconnect(ctx)
}

// SetConfigSchema stores the schema half of the adoption payload. It
// is published on every (re)connection.
func (c *Client) SetConfigSchema(doc map[string]any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "failed marshalling config schema")
	}

	c.mu.Lock()
	c.configSchema = raw
	c.mu.Unlock()
	return nil
}

func (c *Client) SetCommandSchema(doc map[string]any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "failed marshalling command schema")
	}

	c.mu.Lock()
	c.commandSchema = raw
	c.mu.Unlock()
	return nil
}

// PublishStatus delivers one status event. The returned error is the
// caller's signal to fail over locally.
func (c *Client) PublishStatus(payload []byte) (err error) {
	if c.conn == nil {
		return errors.New("mqtt not connected")
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeoutSeconds*time.Second)
	defer cancel()

	_, err = c.conn.Publish(ctx, &paho.Publish{
		Topic:   c.StatusTopic(),
		QoS:     1,
		Payload: payload,
	})
	return
}

func (c *Client) onConnUp(cm *autopaho.ConnectionManager, connAck *paho.Connack) {
	c.logger.Info("connected to MQTT broker")

	ctx, cancel := context.WithTimeout(context.Background(), subscribeTimeoutSeconds*time.Second)
	defer cancel()

	_, err := cm.Subscribe(ctx, &paho.Subscribe{
		Subscriptions: []paho.SubscribeOptions{
			{QoS: 1, Topic: c.ConfigTopic()},
			{QoS: 1, Topic: c.CommandTopic()},
		},
	})
	if err != nil {
		c.logger.Error("failed to subscribe to topics", "err", err)
	}

	c.publishAdopt(cm)
}

// publishAdopt announces the device with its schemas, retained so a
// controller joining later still sees them.
func (c *Client) publishAdopt(cm *autopaho.ConnectionManager) {
	c.mu.Lock()
	doc := map[string]json.RawMessage{}
	if c.configSchema != nil {
		doc["configSchema"] = c.configSchema
	}
	if c.commandSchema != nil {
		doc["commandSchema"] = c.commandSchema
	}
	c.mu.Unlock()

	if len(doc) == 0 {
		return
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		c.logger.Error("failed marshalling adoption payload", "err", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeoutSeconds*time.Second)
	defer cancel()

	_, err = cm.Publish(ctx, &paho.Publish{
		Topic:   c.AdoptTopic(),
		QoS:     1,
		Retain:  true,
		Payload: payload,
	})
	if err != nil {
		c.logger.Error("failed publishing adoption payload", "err", err)
	}
}

func (c *Client) onConnError(err error) {
	c.logger.Error("mqtt connection error", "err", err)
}

func (c *Client) onSrvDisconnect(d *paho.Disconnect) {
	c.logger.Info("disconnected from MQTT broker")
}

func (c *Client) onPublishRecv() []func(paho.PublishReceived) (bool, error) {
	return []func(paho.PublishReceived) (bool, error){
		func(pr paho.PublishReceived) (bool, error) {
			switch pr.Packet.Topic {
			case c.ConfigTopic():
				if c.onConfig != nil {
					c.onConfig(pr.Packet.Payload)
				}
			case c.CommandTopic():
				if c.onCommand != nil {
					c.onCommand(pr.Packet.Payload)
				}
			default:
				c.logger.Debug("message on unexpected topic", "topic", pr.Packet.Topic)
			}
			return true, nil
		},
	}
}
