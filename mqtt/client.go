package mqtt

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"lightwatch/config"
	"lightwatch/models"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// pingTopic is where MQTT-speaking devices publish their channel key. The
// payload is the key itself, nothing else, so the dumbest firmware can speak
// the protocol.
const pingTopic = "lightwatch/ping"

// PingRecorder is the slice of the liveness engine the ingress needs.
type PingRecorder interface {
	RecordPing(apiKey string, now time.Time) (int64, error)
}

// Client wraps the PAHO MQTT client and feeds incoming pings into the
// liveness engine. It is an alternative ingress to the HTTP ping endpoint;
// both converge on the same RecordPing path.
type Client struct {
	client mqtt.Client
	engine PingRecorder
	logger *slog.Logger
}

// NewClient creates and connects a new MQTT client.
func NewClient(cfg *config.Config, engine PingRecorder, logger *slog.Logger) (*Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientID).
		SetUsername(cfg.MQTTUsername).
		SetPassword(cfg.MQTTPassword).
		SetKeepAlive(60 * time.Second).
		SetPingTimeout(1 * time.Second).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(10 * time.Second).
		SetCleanSession(true)

	mqttClient := &Client{
		engine: engine,
		logger: logger.With("component", "mqtt_client"),
	}

	opts.SetOnConnectHandler(mqttClient.onConnect)
	opts.SetConnectionLostHandler(mqttClient.onConnectionLost)
	client := mqtt.NewClient(opts)
	mqttClient.client = client

	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return mqttClient, nil
}

// Disconnect gracefully disconnects the client.
func (c *Client) Disconnect() {
	if c.client.IsConnected() {
		c.client.Disconnect(250)
		c.logger.Info("MQTT Client disconnected")
	}
}

func (c *Client) onConnect(client mqtt.Client) {
	c.logger.Info("Successfully connected to MQTT broker. Subscribing to topics...")
	c.subscribe(pingTopic, c.handlePing)
}

func (c *Client) onConnectionLost(client mqtt.Client, err error) {
	c.logger.Error("Connection lost. Reconnecting...", slog.Any("error", err))
}

func (c *Client) subscribe(topic string, handler mqtt.MessageHandler) {
	if token := c.client.Subscribe(topic, 1, handler); token.Wait() && token.Error() != nil {
		c.logger.Error("Failed to subscribe to topic", "topic", topic, slog.Any("error", token.Error()))
	} else {
		c.logger.Info("Successfully subscribed to topic", "topic", topic)
	}
}

func (c *Client) handlePing(client mqtt.Client, msg mqtt.Message) {
	apiKey := strings.TrimSpace(string(msg.Payload()))
	if apiKey == "" {
		c.logger.Warn("Ping message with empty payload", "topic", msg.Topic())
		return
	}

	channelID, err := c.engine.RecordPing(apiKey, time.Now())
	if err != nil {
		if errors.Is(err, models.ErrUnknownKey) {
			c.logger.Warn("Ping with unknown key", "topic", msg.Topic())
		} else {
			c.logger.Error("Failed to record ping", slog.Any("error", err))
		}
		return
	}
	c.logger.Debug("Ping recorded", "channelId", channelID)
}
