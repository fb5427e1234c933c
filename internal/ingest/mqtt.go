// MQTT intake for sensor readings
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"indoortrack/internal/config"
	"indoortrack/internal/device"
	"indoortrack/internal/logging"
)

// observationPayload is the JSON body sensors publish per reading. All
// measurement fields are optional; absent fields stay nil.
type observationPayload struct {
	RSSI       *float64  `json:"rssi,omitempty"`
	Distance   *float64  `json:"distance,omitempty"`
	X          *float64  `json:"x,omitempty"`
	Y          *float64  `json:"y,omitempty"`
	Confidence *float64  `json:"confidence,omitempty"`
	Timestamp  time.Time `json:"ts,omitempty"`
}

// MQTTSource subscribes to sensor reading topics and feeds the device
// manager. Topics follow <prefix>/<sensor-id>/<device-id>.
type MQTTSource struct {
	client      mqtt.Client
	topicPrefix string
	devices     *device.Manager
	now         func() time.Time
}

// NewMQTTSource connects to the broker and returns a source ready to start.
func NewMQTTSource(cfg config.MQTT, devices *device.Manager) (*MQTTSource, error) {
	opts := mqtt.NewClientOptions().AddBroker(cfg.Broker)
	if cfg.ClientID != "" {
		opts.SetClientID(cfg.ClientID)
	}
	opts.SetAutoReconnect(true)
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return &MQTTSource{
		client:      client,
		topicPrefix: strings.TrimSuffix(cfg.TopicPrefix, "/"),
		devices:     devices,
		now:         time.Now,
	}, nil
}

// Start subscribes to the reading topic tree and blocks until the context
// is done.
func (s *MQTTSource) Start(ctx context.Context) error {
	log := logging.FromContext(ctx)
	topic := s.topicPrefix + "/+/+"
	handler := func(_ mqtt.Client, msg mqtt.Message) {
		if err := s.handleMessage(msg.Topic(), msg.Payload()); err != nil {
			log.Warn("dropping reading", "topic", msg.Topic(), "err", err)
		}
	}
	if token := s.client.Subscribe(topic, 0, handler); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt subscribe: %w", token.Error())
	}
	log.Info("mqtt ingest started", "topic", topic)

	<-ctx.Done()
	s.client.Disconnect(250)
	return nil
}

// handleMessage parses one publication and records it as a reading.
func (s *MQTTSource) handleMessage(topic string, payload []byte) error {
	sensorID, deviceID, err := s.splitTopic(topic)
	if err != nil {
		return err
	}
	var body observationPayload
	if err := json.Unmarshal(payload, &body); err != nil {
		return fmt.Errorf("bad payload: %w", err)
	}
	obs := device.Observation{
		RSSI:      body.RSSI,
		Distance:  body.Distance,
		X:         body.X,
		Y:         body.Y,
		Timestamp: body.Timestamp,
	}
	// A sender that reports no confidence gets full weight.
	if body.Confidence != nil {
		obs.Confidence = *body.Confidence
	} else {
		obs.Confidence = 1
	}
	if obs.Timestamp.IsZero() {
		obs.Timestamp = s.now()
	}
	return s.devices.RecordReading(deviceID, sensorID, obs)
}

func (s *MQTTSource) splitTopic(topic string) (sensorID, deviceID string, err error) {
	rest := strings.TrimPrefix(topic, s.topicPrefix+"/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("unexpected topic %q", topic)
	}
	return parts[0], parts[1], nil
}
