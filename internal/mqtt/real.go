package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// RealSubscriber subscribes on an actual MQTT broker.
type RealSubscriber struct {
	client paho.Client

	mu   sync.Mutex
	subs map[string]Handler
}

// NewRealSubscriber connects to the given broker. The client keeps retrying
// in the background if the first attempt times out.
func NewRealSubscriber(broker string) (*RealSubscriber, error) {
	s := &RealSubscriber{subs: make(map[string]Handler)}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("charge-indicator").
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(s.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		})

	s.client = paho.NewClient(opts)
	token := s.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		log.Printf("mqtt: %s not reachable yet, retrying in background", broker)
		return s, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return s, nil
}

// onConnect restores subscriptions after every (re)connect.
func (s *RealSubscriber) onConnect(c paho.Client) {
	s.mu.Lock()
	subs := make(map[string]Handler, len(s.subs))
	for t, h := range s.subs {
		subs[t] = h
	}
	s.mu.Unlock()

	log.Printf("mqtt: connected, subscribing to %d topic(s)", len(subs))
	for topic, h := range subs {
		if err := s.subscribe(topic, h); err != nil {
			log.Printf("mqtt: %v", err)
		}
	}
}

// Subscribe implements Subscriber.
func (s *RealSubscriber) Subscribe(topic string, h Handler) error {
	s.mu.Lock()
	s.subs[topic] = h
	s.mu.Unlock()

	if !s.client.IsConnectionOpen() {
		// onConnect will subscribe.
		return nil
	}
	return s.subscribe(topic, h)
}

func (s *RealSubscriber) subscribe(topic string, h Handler) error {
	// QoS 1 (at-least-once): a lost unplug would leave the LED lit.
	token := s.client.Subscribe(topic, 1, func(_ paho.Client, m paho.Message) {
		powered, err := ParsePayload(m.Payload())
		if err != nil {
			log.Printf("mqtt: %s: %v", m.Topic(), err)
			return
		}
		h(powered)
	})
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("subscribe %s timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	return nil
}

// IsConnected implements ConnectionStatus.
func (s *RealSubscriber) IsConnected() bool {
	return s.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (s *RealSubscriber) Close() error {
	s.client.Disconnect(1000) // 1 second timeout
	return nil
}
