package mqtt

import "errors"

// FakeSubscriber records subscriptions and lets tests inject messages.
type FakeSubscriber struct {
	// Topics contains every topic subscribed to, in order.
	Topics []string

	// SubscribeError, if set, will be returned by Subscribe.
	SubscribeError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool

	handlers map[string]Handler
}

// NewFakeSubscriber creates a FakeSubscriber for testing.
func NewFakeSubscriber() *FakeSubscriber {
	return &FakeSubscriber{handlers: make(map[string]Handler)}
}

// Subscribe records the subscription.
func (f *FakeSubscriber) Subscribe(topic string, h Handler) error {
	if f.SubscribeError != nil {
		return f.SubscribeError
	}
	f.Topics = append(f.Topics, topic)
	f.handlers[topic] = h
	return nil
}

// Deliver decodes payload as the real client does and passes it to the
// handler for topic.
func (f *FakeSubscriber) Deliver(topic string, payload []byte) error {
	h, ok := f.handlers[topic]
	if !ok {
		return errors.New("no subscription for topic")
	}
	powered, err := ParsePayload(payload)
	if err != nil {
		return err
	}
	h(powered)
	return nil
}

// Close marks the subscriber as closed.
func (f *FakeSubscriber) Close() error {
	f.Closed = true
	return nil
}

// IsConnected reports whether the fake subscriber is "connected".
func (f *FakeSubscriber) IsConnected() bool {
	return f.Connected
}

// Reset clears recorded subscriptions.
func (f *FakeSubscriber) Reset() {
	f.Topics = nil
	f.handlers = make(map[string]Handler)
	f.Closed = false
	f.SubscribeError = nil
	f.Connected = false
}
