package messaging

import (
	"context"
	"encoding/json"
)

// Broker defines the interface for message brokers.
//
// Subscribe confirms the subscription before returning, so a broker that
// cannot subscribe fails the call instead of delivering nothing. The
// returned channel yields payloads in delivery order and is closed once ctx
// is canceled and the subscription is gone; nothing is sent after that.
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// Encode turns a message into its wire payload. Raw bytes pass through,
// everything else is JSON encoded.
func Encode(message interface{}) ([]byte, error) {
	switch m := message.(type) {
	case []byte:
		return m, nil
	case json.RawMessage:
		return m, nil
	default:
		return json.Marshal(message)
	}
}
