// Package notify publishes a fire-and-forget evaluation-completion
// summary to NATS, grounded on graft's nats operator
// (pkg/graft/operators/op_nats.go: nats.Connect(url, opts...)). It is a
// side-channel observer outside the evaluation's own control flow, not
// part of the engine's result contract.
package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Summary is the JSON payload published after one evaluateForResult call.
type Summary struct {
	RequestedNodePath string        `json:"requestedNodePath"`
	Succeeded         int           `json:"succeeded"`
	Failed            int           `json:"failed"`
	Elapsed           time.Duration `json:"elapsedNanos"`
}

// Publisher publishes Summary records to a single NATS subject.
type Publisher struct {
	conn    *nats.Conn
	subject string
}

// Connect dials url and returns a Publisher bound to subject. Connection
// failures are the caller's to handle; nodeflow's Engine treats a nil
// Publisher as "notifications disabled."
func Connect(url, subject string) (*Publisher, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("notify: connecting to %s: %w", url, err)
	}
	return &Publisher{conn: conn, subject: subject}, nil
}

// Publish marshals summary and publishes it, returning any marshal or
// publish error. The Engine discards that error, so it never affects
// the evaluation that produced summary.
func (p *Publisher) Publish(summary Summary) error {
	if p == nil {
		return nil
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("notify: marshaling summary: %w", err)
	}
	return p.conn.Publish(p.subject, data)
}

// Close drains and closes the underlying NATS connection.
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	_ = p.conn.Drain()
}
