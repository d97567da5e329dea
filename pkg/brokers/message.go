package brokers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ruslano69/listing-wrangler/pkg/retry"
)

const (
	// ContentType сообщений уведомлений
	ContentType = "application/json"
	// EventDatasetReady - тип события о записанном наборе
	EventDatasetReady = "dataset.ready"
)

// DatasetReady - уведомление о том, что очищенный набор записан
type DatasetReady struct {
	Event      string    `json:"event"`
	RunID      string    `json:"run_id"`
	Pipeline   string    `json:"pipeline"`
	Path       string    `json:"path"`
	Rows       int       `json:"rows"`
	Columns    []string  `json:"columns"`
	Checksum   string    `json:"checksum"`
	Reused     bool      `json:"reused,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}

// Notify подключается к брокеру, отправляет уведомление и закрывает соединение
func Notify(ctx context.Context, pub Publisher, msg DatasetReady) error {
	if msg.Event == "" {
		msg.Event = EventDatasetReady
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return retry.Permanent(fmt.Errorf("failed to marshal message: %w", err))
	}

	if err := pub.Connect(ctx); err != nil {
		return err
	}
	defer pub.Close()

	if err := pub.Send(ctx, msg.Pipeline, body); err != nil {
		return fmt.Errorf("%s: %w", pub.Type(), err)
	}
	return nil
}
