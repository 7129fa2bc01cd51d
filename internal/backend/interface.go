package backend

import (
	"context"
	"slices"

	"fintrack/internal/events"
	"fintrack/internal/ledger"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the ledger store, the event publisher and a cleanup
// function releasing both
type BackendResult struct {
	Store     ledger.Store
	Publisher events.Publisher
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Ledger store
	Type         BackendType
	SQLiteDBPath string
	PostgresDSN  string

	// Ledger events
	Events         EventsType
	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string
	KafkaBrokers   []string
	KafkaTopic     string
}

// BackendType represents the type of ledger store
type BackendType string

const (
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	MemoryBackend   BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	return slices.Contains(GetBackendTypes(), bt)
}

// EventsType selects where ledger events are published
type EventsType string

const (
	NoEvents    EventsType = "none"
	AMQPEvents  EventsType = "amqp"
	KafkaEvents EventsType = "kafka"
)

// IsValid returns true if the events type is valid
func (et EventsType) IsValid() bool {
	switch et {
	case NoEvents, AMQPEvents, KafkaEvents, "":
		return true
	default:
		return false
	}
}
