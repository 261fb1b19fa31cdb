package health

import "context"

// DBPinger checks store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// ModelChecker checks model-service availability.
type ModelChecker interface {
	HealthCheck(ctx context.Context) error
}
