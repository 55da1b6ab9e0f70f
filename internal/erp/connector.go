// Package erp holds the connector to the upstream ERP sales order service.
// Only an in-memory stand-in exists; no remote integration is implemented.
package erp

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Connector reads and writes ERP documents addressed by endpoint and id.
// Documents are opaque JSON payloads.
type Connector interface {
	Get(ctx context.Context, endpoint, id string) ([]byte, bool, error)
	GetAll(ctx context.Context, endpoint string) ([][]byte, error)
	Post(ctx context.Context, endpoint string, document []byte) (string, error)
}

// Module provides the ERP connector to Fx.
var Module = fx.Provide(New)

// New returns the in-memory connector.
func New(logger *zap.Logger) Connector {
	if logger != nil {
		logger.Info("erp connector running in memory mode")
	}
	return NewMemoryConnector()
}
