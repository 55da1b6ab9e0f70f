package app

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/salesorder/internal/cache"
	"github.com/Additional-Code/salesorder/internal/config"
	"github.com/Additional-Code/salesorder/internal/erp"
	"github.com/Additional-Code/salesorder/internal/logger"
	"github.com/Additional-Code/salesorder/internal/messaging"
	"github.com/Additional-Code/salesorder/internal/observability"
	repositoryorder "github.com/Additional-Code/salesorder/internal/repository/order"
	grpcserver "github.com/Additional-Code/salesorder/internal/server/grpc"
	httpserver "github.com/Additional-Code/salesorder/internal/server/http"
	serviceorder "github.com/Additional-Code/salesorder/internal/service/order"
	transporthttp "github.com/Additional-Code/salesorder/internal/transport/http"
	"github.com/Additional-Code/salesorder/internal/worker"
	workerorder "github.com/Additional-Code/salesorder/internal/worker/order"
)

// Store provides configuration, logging and the seeded sales order
// repository. It is enough for read-only tooling.
var Store = fx.Options(
	config.Module,
	logger.Module,
	erp.Module,
	repositoryorder.Module,
)

// Core adds the cache, message bus, telemetry and the query/command handlers.
var Core = fx.Options(
	Store,
	cache.Module,
	messaging.Module,
	observability.Module,
	serviceorder.Module,
)

// HTTP wires the REST API and the gRPC health endpoint on top of Core.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	grpcserver.Module,
	transporthttp.Module,
)

// Worker exposes background consumption of sales order events.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerorder.Module,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP
