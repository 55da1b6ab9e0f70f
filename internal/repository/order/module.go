package order

import "go.uber.org/fx"

// Module provides the process-wide sales order repository to Fx.
var Module = fx.Provide(NewRepository)
