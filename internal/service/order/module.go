package order

import "go.uber.org/fx"

// Module provides the sales order query and command handlers to Fx.
var Module = fx.Provide(
	asRepository,
	NewQueryHandler,
	NewCommandHandler,
)
