package order

import "go.uber.org/fx"

// Module wires HTTP sales order handlers onto the shared Echo instance.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(Register),
)
