package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/Additional-Code/salesorder/internal/app"
	"github.com/Additional-Code/salesorder/internal/entity"
	repositoryorder "github.com/Additional-Code/salesorder/internal/repository/order"
	serviceorder "github.com/Additional-Code/salesorder/internal/service/order"
	"github.com/Additional-Code/salesorder/pkg/errorbank"
)

const stopTimeout = 10 * time.Second

// NewRootCommand builds the root salesorder CLI command.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "salesorder",
		Short:         "Sales order service toolkit",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newStartCmd())
	root.AddCommand(newWorkerCmd())
	root.AddCommand(newOrdersCmd())

	return root
}

// Execute runs the salesorder CLI.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the CLI; long-running commands stop when ctx is done.
func ExecuteContext(ctx context.Context) error {
	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return err
	}
	return nil
}

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "start",
		Aliases: []string{"run"},
		Short:   "Run the HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUntilDone(cmd.Context(), app.Module)
		},
	}
}

func newWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Manage background workers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Consume sales order events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUntilDone(cmd.Context(), app.Worker)
		},
	})
	return cmd
}

func newOrdersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Inspect sales orders",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored sales orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			var repo *repositoryorder.Repository
			opts := fx.Options(app.Store, fx.Populate(&repo))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				return writeOrderTable(cmd.OutOrStdout(), repo.GetAll(ctx))
			})
		},
	}

	getCmd := &cobra.Command{
		Use:   "get [orderId]",
		Short: "Show one sales order as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var queries *serviceorder.QueryHandler
			opts := fx.Options(app.Core, fx.Populate(&queries))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				order, found, err := queries.Handle(ctx, serviceorder.GetSalesOrderQuery{OrderID: args[0]})
				if err != nil {
					return err
				}
				if !found {
					return errorbank.NotFound(fmt.Sprintf("sales order %s not found", args[0]))
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(order)
			})
		},
	}

	cmd.AddCommand(listCmd, getCmd)
	return cmd
}

func writeOrderTable(w io.Writer, orders []*entity.SalesOrder) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER ID\tCUSTOMER\tSTATUS\tITEMS\tTOTAL\tORDER DATE")
	for _, o := range orders {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			o.OrderID(),
			o.CustomerCode(),
			o.Status(),
			len(o.Items()),
			o.TotalAmount().StringFixed(2),
			o.OrderDate().Format(time.RFC3339),
		)
	}
	return tw.Flush()
}

func runUntilDone(ctx context.Context, opts fx.Option) error {
	application := fx.New(opts)
	if err := application.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	return application.Stop(stopCtx)
}

func runWithApp(ctx context.Context, opts fx.Option, fn func(context.Context) error) error {
	application := fx.New(opts, fx.NopLogger)
	if err := application.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		_ = application.Stop(stopCtx)
	}()
	return fn(ctx)
}
