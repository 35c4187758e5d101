// Package cli provides the Cobra-based command line for the fulfillment service.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/config"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/pkg/logging"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// NewRootCommand assembles the command tree with its own viper instance.
func NewRootCommand() *cobra.Command {
	v := viper.New()
	root := &cobra.Command{
		Use:           "fulfillment",
		Short:         "Order fulfillment service for minishop",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.BindFlags(root.PersistentFlags())

	root.AddCommand(newServeCommand(v), newProcessCommand(v))
	return root
}

// Execute runs the root command until it finishes or the process is signalled.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCommand().ExecuteContext(ctx)
}

// bootstrap loads configuration and builds a started runtime.
func bootstrap(cmd *cobra.Command, v *viper.Viper) (context.Context, *Runtime, error) {
	cfg, err := config.Load(v, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := Build(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	ctx = logging.IntoContext(ctx, rt.Logger, cmd.Name())
	rt.Start(ctx)
	return ctx, rt, nil
}

func shutdown(ctx context.Context, rt *Runtime) {
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rt.Config.ShutdownTimeout)
	defer cancel()
	if err := rt.Close(shutdownCtx); err != nil {
		fmt.Fprintln(os.Stderr, "shutdown:", err)
	}
}

func newServeCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the fulfillment HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, rt, err := bootstrap(cmd, v)
			if err != nil {
				return err
			}
			defer shutdown(ctx, rt)

			systemLogger := logging.WithTrace(logging.FromContext(ctx), logging.SystemTraceID, logging.SystemSpanID)
			server := &http.Server{
				Addr:    rt.Config.HTTPAddr,
				Handler: rt.HTTPHandler(),
			}

			errCh := make(chan error, 1)
			go func() {
				systemLogger.Info("http_server_start", zap.String("addr", server.Addr))
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					systemLogger.Error("http_server_error", zap.Error(err))
					return err
				}
				return nil
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rt.Config.ShutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				systemLogger.Error("http_server_shutdown_error", zap.Error(err))
				return err
			}
			systemLogger.Info("http_server_stopped")
			return nil
		},
	}
}

func newProcessCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "process <orderId>",
		Short: "Process a single order against the configured store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orderID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("order id must be an integer: %q", args[0])
			}

			ctx, rt, err := bootstrap(cmd, v)
			if err != nil {
				return err
			}
			defer shutdown(ctx, rt)

			result, err := rt.ProcessOrder.ProcessOrder(ctx, orderID)
			if err != nil {
				return err
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]int64{"id": result.OrderID})
		},
	}
}
