package main

import (
	"context"
	"fmt"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/samber/do"
	"github.com/serroba/short-links/internal/auth"
	"github.com/serroba/short-links/internal/container"
	"github.com/serroba/short-links/internal/shortener"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const commandTimeout = 5 * time.Minute

// addCommands attaches the maintenance commands to the server CLI.
func addCommands(cli humacli.CLI) {
	cli.Root().AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or update the links schema",
		Args:  cobra.NoArgs,
		RunE: withInjector(func(ctx context.Context, cmd *cobra.Command, _ []string, injector *do.Injector) error {
			db := do.MustInvoke[container.Owned[container.Database]](injector).Value
			if err := db.Migrate(ctx); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			cmd.Println("migrations applied")

			return nil
		}),
	})

	cli.Root().AddCommand(&cobra.Command{
		Use:   "sweep",
		Short: "Deactivate expired and unused links once",
		Args:  cobra.NoArgs,
		RunE: withInjector(func(ctx context.Context, cmd *cobra.Command, _ []string, injector *do.Injector) error {
			result, err := do.MustInvoke[*shortener.Sweeper](injector).SweepOnce(ctx)
			if err != nil {
				return fmt.Errorf("sweep failed: %w", err)
			}

			cmd.Printf("deactivated %d expired and %d unused links\n", result.Expired, result.Unused)

			return nil
		}),
	})

	tokenCmd := &cobra.Command{
		Use:   "token <owner>",
		Short: "Mint a bearer token for an owner id",
		Args:  cobra.ExactArgs(1),
	}
	ttl := tokenCmd.Flags().Duration("ttl", auth.DefaultTokenTTL, "Token lifetime")
	tokenCmd.RunE = withInjector(func(_ context.Context, cmd *cobra.Command, args []string, injector *do.Injector) error {
		tokens, err := do.Invoke[*auth.Tokens](injector)
		if err != nil {
			return err
		}

		token, err := tokens.Issue(shortener.OwnerID(args[0]), *ttl)
		if err != nil {
			return err
		}

		cmd.Println(token)

		return nil
	})

	cli.Root().AddCommand(tokenCmd)
}

type commandFunc func(ctx context.Context, cmd *cobra.Command, args []string, injector *do.Injector) error

// withInjector runs fn against a fresh injector built from the parsed options and shuts it down afterwards.
func withInjector(fn commandFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		var runErr error

		humacli.WithOptions(func(cmd *cobra.Command, args []string, options *container.Options) {
			injector := do.New()
			registerPackages(injector, options)

			logger := do.MustInvoke[*zap.Logger](injector)

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			runErr = fn(ctx, cmd, args, injector)

			if err := injector.Shutdown(); err != nil {
				logger.Error("service shutdown error", zap.Error(err))
			}
		})(cmd, args)

		return runErr
	}
}
