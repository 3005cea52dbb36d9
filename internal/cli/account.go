package cli

import (
	"context"
	"encoding/json"

	"github.com/samvad-hq/saucerest/internal/app"
	"github.com/samvad-hq/saucerest/pkg/saucerest"
	"github.com/spf13/cobra"
)

// clientCall builds a leaf command that runs one client call under the retry policy.
func clientCall(s *session, use, short string, args cobra.PositionalArgs, call func(ctx context.Context, c *saucerest.Client, args []string) (json.RawMessage, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: runRaw(s, func(ctx context.Context, a *app.App, argv []string) (json.RawMessage, error) {
			return a.Call(ctx, func(ctx context.Context, c *saucerest.Client) (json.RawMessage, error) {
				return call(ctx, c, argv)
			})
		}),
	}
}

func accountCommand(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Account details, limits and activity",
	}
	cmd.AddCommand(
		clientCall(s, "user", "Show the authenticated user", cobra.NoArgs,
			func(ctx context.Context, c *saucerest.Client, _ []string) (json.RawMessage, error) {
				return c.GetUser(ctx)
			}),
		clientCall(s, "concurrency", "Show concurrency limits and usage", cobra.NoArgs,
			func(ctx context.Context, c *saucerest.Client, _ []string) (json.RawMessage, error) {
				return c.GetConcurrency(ctx)
			}),
		clientCall(s, "activity", "Show recent account activity", cobra.NoArgs,
			func(ctx context.Context, c *saucerest.Client, _ []string) (json.RawMessage, error) {
				return c.GetActivity(ctx)
			}),
	)
	return cmd
}

func tunnelCommand(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tunnel",
		Short: "Inspect and close tunnels",
	}
	cmd.AddCommand(
		clientCall(s, "list", "List tunnel ids", cobra.NoArgs,
			func(ctx context.Context, c *saucerest.Client, _ []string) (json.RawMessage, error) {
				return c.GetTunnels(ctx)
			}),
		clientCall(s, "info <tunnel-id>", "Show tunnel details", cobra.ExactArgs(1),
			func(ctx context.Context, c *saucerest.Client, args []string) (json.RawMessage, error) {
				return c.GetTunnelInformation(ctx, args[0])
			}),
		clientCall(s, "delete <tunnel-id>", "Shut a tunnel down", cobra.ExactArgs(1),
			func(ctx context.Context, c *saucerest.Client, args []string) (json.RawMessage, error) {
				return c.DeleteTunnel(ctx, args[0])
			}),
	)
	return cmd
}

func platformsCommand(s *session) *cobra.Command {
	cmd := clientCall(s, "platforms <automation-api>", "List supported platforms (all, appium, webdriver)", cobra.ExactArgs(1),
		func(ctx context.Context, c *saucerest.Client, args []string) (json.RawMessage, error) {
			return c.GetSupportedPlatforms(ctx, args[0])
		})
	return cmd
}

func ciCommand(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ci",
		Short: "CI integration statistics",
	}
	cmd.AddCommand(clientCall(s, "record <platform> <version>", "Report the CI platform in use", cobra.ExactArgs(2),
		func(ctx context.Context, c *saucerest.Client, args []string) (json.RawMessage, error) {
			return c.RecordCI(ctx, args[0], args[1])
		}))
	return cmd
}

func resultsCommand(s *session) *cobra.Command {
	return clientCall(s, "results <path>", "GET an arbitrary path under /rest/v1", cobra.ExactArgs(1),
		func(ctx context.Context, c *saucerest.Client, args []string) (json.RawMessage, error) {
			return c.RetrieveResults(ctx, args[0])
		})
}
