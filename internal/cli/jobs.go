package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samvad-hq/saucerest/internal/app"
	"github.com/samvad-hq/saucerest/pkg/saucerest"
	"github.com/spf13/cobra"
)

func jobCommand(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Inspect and manage jobs",
	}

	info := &cobra.Command{
		Use:   "info <job-id>",
		Short: "Show job details",
		Args:  cobra.ExactArgs(1),
		RunE: runRaw(s, func(ctx context.Context, a *app.App, args []string) (json.RawMessage, error) {
			return a.Call(ctx, func(ctx context.Context, c *saucerest.Client) (json.RawMessage, error) {
				return c.GetJobInfo(ctx, args[0])
			})
		}),
	}

	var sets []string
	update := &cobra.Command{
		Use:   "update <job-id> --set key=value...",
		Short: "Update job attributes",
		Long: `Update job attributes such as name, tags or custom-data.

Values that parse as JSON are sent as JSON, anything else as a string:
  saucerest job update 1234 --set name=smoke --set 'tags=["ci","nightly"]'`,
		Args: cobra.ExactArgs(1),
		RunE: runRaw(s, func(ctx context.Context, a *app.App, args []string) (json.RawMessage, error) {
			updates, err := parseAssignments(sets)
			if err != nil {
				return nil, err
			}
			return a.UpdateJob(ctx, args[0], updates)
		}),
	}
	update.Flags().StringArrayVar(&sets, "set", nil, "attribute assignment key=value (repeatable)")
	_ = update.MarkFlagRequired("set")

	pass := &cobra.Command{
		Use:   "pass <job-id>",
		Short: "Mark a job as passed",
		Args:  cobra.ExactArgs(1),
		RunE: runRaw(s, func(ctx context.Context, a *app.App, args []string) (json.RawMessage, error) {
			return a.SetJobStatus(ctx, args[0], true)
		}),
	}
	fail := &cobra.Command{
		Use:   "fail <job-id>",
		Short: "Mark a job as failed",
		Args:  cobra.ExactArgs(1),
		RunE: runRaw(s, func(ctx context.Context, a *app.App, args []string) (json.RawMessage, error) {
			return a.SetJobStatus(ctx, args[0], false)
		}),
	}
	stop := &cobra.Command{
		Use:   "stop <job-id>",
		Short: "Stop a running job",
		Args:  cobra.ExactArgs(1),
		RunE: runRaw(s, func(ctx context.Context, a *app.App, args []string) (json.RawMessage, error) {
			return a.StopJob(ctx, args[0])
		}),
	}
	del := &cobra.Command{
		Use:   "delete <job-id>",
		Short: "Delete a job and its assets",
		Args:  cobra.ExactArgs(1),
		RunE: runRaw(s, func(ctx context.Context, a *app.App, args []string) (json.RawMessage, error) {
			return a.DeleteJob(ctx, args[0])
		}),
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List recent jobs with full details",
		Args:  cobra.NoArgs,
		RunE: runRaw(s, func(ctx context.Context, a *app.App, _ []string) (json.RawMessage, error) {
			return a.Call(ctx, func(ctx context.Context, c *saucerest.Client) (json.RawMessage, error) {
				if limit > 0 {
					return c.GetFullJobs(ctx, limit)
				}
				return c.GetFullJobs(ctx)
			})
		}),
	}
	list.Flags().IntVar(&limit, "limit", 0, "maximum number of jobs (server default 20)")

	build := &cobra.Command{
		Use:   "build <build-id>",
		Short: "List the jobs of a build",
		Args:  cobra.ExactArgs(1),
		RunE: runRaw(s, func(ctx context.Context, a *app.App, args []string) (json.RawMessage, error) {
			return a.Call(ctx, func(ctx context.Context, c *saucerest.Client) (json.RawMessage, error) {
				return c.GetBuildFullJobs(ctx, args[0])
			})
		}),
	}
	assets := &cobra.Command{
		Use:   "assets <job-id>",
		Short: "List the assets recorded for a job",
		Args:  cobra.ExactArgs(1),
		RunE: runRaw(s, func(ctx context.Context, a *app.App, args []string) (json.RawMessage, error) {
			return a.Call(ctx, func(ctx context.Context, c *saucerest.Client) (json.RawMessage, error) {
				return c.GetJobAssets(ctx, args[0])
			})
		}),
	}

	link := &cobra.Command{
		Use:   "link <job-id>",
		Short: "Print the shareable job link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			a, err := s.open(cmd)
			if err != nil {
				return err
			}
			defer s.closeInto(&err)
			_, err = fmt.Fprintln(s.out, a.Client().PublicJobLink(args[0]))
			return err
		},
	}

	cmd.AddCommand(info, update, pass, fail, stop, del, list, build, assets, link,
		assetCommand(s, "log", "Download the Selenium log of a job"),
		assetCommand(s, "video", "Download the video of a job"),
		assetCommand(s, "har", "Download the network HAR of a job"),
	)
	return cmd
}

func assetCommand(s *session, kind, short string) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   kind + " <job-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			a, err := s.open(cmd)
			if err != nil {
				return err
			}
			defer s.closeInto(&err)

			path, err := a.DownloadAsset(cmd.Context(), args[0], kind, out)
			if err != nil {
				return err
			}
			return printValue(s.out, map[string]string{"job_id": args[0], "asset": kind, "path": path})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", ".", "destination file or directory")
	return cmd
}

// parseAssignments turns key=value pairs into an update document.
func parseAssignments(pairs []string) (map[string]any, error) {
	updates := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q, want key=value", pair)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		updates[key] = v
	}
	return updates, nil
}
