package cli

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/samvad-hq/saucerest/pkg/saucerest"
	"github.com/spf13/cobra"
)

func storageCommand(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storage",
		Short: "Temporary file storage",
	}

	var overwrite bool
	upload := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a local file under its base name",
		Long: `Upload a local file under its base name.

Files whose checksum matches a recent upload recorded in the local ledger
are skipped unless --overwrite is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			a, err := s.open(cmd)
			if err != nil {
				return err
			}
			defer s.closeInto(&err)

			outcome, err := a.UploadFile(cmd.Context(), args[0], overwrite)
			if err != nil {
				return err
			}
			return printValue(s.out, outcome)
		},
	}
	upload.Flags().BoolVar(&overwrite, "overwrite", false, "replace an existing file with the same name")

	download := &cobra.Command{
		Use:   "download <path> <dest>",
		Short: "Download a resource under /rest/v1 to a local file",
		Long: `Download a resource under /rest/v1 to a local file.

Paths without a /rest/ prefix are taken relative to /rest/v1, so
"fakeuser/jobs/1234/assets/video.flv" and
"/rest/v1/fakeuser/jobs/1234/assets/video.flv" fetch the same file.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			a, err := s.open(cmd)
			if err != nil {
				return err
			}
			defer s.closeInto(&err)

			if err := a.Download(cmd.Context(), restPath(args[0]), args[1]); err != nil {
				return err
			}
			return printValue(s.out, map[string]string{"path": args[1]})
		},
	}

	cmd.AddCommand(
		clientCall(s, "list", "List stored files", cobra.NoArgs,
			func(ctx context.Context, c *saucerest.Client, _ []string) (json.RawMessage, error) {
				return c.GetStoredFiles(ctx)
			}),
		upload,
		download,
	)
	return cmd
}

// restPath roots p under /rest/v1 unless it already names a /rest/ path.
func restPath(p string) string {
	p = "/" + strings.TrimLeft(strings.TrimSpace(p), "/")
	if p == "/rest" || strings.HasPrefix(p, "/rest/") {
		return p
	}
	return "/rest/v1" + p
}
