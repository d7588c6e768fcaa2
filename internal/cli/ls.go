package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/apiclient"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/folderpath"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/logging"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/model"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/route"
)

func newLsCmd(opts *rootOptions) *cobra.Command {
	var (
		refresh  bool
		asJSON   bool
		typeFlag string
	)

	cmd := &cobra.Command{
		Use:   "ls [path]",
		Short: "List the folders or documents at a path",
		Long: `List one level of the archive.

Folders whose real name contains a slash are addressed with "~" in its
place, for example "2024~25 Session". The listing type is taken from the
department hierarchy unless --type is given.

Example:
  pastq ls "/Law/Contract Law" --refresh`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := folderpath.Root
			if len(args) == 1 {
				path = args[0]
			}

			ct, err := model.ParseContentType(typeFlag)
			if err != nil {
				return err
			}
			if typeFlag == "" {
				pol, err := opts.policy()
				if err != nil {
					return err
				}
				r, err := route.Parse(path, pol)
				if err != nil {
					return err
				}
				ct = route.ContentTypeOf(r)
			}

			ctx := cmd.Context()
			cache, closeCache, err := opts.openCache(ctx)
			if err != nil {
				return err
			}
			defer closeCache()

			client := apiclient.New(opts.apiURL, cache)
			defer client.Wait()

			var res *apiclient.Result
			if refresh {
				res, err = client.Refresh(ctx, path, ct)
			} else {
				res, err = client.Fetch(ctx, path, ct)
			}
			if err != nil {
				return err
			}

			logging.L().Debug("listing loaded",
				zap.String("path", res.Path),
				zap.String("type", string(res.Type)),
				zap.String("source", string(res.Source)),
				zap.Int("items", len(res.Items)),
			)
			if res.Warning != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", res.Warning)
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %s (%s, fetched %s)\n",
				res.Path, res.Type, res.Source, res.FetchedAt.Local().Format(time.DateTime))
			return writeTable(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Bypass the local cache")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the listing as JSON")
	cmd.Flags().StringVar(&typeFlag, "type", "", "Listing type: folders or files")

	return cmd
}

type jsonListing struct {
	Path      string            `json:"path"`
	Type      model.ContentType `json:"type"`
	Source    apiclient.Source  `json:"source"`
	FetchedAt time.Time         `json:"fetchedAt"`
	Warning   string            `json:"warning,omitempty"`
	Items     []model.Item      `json:"items"`
}

func writeJSON(w io.Writer, res *apiclient.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonListing{
		Path:      res.Path,
		Type:      res.Type,
		Source:    res.Source,
		FetchedAt: res.FetchedAt,
		Warning:   res.Warning,
		Items:     res.Items,
	})
}

func writeTable(w io.Writer, res *apiclient.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if res.Type == model.Files {
		fmt.Fprintln(tw, "NAME\tSIZE\tMODIFIED\tLINK")
		for _, it := range res.Items {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", it.Name, formatSize(it.Size), formatTime(it.ModifiedTime), it.WebViewLink)
		}
	} else {
		fmt.Fprintln(tw, "NAME\tPATH\tMODIFIED")
		for _, it := range res.Items {
			child := folderpath.Join(append(folderpath.Split(res.Path), folderpath.Encode(it.Name)))
			fmt.Fprintf(tw, "%s\t%s\t%s\n", it.Name, child, formatTime(it.ModifiedTime))
		}
	}
	return tw.Flush()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateOnly)
}

func formatSize(size *int64) string {
	if size == nil {
		return "-"
	}
	const unit = 1024
	n := *size
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
