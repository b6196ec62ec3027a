package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/shelf/internal/bookmarks"
	"github.com/MrSnakeDoc/shelf/internal/domain"
)

func bookmarksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookmarks",
		Short: "Inspect saved repository bookmarks",
	}
	cmd.AddCommand(bookmarksListCmd(), bookmarksExportCmd())
	return cmd
}

func bookmarksListCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List bookmarks in the order they were added",
		RunE: func(cmd *cobra.Command, args []string) error {
			storage, err := openStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer storage.Close()

			items := storage.Bookmarks.List()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(items)
			}
			return printBookmarks(cmd.OutOrStdout(), items)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func bookmarksExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the stored bookmark value, as persisted",
		RunE: func(cmd *cobra.Command, args []string) error {
			storage, err := openStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer storage.Close()

			data, err := bookmarks.Encode(storage.Bookmarks.List())
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d bookmarks to %s\n", storage.Bookmarks.Len(), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file (default stdout)")
	return cmd
}

func printBookmarks(w io.Writer, items []domain.Bookmark) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "No bookmarks yet")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tREPOSITORY\tLANGUAGE\tSTARS\tSAVED\tNOTES")
	for _, b := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			b.ID,
			b.FullName,
			orDash(b.Language),
			humanize.Comma(int64(b.StargazersCount)),
			humanize.Time(b.BookmarkedAt),
			orDash(firstLine(b.Notes)))
	}
	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " …"
	}
	return s
}
