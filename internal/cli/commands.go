package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/specialistvlad/doop/internal/app"
	"github.com/specialistvlad/doop/internal/blockref"
	"github.com/specialistvlad/doop/internal/fsutil"
	"github.com/spf13/cobra"
)

// sourceExtensions are searched for when a directory is given.
var sourceExtensions = []string{blockref.Ext, blockref.Ext + ".xz"}

type blockJSON struct {
	ID        string `json:"id"`
	Tag       string `json:"tag"`
	Attrs     any    `json:"attrs"`
	LineStart int    `json:"lineStart"`
	LineEnd   int    `json:"lineEnd"`
}

type orphanJSON struct {
	BeforeLine int      `json:"beforeLine"`
	Lines      []string `json:"lines"`
}

type sourceJSON struct {
	Source  string       `json:"source"`
	Blocks  []blockJSON  `json:"blocks"`
	Orphans []orphanJSON `json:"orphans,omitempty"`
}

func newBlocksCmd(opts *rootOptions) *cobra.Command {
	var (
		asJSON  bool
		workers int
	)

	cmd := &cobra.Command{
		Use:   "blocks <file|dir>...",
		Short: "List the blocks of one or more sources",
		Long: `List the blocks of each source with their tag, line range and attributes.

Directories are searched recursively for .doop and .doop.xz files.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			files, err := fsutil.ExpandPaths(args, sourceExtensions...)
			if err != nil {
				return err
			}

			results, err := a.ParseAll(cmd.Context(), files, workers)
			if err != nil {
				return err
			}

			var listing []sourceJSON
			for _, res := range results {
				entry := sourceJSON{Source: res.Path(), Blocks: []blockJSON{}}
				for _, o := range res.Orphans {
					entry.Orphans = append(entry.Orphans, orphanJSON{BeforeLine: o.BeforeLine, Lines: o.Lines})
				}
				for _, b := range res.Blocks() {
					entry.Blocks = append(entry.Blocks, blockJSON{
						ID:        b.ID,
						Tag:       b.Tag,
						Attrs:     b.Attrs,
						LineStart: b.LineStart,
						LineEnd:   b.LineEnd,
					})
				}
				listing = append(listing, entry)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(listing)
			}
			return writeBlocksText(cmd.OutOrStdout(), listing)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the listing as JSON")
	cmd.Flags().IntVar(&workers, "workers", 0, "number of sources parsed concurrently (0 means one per CPU)")

	return cmd
}

func writeBlocksText(w io.Writer, listing []sourceJSON) error {
	for _, src := range listing {
		if _, err := fmt.Fprintln(w, src.Source); err != nil {
			return err
		}
		for _, b := range src.Blocks {
			attrs, err := json.Marshal(b.Attrs)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "  %s\t<%s>\tlines %d-%d\t%s\n", b.ID, b.Tag, b.LineStart, b.LineEnd, attrs)
		}
		for _, o := range src.Orphans {
			where := "at end"
			if o.BeforeLine > 0 {
				where = fmt.Sprintf("before line %d", o.BeforeLine)
			}
			fmt.Fprintf(w, "  orphans %s: %d line(s)\n", where, len(o.Lines))
		}
	}
	return nil
}

func newIndexCmd(opts *rootOptions) *cobra.Command {
	var (
		asURL   bool
		emitter string
	)

	cmd := &cobra.Command{
		Use:   "index <file>",
		Short: "Print the generated index of a source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd, func(cfg *app.Config) {
				if cmd.Flags().Changed("url") {
					cfg.URL = &asURL
				}
				cfg.GlobalEmitter = emitter
			})
			if err != nil {
				return err
			}
			defer a.Close()

			index, err := a.Index(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), index)
			return err
		},
	}

	cmd.Flags().BoolVar(&asURL, "url", false, "render block paths as file:// URLs")
	cmd.Flags().StringVar(&emitter, "emitter", "", "name of the global event dispatcher")

	return cmd
}

func newSourceCmd(opts *rootOptions) *cobra.Command {
	var asLines bool

	cmd := &cobra.Command{
		Use:   "source <file> <block-id>",
		Short: "Print the source of one block",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			lines, err := a.Source(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if asLines {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(lines)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.Join(lines, "\n"))
			return err
		},
	}

	cmd.Flags().BoolVar(&asLines, "lines", false, "print the lines as a JSON array")

	return cmd
}

func newFetchCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch <file.doop[?block=id]>",
		Short: "Resolve a reference the way the module loader does",
		Long: `Resolve a reference the way the module loader does.

A path ending in .doop prints the index with file:// block URLs; a path
ending in .doop?block=id prints that block's source.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			mod, err := a.Fetch(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), mod.Source)
			return err
		},
	}
	return cmd
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve <root>",
		Short: "Serve indexes and blocks over HTTP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := os.Stat(args[0])
			if err != nil {
				return err
			}
			if !info.IsDir() {
				return &ExitError{Code: 2, Message: fmt.Sprintf("%s is not a directory", args[0])}
			}

			a, err := opts.newApp(cmd, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.Serve(ctx, args[0], addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "address to listen on")

	return cmd
}
