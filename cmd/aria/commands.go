package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/ariaplayer/aria-core/internal/config"
	"github.com/ariaplayer/aria-core/internal/di/providers"
	"github.com/ariaplayer/aria-core/internal/service"
)

func invokeLibrary(ctx *commandContext) (*service.Library, *do.RootScope, error) {
	injector, err := ctx.container()
	if err != nil {
		return nil, nil, err
	}
	lib, err := do.Invoke[*service.Library](injector)
	if err != nil {
		return nil, nil, err
	}
	return lib, injector, nil
}

func newScanCommand(ctx *commandContext) *cobra.Command {
	var watch bool
	var workers string

	cmd := &cobra.Command{
		Use:   "scan [path...]",
		Short: "Discover and consolidate media under the given paths",
		Long: "Scans the given paths (or the configured library paths) recursively, " +
			"merges the findings into the shelf, and persists it. With --watch, keeps " +
			"running and rescans paths as they change.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx.overrides.Workers = workers
			ctx.overrides.LibraryPaths = args

			lib, injector, err := invokeLibrary(ctx)
			if err != nil {
				return err
			}
			cfg := do.MustInvoke[*config.Config](injector)

			roots := cfg.Library.Paths
			if len(roots) == 0 {
				return fmt.Errorf("no paths given and no library paths configured")
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			summary, err := lib.ScanAll(runCtx, roots)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "discovered %d tracks; shelf now holds %d albums, %d tracks (%d failures)\n",
				summary.Discovered, summary.Albums, summary.Tracks, len(summary.Errors))

			if !watch || !cfg.Watch.Enabled {
				return nil
			}

			w, err := do.Invoke[*providers.WatcherHandle](injector)
			if err != nil {
				return err
			}
			for _, root := range roots {
				if err := w.Watch(root); err != nil {
					return err
				}
			}
			w.Start(runCtx)
			fmt.Fprintln(cmd.OutOrStdout(), "watching for changes; Ctrl-C to stop")
			lib.HandleChanges(runCtx, w.Changes())
			return nil
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "Keep running and rescan on changes")
	cmd.Flags().StringVar(&workers, "workers", "", "Concurrent discovery workers (default: one per CPU)")
	return cmd
}

func newAlbumsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "albums",
		Short: "List albums on the shelf",
		RunE: func(cmd *cobra.Command, _ []string) error {
			lib, _, err := invokeLibrary(ctx)
			if err != nil {
				return err
			}

			sh := lib.Shelf()
			for _, album := range sh.SortedAlbums() {
				title, ok := album.Title()
				if !ok {
					title = "(untitled)"
				}
				artist, _ := album.Artist()
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-40s  %s  (%d tracks)\n",
					album.ID, title, artist, len(sh.TracksFor(album.ID)))
			}
			return nil
		},
	}
}

func newTracksCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "tracks",
		Short: "List tracks on the shelf",
		RunE: func(cmd *cobra.Command, _ []string) error {
			lib, _, err := invokeLibrary(ctx)
			if err != nil {
				return err
			}

			for _, track := range lib.Shelf().SortedTracks() {
				title, ok := track.Title()
				if !ok {
					title = "(untitled)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-40s  %s [%s-%s]\n",
					track.ID, title, track.Source, track.Start, track.End)
			}
			return nil
		},
	}
}

func newLogCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "log",
		Short: "Show the discover log",
		RunE: func(cmd *cobra.Command, _ []string) error {
			lib, _, err := invokeLibrary(ctx)
			if err != nil {
				return err
			}

			for _, entry := range lib.Shelf().Log.Entries() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-11s  %s\n",
					entry.Timestamp.Format("2006-01-02 15:04:05"), entry.Action, entry.URL)
			}
			return nil
		},
	}
}

func newActivateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "activate",
		Short: "Renew access capabilities for every logged url",
		RunE: func(cmd *cobra.Command, _ []string) error {
			lib, _, err := invokeLibrary(ctx)
			if err != nil {
				return err
			}

			skipped := lib.Shelf().Activate()
			for _, url := range skipped {
				fmt.Fprintf(cmd.OutOrStdout(), "inaccessible: %s\n", url)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d entries skipped\n", len(skipped))
			return nil
		},
	}
}
