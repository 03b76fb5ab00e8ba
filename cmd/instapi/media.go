package main

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"instapi/pkg/logger"
	"instapi/pkg/metadata"
	"instapi/pkg/models"
	"instapi/pkg/paginate"
	"instapi/pkg/storage"
	"instapi/pkg/ui"
)

var (
	outputDir  string
	concurrent int
	onlyImages bool
	onlyVideos bool
	stories    bool
	notify     bool
	sidecars   bool
)

var feedCmd = &cobra.Command{
	Use:   "feed <username>",
	Short: "List a user's posts",
	Args:  cobra.ExactArgs(1),
	RunE:  runFeed,
}

var downloadCmd = &cobra.Command{
	Use:   "download <username>",
	Short: "Download the photos and videos a user published",
	Long: `Download the best rendition of every image and video a user published.

Files are written to <output>/<username>/ under the name the CDN serves them
with. Files that already exist are skipped unless download.overwrite is set.`,
	Example: `  # Everything, four files at a time
  instapi download natgeo --concurrent 4

  # The latest 20 videos
  instapi download natgeo --videos --limit 20

  # Current stories
  instapi download natgeo --stories`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

func init() {
	feedCmd.Flags().IntVarP(&limit, "limit", "n", 0, "stop after this many posts (0 for all)")

	downloadCmd.Flags().IntVarP(&limit, "limit", "n", 0, "stop after this many files (0 for all)")
	downloadCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory")
	downloadCmd.Flags().IntVar(&concurrent, "concurrent", 0, "number of concurrent downloads")
	downloadCmd.Flags().BoolVar(&onlyImages, "images", false, "only images")
	downloadCmd.Flags().BoolVar(&onlyVideos, "videos", false, "only videos")
	downloadCmd.Flags().BoolVar(&stories, "stories", false, "download current stories instead of posts")
	downloadCmd.Flags().BoolVar(&sidecars, "metadata", false, "write a JSON sidecar next to every file")
	downloadCmd.Flags().BoolVar(&notify, "notify", false, "send a desktop notification when done")
	downloadCmd.MarkFlagsMutuallyExclusive("images", "videos")

	rootCmd.AddCommand(feedCmd)
	rootCmd.AddCommand(downloadCmd)
}

func runFeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	b, _, err := bind(ctx)
	if err != nil {
		return err
	}
	u, err := models.UserFromUsername(ctx, b, args[0])
	if err != nil {
		return err
	}
	seq, err := paginate.Take(u.IterFeeds(ctx), limitFrom(limit))
	if err != nil {
		return err
	}
	for f, err := range seq {
		if err != nil {
			return err
		}
		caption, err := f.Caption(ctx)
		if err != nil {
			return err
		}
		ui.Default().Row("%d\t♥ %d\t✎ %d\t%s", f.ID(), f.LikeCount, f.CommentCount, truncate(caption, 60))
	}
	return nil
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func runDownload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	b, client, err := bind(ctx)
	if err != nil {
		return err
	}
	u, err := models.UserFromUsername(ctx, b, args[0])
	if err != nil {
		return err
	}

	wantVideo, wantImage := !onlyImages, !onlyVideos
	resources := u.IterResources(ctx, wantVideo, wantImage)
	if stories {
		resources = u.IterStoryResources(ctx, wantVideo, wantImage)
	}
	seq, err := paginate.Take(resources, limitFrom(limit))
	if err != nil {
		return err
	}

	m, err := storage.NewManager(filepath.Join(cfg.Download.OutputDir, u.Username), cfg.Download.Overwrite)
	if err != nil {
		return err
	}
	ui.PrintInfo("Saving to", m.OutputDir())
	if sidecars {
		if n, err := metadata.CleanOrphaned(m.OutputDir()); err != nil {
			ui.PrintWarning("Failed to clean metadata", err)
		} else if n > 0 {
			logger.GetLogger().WithField("removed", n).Info("removed orphaned metadata")
		}
	}

	progress := ui.NewProgress(ui.Default(), u.Username, 0, verbose)
	err = fetchAll(ctx, seq, cfg.Download.Concurrent, func(ctx context.Context, r models.Resource) {
		path, err := r.Download(ctx, client, m, "")
		switch {
		case errors.Is(err, storage.ErrExists):
			logger.GetLogger().WithField("file", r.Filename()).Debug("already downloaded")
		case err != nil:
			progress.Fail(r.Filename(), err)
		default:
			size := fileSize(path)
			progress.Complete(filepath.Base(path), size)
			if sidecars {
				if err := metadata.FromResource(u, r, size).Save(path); err != nil {
					logger.GetLogger().WithError(err).WithField("file", path).Warn("failed to write metadata")
				}
			}
		}
	})
	progress.Summary()

	done, failed := progress.Counts()
	notifier := ui.NewNotifier(ui.Default(), nil)
	if notify {
		notifier = ui.NewNotifier(ui.Default(), ui.PlatformSender())
	}
	if err != nil {
		notifier.Error("Download failed", err.Error())
		return err
	}
	notifier.Success("Download complete", fmt.Sprintf("%d files saved, %d failed", done, failed))
	return nil
}

// fetchAll runs save for every resource with at most workers in flight. The
// listing error, if any, is returned after in-flight saves finish.
func fetchAll(ctx context.Context, seq iter.Seq2[models.Resource, error], workers int, save func(context.Context, models.Resource)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))

	var listErr error
	for r, err := range seq {
		if err != nil {
			listErr = err
			break
		}
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			save(gctx, r)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if listErr != nil {
		return listErr
	}
	return ctx.Err()
}

func fileSize(path string) int64 {
	fi, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return fi.Size()
}
