package main

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	importTenant      string
	importConcurrency int
)

var importCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Process every supported document in a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "import")
		if err != nil {
			return err
		}
		defer env.Close()

		dir := args[0]
		entries, err := os.ReadDir(dir)
		if err != nil {
			return eris.Wrapf(err, "read dir %s", dir)
		}

		var paths []string
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			switch strings.ToLower(filepath.Ext(entry.Name())) {
			case ".pdf", ".jpg", ".jpeg", ".png", ".docx":
				paths = append(paths, filepath.Join(dir, entry.Name()))
			}
		}
		sort.Strings(paths)
		if len(paths) == 0 {
			return eris.Errorf("no supported documents in %s", dir)
		}

		var completed, failed atomic.Int64
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(importConcurrency)

		for _, path := range paths {
			g.Go(func() error {
				data, err := os.ReadFile(path)
				if err != nil {
					failed.Add(1)
					zap.L().Error("import: read file", zap.String("file", path), zap.Error(err))
					return nil
				}
				res, err := env.Pipeline.Process(gctx, importTenant, filepath.Base(path), contentTypeFor(path), data)
				if err != nil {
					failed.Add(1)
					zap.L().Error("import: process", zap.String("file", path), zap.Error(err))
					return nil
				}
				completed.Add(1)
				zap.L().Info("import: processed",
					zap.String("file", path),
					zap.String("method", string(res.Method)),
				)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return eris.Wrap(err, "import")
		}

		snap := env.Collector.Snapshot()
		zap.L().Info("import complete",
			zap.Int64("completed", completed.Load()),
			zap.Int64("failed", failed.Load()),
			zap.Int("unreadable", snap.Failed),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importTenant, "tenant", "", "tenant to save tariffs under")
	importCmd.Flags().IntVar(&importConcurrency, "concurrency", 4, "documents processed in parallel")
	rootCmd.AddCommand(importCmd)
}
