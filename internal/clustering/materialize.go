package clustering

import (
	"context"
	"fmt"
	"io"
	"logogrouper/pkg/domain"
	"logogrouper/pkg/logger"
	"logogrouper/pkg/serrors"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// groupDirPrefix names every per-cluster output directory.
const groupDirPrefix = "group_"

// MaterializerOptions configure the Materializer.
type MaterializerOptions struct {
	// GroupsDir is the parent of all group directories. It is created when missing.
	GroupsDir string
	// Clean removes group directories of earlier runs before copying.
	Clean bool
}

// MaterializeResult summarizes a Materialize call.
type MaterializeResult struct {
	Groups int
	Copied int
	Failed int
}

// Materializer copies clustered images into one directory per cluster.
type Materializer struct {
	groupsDir string
	clean     bool
}

// Materialize writes each cluster to <GroupsDir>/group_<id>/. A failed copy is
// logged and counted, and never stops the remaining copies. Only a failure to
// prepare GroupsDir itself is returned.
func (m *Materializer) Materialize(ctx context.Context, clusters []domain.Cluster) (MaterializeResult, error) {
	var result MaterializeResult

	if m.clean {
		if err := m.removeStale(); err != nil {
			return result, err
		}
	}
	if err := os.MkdirAll(m.groupsDir, 0o755); err != nil {
		return result, fmt.Errorf("could not create groups directory: %w", err)
	}

	for _, cluster := range clusters {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("could not finish materializing groups: %w", err)
		}

		dir := GroupDir(m.groupsDir, cluster.ID)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error(ctx, "could not create group directory",
				zap.String("dir", dir),
				zap.Error(serrors.Wrap(serrors.ErrFileCopy, err, "could not create %s", dir)))
			result.Failed += len(cluster.Members)

			continue
		}
		result.Groups++

		for _, member := range cluster.Members {
			dst := filepath.Join(dir, filepath.Base(member))
			if err := copyFile(member, dst); err != nil {
				logger.Error(ctx, "could not copy image into group",
					zap.Int("group", cluster.ID),
					zap.String("src", member),
					zap.Error(err))
				result.Failed++

				continue
			}
			result.Copied++
		}
	}

	logger.Info(ctx, "groups materialized",
		zap.Int("groups", result.Groups),
		zap.Int("copied", result.Copied),
		zap.Int("failed", result.Failed))

	return result, nil
}

// removeStale deletes group directories left by earlier runs.
func (m *Materializer) removeStale() error {
	stale, err := filepath.Glob(filepath.Join(m.groupsDir, groupDirPrefix+"*"))
	if err != nil {
		return fmt.Errorf("could not list stale groups: %w", err)
	}
	for _, dir := range stale {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("could not remove stale group %s: %w", dir, err)
		}
	}

	return nil
}

// GroupDir returns the output directory of the cluster with the given id.
func GroupDir(groupsDir string, id int) string {
	return filepath.Join(groupsDir, fmt.Sprintf("%s%d", groupDirPrefix, id))
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return serrors.Wrap(serrors.ErrFileCopy, err, "could not open source")
	}
	defer func() {
		_ = in.Close()
	}()

	out, err := os.Create(dst)
	if err != nil {
		return serrors.Wrap(serrors.ErrFileCopy, err, "could not create destination")
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = serrors.Wrap(serrors.ErrFileCopy, cerr, "could not close destination")
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		return serrors.Wrap(serrors.ErrFileCopy, err, "could not copy")
	}

	return nil
}

// NewMaterializer creates a Materializer.
func NewMaterializer(opts MaterializerOptions) *Materializer {
	return &Materializer{
		groupsDir: opts.GroupsDir,
		clean:     opts.Clean,
	}
}
