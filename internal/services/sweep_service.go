package services

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ReferenceSource lists the stored files that are still in use.
type ReferenceSource interface {
	ReferencedFiles(ctx context.Context) (map[string]struct{}, error)
}

type SweepResult struct {
	Scanned int      `json:"scanned"`
	Removed []string `json:"removed"`
	Failed  int      `json:"failed"`
}

// SweepService reconciles the upload directory with the gallery table:
// image files no live row points at are deleted once older than the grace
// period, as are stale temp files left by interrupted writes.
type SweepService struct {
	refs        ReferenceSource
	store       *FileStore
	gracePeriod time.Duration
	isImage     func(ext string) bool
	skipDirs    map[string]struct{}
	now         func() time.Time
}

func NewSweepService(refs ReferenceSource, store *FileStore, gracePeriod time.Duration, isImage func(ext string) bool, skipDirs ...string) *SweepService {
	skip := make(map[string]struct{}, len(skipDirs))
	for _, d := range skipDirs {
		skip[d] = struct{}{}
	}
	return &SweepService{
		refs:        refs,
		store:       store,
		gracePeriod: gracePeriod,
		isImage:     isImage,
		skipDirs:    skip,
		now:         time.Now,
	}
}

func (s *SweepService) Sweep(ctx context.Context) (*SweepResult, error) {
	refs, err := s.refs.ReferencedFiles(ctx)
	if err != nil {
		return nil, err
	}

	result := &SweepResult{Removed: []string{}}
	cutoff := s.now().Add(-s.gracePeriod)
	root := s.store.Root()

	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if _, skip := s.skipDirs[rel]; skip {
				return filepath.SkipDir
			}
			return nil
		}

		name := path.Base(rel)
		isTemp := strings.HasPrefix(name, tempFilePrefix)
		if !isTemp && !s.isImage(path.Ext(name)) {
			return nil
		}
		result.Scanned++

		if _, used := refs[rel]; used {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.ModTime().After(cutoff) {
			return nil
		}

		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			result.Failed++
			logrus.WithError(err).WithField("path", rel).Warn("sweep failed to remove orphan file")
			return nil
		}
		result.Removed = append(result.Removed, rel)
		return nil
	})
	if err != nil {
		return result, err
	}

	logrus.WithFields(logrus.Fields{
		"scanned": result.Scanned,
		"removed": len(result.Removed),
		"failed":  result.Failed,
	}).Info("orphan file sweep finished")
	return result, nil
}

// Run sweeps every interval until ctx is cancelled.
func (s *SweepService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logrus.WithError(err).Error("orphan file sweep failed")
			}
		}
	}
}
