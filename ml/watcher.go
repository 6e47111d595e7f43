package ml

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ArtifactEvent describes a change to the model file on disk.
type ArtifactEvent struct {
	Path string
	Op   fsnotify.Op
}

// WatchArtifact reports changes to the model file until ctx is done. The
// loaded model is never replaced; a change only means a restart is needed.
// onChange may be nil.
func WatchArtifact(ctx context.Context, path string, logger *zap.Logger, onChange func(ArtifactEvent)) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// 监听目录，文件不存在时也能收到创建事件
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
					!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
					continue
				}
				logger.Warn("model artifact changed on disk, restart to apply",
					zap.String("path", abs), zap.String("op", event.Op.String()))
				if onChange != nil {
					onChange(ArtifactEvent{Path: abs, Op: event.Op})
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("artifact watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}
