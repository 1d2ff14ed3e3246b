package ingest

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"SelahFM/logger"
	"SelahFM/model"
	"SelahFM/repository"
	"SelahFM/storage"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
)

// The writer may still be flushing when the create event fires; wait for
// the file size to hold still before uploading.
const settleDelay = 2 * time.Second

var audioExtensions = map[string]bool{
	".mp3":  true,
	".m4a":  true,
	".aac":  true,
	".flac": true,
	".wav":  true,
	".ogg":  true,
}

// Watcher picks up audio files dropped into a local directory, uploads
// them to the bucket, and registers them in the catalog as inactive
// drafts for an editor to title and activate.
type Watcher struct {
	dir       string
	audioRepo repository.AudioRepository
}

// NewWatcher creates a watcher over dir. An empty dir disables ingest.
func NewWatcher(dir string, audioRepo repository.AudioRepository) *Watcher {
	return &Watcher{dir: dir, audioRepo: audioRepo}
}

// Run watches the drop directory until ctx is cancelled. Files already
// present at startup are ingested first.
func (w *Watcher) Run(ctx context.Context) error {
	if w.dir == "" {
		logger.Info("ingest directory not configured, watcher disabled")
		return nil
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create ingest directory %s: %w", w.dir, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create ingest watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	logger.Info("ingest watcher started", logger.String("dir", w.dir))

	w.sweepExisting(ctx)

	processed := make(map[string]bool)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != fsnotify.Create {
				continue
			}
			if processed[event.Name] || !isAudioFile(event.Name) {
				continue
			}
			processed[event.Name] = true
			go w.ingestFile(ctx, event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("ingest watcher error", logger.ErrorField(err))
		}
	}
}

func (w *Watcher) sweepExisting(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		logger.Warn("failed to scan ingest directory", logger.ErrorField(err))
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(w.dir, entry.Name())
		if isAudioFile(path) {
			w.ingestFile(ctx, path)
		}
	}
}

func isAudioFile(path string) bool {
	return audioExtensions[strings.ToLower(filepath.Ext(path))]
}

func (w *Watcher) ingestFile(ctx context.Context, path string) {
	if err := waitForSettle(ctx, path); err != nil {
		logger.Warn("skipping unsettled ingest file", logger.String("path", path), logger.ErrorField(err))
		return
	}

	f, err := os.Open(path)
	if err != nil {
		logger.Warn("failed to open ingest file", logger.String("path", path), logger.ErrorField(err))
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		logger.Warn("failed to stat ingest file", logger.String("path", path), logger.ErrorField(err))
		return
	}

	ext := strings.ToLower(filepath.Ext(path))
	objectKey := fmt.Sprintf("audio/%s%s", uuid.NewString(), ext)
	contentType := mime.TypeByExtension(ext)

	if err := storage.UploadAudio(ctx, objectKey, f, info.Size(), contentType, 0); err != nil {
		logger.Error("failed to upload ingest file", logger.String("path", path), logger.ErrorField(err))
		return
	}

	// Registered inactive; an editor titles and activates it from the
	// admin catalog endpoints.
	item := &model.AudioItem{
		Title:     strings.TrimSuffix(filepath.Base(path), ext),
		ObjectKey: objectKey,
		IsActive:  false,
	}
	id, err := w.audioRepo.CreateAudioItem(item)
	if err != nil {
		logger.Error("failed to register ingested audio", logger.String("objectKey", objectKey), logger.ErrorField(err))
		return
	}

	donePath := path + ".done"
	if err := os.Rename(path, donePath); err != nil {
		logger.Warn("failed to move processed ingest file", logger.String("path", path), logger.ErrorField(err))
	}

	logger.Info("ingested audio file",
		logger.String("path", path),
		logger.String("objectKey", objectKey),
		logger.Int64("itemId", id),
	)
}

// waitForSettle polls until two consecutive stats report the same size.
func waitForSettle(ctx context.Context, path string) error {
	var lastSize int64 = -1
	for i := 0; i < 30; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(settleDelay):
		}

		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if info.Size() == lastSize {
			return nil
		}
		lastSize = info.Size()
	}
	return fmt.Errorf("file %s never settled", path)
}
