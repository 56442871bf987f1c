// Package ingest feeds the job queue from call-transcript payload files
// dropped under the payload directory. A filesystem watcher stands in
// for the upstream webhook: whatever writes a payload file gets its
// conversation processed.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/covoxlabs/recollect/pkg/jobs"
	"github.com/covoxlabs/recollect/pkg/transcript"
)

// Payload is an incoming call-transcript file.
type Payload struct {
	ConversationID string               `json:"conversation_id"`
	AgentID        string               `json:"agent_id"`
	CallerID       string               `json:"caller_id"`
	Transcript     []transcript.Message `json:"transcript"`
	DurationSecs   int                  `json:"duration_secs"`
	Status         string               `json:"status"`
}

// Watcher ingests payload files from a directory tree, one subdirectory
// per conversation.
type Watcher struct {
	dir    string
	queue  *jobs.Queue
	logger *zap.Logger

	fsw *fsnotify.Watcher

	mu   sync.Mutex
	seen map[string]struct{}

	done chan struct{}
}

// NewWatcher builds a watcher over dir feeding queue.
func NewWatcher(dir string, queue *jobs.Queue, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating payload watcher: %w", err)
	}

	return &Watcher{
		dir:    dir,
		queue:  queue,
		logger: logger,
		fsw:    fsw,
		seen:   make(map[string]struct{}),
		done:   make(chan struct{}),
	}, nil
}

// Start scans existing payloads, then watches for new ones until the
// context is done or Close is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watching payload dir: %w", err)
	}

	if err := w.scan(); err != nil {
		return err
	}

	go w.loop(ctx)
	return nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Done is closed once the watch loop exits.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

// scan ingests payload files already on disk and registers their
// directories for watching.
func (w *Watcher) scan() error {
	return filepath.WalkDir(w.dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != w.dir {
				if err := w.fsw.Add(path); err != nil {
					w.logger.Warn("watching payload subdir failed", zap.String("path", path), zap.Error(err))
				}
			}
			return nil
		}
		w.ingestFile(path)
		return nil
	})
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}

			info, err := os.Stat(event.Name)
			if err != nil {
				continue
			}
			if info.IsDir() {
				// New conversation directory; its payload file arrives next.
				if err := w.fsw.Add(event.Name); err != nil {
					w.logger.Warn("watching payload subdir failed", zap.String("path", event.Name), zap.Error(err))
				}
				continue
			}

			w.ingestFile(event.Name)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("payload watcher error", zap.Error(err))
		}
	}
}

// ingestFile decodes one payload file and enqueues its job. Malformed or
// partially written files are skipped; a later write event retries them.
func (w *Watcher) ingestFile(path string) {
	if !strings.HasSuffix(path, ".json") {
		return
	}

	w.mu.Lock()
	_, dup := w.seen[path]
	w.mu.Unlock()
	if dup {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		w.logger.Warn("reading payload failed", zap.String("path", path), zap.Error(err))
		return
	}

	var payload Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		w.logger.Warn("skipping malformed payload", zap.String("path", path), zap.Error(err))
		return
	}

	if payload.Status == jobs.FailedStatus {
		// Drained failure artifacts stay put for manual reprocessing.
		w.logger.Debug("skipping failed-extraction payload", zap.String("path", path))
		w.markSeen(path)
		return
	}
	if payload.ConversationID == "" {
		w.logger.Warn("skipping payload without conversation id", zap.String("path", path))
		return
	}

	job := jobs.NewJob(payload.ConversationID, payload.AgentID, payload.CallerID, payload.Transcript, payload.DurationSecs)
	if err := w.queue.Enqueue(job); err != nil {
		w.logger.Warn("enqueueing payload failed",
			zap.String("conversation_id", payload.ConversationID),
			zap.Error(err),
		)
		return
	}

	w.markSeen(path)
	w.logger.Info("payload enqueued",
		zap.String("conversation_id", payload.ConversationID),
		zap.String("path", path),
	)
}

func (w *Watcher) markSeen(path string) {
	w.mu.Lock()
	w.seen[path] = struct{}{}
	w.mu.Unlock()
}
