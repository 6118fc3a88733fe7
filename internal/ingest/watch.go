package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/rjeczalik/notify"
	"github.com/wgbh/bawstun/pkg/logger"
)

const (
	DefaultForceSyncInterval = time.Minute
	DefaultSettleTime        = time.Second * 5
)

type (
	// WatchConfig controls how files dropped in to a directory are
	// discovered for automatic ingestion.
	WatchConfig struct {
		// The directory to monitor for new files.
		Dir string `yaml:"dir" env:"WATCH_DIR"`

		// The watcher relies on filesystem notifications, but a
		// full re-scan is also performed on this interval in case
		// a notification is missed.
		ForceSyncInterval time.Duration `yaml:"force_sync_interval" env:"WATCH_FORCE_SYNC_INTERVAL"`

		// A new file is likely still being written by whatever put it
		// there, so it is only ingested once its modtime is at least
		// this far in the past.
		SettleTime time.Duration `yaml:"settle_time" env:"WATCH_SETTLE_TIME"`

		// Files whose name matches any of these expressions are ignored.
		Blacklist []string `yaml:"blacklist"`
	}

	// HandleFunc ingests the file at the path provided. The file is expected
	// to have been moved out of the watched directory when it returns.
	HandleFunc func(ctx context.Context, path string) error

	// Watcher discovers settled files inside of a directory and hands them to
	// a HandleFunc, one at a time. Files which fail to ingest are not retried
	// until the watcher is restarted.
	Watcher struct {
		*sync.Mutex
		config     WatchConfig
		blacklist  []*regexp.Regexp
		handle     HandleFunc
		known      map[string]bool
		holdTimers map[string]*time.Timer
		ready      chan string
	}
)

// NewWatcher validates the configuration provided and constructs a watcher.
// If the directory is missing it will be created; if the path points to an
// existing file an error is returned.
func NewWatcher(config WatchConfig, handle HandleFunc) (*Watcher, error) {
	if config.Dir == "" {
		return nil, errors.New("no directory to watch was provided")
	}
	if info, err := os.Stat(config.Dir); err == nil {
		if !info.IsDir() {
			return nil, fmt.Errorf("watch path '%s' is not a directory", config.Dir)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(config.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create watch directory '%s': %w", config.Dir, err)
		}
	} else {
		return nil, fmt.Errorf("watch path '%s' could not be accessed: %w", config.Dir, err)
	}

	if config.ForceSyncInterval <= 0 {
		config.ForceSyncInterval = DefaultForceSyncInterval
	}
	if config.SettleTime < 0 {
		config.SettleTime = 0
	}

	blacklist := make([]*regexp.Regexp, 0, len(config.Blacklist))
	for _, expr := range config.Blacklist {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("blacklist expression '%s' is invalid: %w", expr, err)
		}
		blacklist = append(blacklist, re)
	}

	return &Watcher{
		Mutex:      &sync.Mutex{},
		config:     config,
		blacklist:  blacklist,
		handle:     handle,
		known:      make(map[string]bool),
		holdTimers: make(map[string]*time.Timer),
		ready:      make(chan string, 64),
	}, nil
}

// Run watches the directory until the context provided is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fsNotifyChannel := make(chan notify.EventInfo, 16)
	if err := notify.Watch(filepath.Join(w.config.Dir, "..."), fsNotifyChannel, notify.Create, notify.Write, notify.Rename); err != nil {
		return fmt.Errorf("failed to watch '%s': %w", w.config.Dir, err)
	}
	defer notify.Stop(fsNotifyChannel)

	forceSync := time.NewTicker(w.config.ForceSyncInterval)
	defer forceSync.Stop()
	defer w.clearAllHoldTimers()

	log.Emit(logger.NEW, "Watching %s for new files\n", w.config.Dir)
	w.discoverNewFiles(ctx)
	for {
		select {
		case <-fsNotifyChannel:
			w.discoverNewFiles(ctx)
		case <-forceSync.C:
			w.discoverNewFiles(ctx)
		case path := <-w.ready:
			w.evaluateHold(ctx, path)
		case <-ctx.Done():
			log.Emit(logger.STOP, "Stopped watching %s\n", w.config.Dir)
			return nil
		}
	}
}

// discoverNewFiles walks the watched directory looking for files that have
// not been seen before. Settled files are ingested immediately, the rest
// are held until they settle.
func (w *Watcher) discoverNewFiles(ctx context.Context) {
	settled := make([]string, 0)
	err := filepath.WalkDir(w.config.Dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || w.isBlacklisted(entry.Name()) {
			return nil
		}

		info, err := entry.Info()
		if errors.Is(err, os.ErrNotExist) {
			return nil
		} else if err != nil {
			return err
		}

		w.Lock()
		defer w.Unlock()
		if w.known[path] {
			return nil
		}

		w.known[path] = true
		if age := time.Since(info.ModTime()); age < w.config.SettleTime {
			w.scheduleHoldTimer(path, w.config.SettleTime-age)
			return nil
		}

		settled = append(settled, path)
		return nil
	})
	if err != nil {
		log.Emit(logger.ERROR, "Failed to walk %s: %v\n", w.config.Dir, err)
	}

	for _, path := range settled {
		w.ingest(ctx, path)
	}
}

// evaluateHold checks the modtime of a held file. Files which have gone
// away are forgotten, files which are still changing are held again.
func (w *Watcher) evaluateHold(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil {
		w.forget(path)
		return
	}

	if age := time.Since(info.ModTime()); age < w.config.SettleTime {
		w.Lock()
		w.scheduleHoldTimer(path, w.config.SettleTime-age)
		w.Unlock()
		return
	}

	w.ingest(ctx, path)
}

func (w *Watcher) ingest(ctx context.Context, path string) {
	if err := w.handle(ctx, path); err != nil {
		log.Emit(logger.ERROR, "Automatic ingestion of %s failed: %v\n", path, err)
		return
	}

	log.Emit(logger.SUCCESS, "Automatically ingested %s\n", path)
	w.forget(path)
}

func (w *Watcher) forget(path string) {
	w.Lock()
	defer w.Unlock()

	w.clearHoldTimer(path)
	delete(w.known, path)
}

func (w *Watcher) isBlacklisted(name string) bool {
	for _, re := range w.blacklist {
		if re.MatchString(name) {
			return true
		}
	}

	return false
}

// scheduleHoldTimer re-evaluates the file after the delay specified. Any
// existing timer for the file is cancelled first. Callers must hold the lock.
func (w *Watcher) scheduleHoldTimer(path string, delay time.Duration) {
	w.clearHoldTimer(path)
	w.holdTimers[path] = time.AfterFunc(delay, func() {
		select {
		case w.ready <- path:
		default:
			// Known files are never rediscovered, so retry rather than drop it.
			w.Lock()
			w.scheduleHoldTimer(path, time.Second)
			w.Unlock()
		}
	})
}

func (w *Watcher) clearHoldTimer(path string) {
	if timer, ok := w.holdTimers[path]; ok {
		timer.Stop()
		delete(w.holdTimers, path)
	}
}

func (w *Watcher) clearAllHoldTimers() {
	w.Lock()
	defer w.Unlock()

	for path, timer := range w.holdTimers {
		timer.Stop()
		delete(w.holdTimers, path)
	}
}
