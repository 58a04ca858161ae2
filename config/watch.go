package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/b0bbywan/go-mpris-hub/logger"
)

// WatchLogLevel reloads the log level whenever the config file changes, so
// a running instance can be switched to DEBUG without a restart. No-op when
// no config file was found at startup. Only the log level is live; every
// other setting needs a restart.
func WatchLogLevel(ctx context.Context) error {
	path := viper.ConfigFileUsed()
	if path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// Watch the directory, not the file: editors and provisioning tools
	// replace the file, which would kill a direct watch.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		if closeErr := watcher.Close(); closeErr != nil {
			logger.Info("[config] failed to close watcher: %v", closeErr)
		}
		return err
	}

	logger.Info("[config] watching %s for log level changes", path)

	go listenConfigChanges(ctx, watcher, path)

	return nil
}

func listenConfigChanges(ctx context.Context, watcher *fsnotify.Watcher, path string) {
	defer func() {
		if err := watcher.Close(); err != nil {
			logger.Warn("[config] failed to close watcher: %v", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			reloadLogLevel()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Error("[config] fsnotify watcher error: %v", err)
		}
	}
}

func reloadLogLevel() {
	if err := viper.ReadInConfig(); err != nil {
		logger.Warn("[config] config reload failed: %v", err)
		return
	}
	levelStr := viper.GetString("LogLevel")
	logger.SetLevel(parseLogLevel(levelStr))
	logger.SetPackageLevels(packageLevels())
	logger.Info("[config] log level reloaded: %s", levelStr)
}
