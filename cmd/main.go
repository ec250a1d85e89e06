package main

import (
	"log/slog"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/jonboulle/clockwork"

	"neuronwatch/internal/core/stopwatch"
	"neuronwatch/internal/logfields"
	"neuronwatch/internal/platform"
	"neuronwatch/internal/storage"
	"neuronwatch/internal/ui/board"
	"neuronwatch/internal/ui/preferences"
	"neuronwatch/internal/ui/tray"
)

const appName = "NeuronWatch"

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	guard, err := platform.AcquireSingleInstance(appName)
	if err != nil {
		slog.Error("single instance", logfields.Error(err))
		return
	}
	defer func() {
		_ = guard.Release()
	}()

	settings, err := storage.LoadSettings(appName)
	if err != nil {
		slog.Warn("load settings, using defaults", logfields.Error(err))
	}

	fyneApp := app.NewWithID("com.neuronwatch.app")

	store, closeStore, err := openStore(fyneApp, settings)
	if err != nil {
		slog.Error("open store", logfields.Error(err))
		return
	}
	defer closeStore()

	clock := clockwork.NewRealClock()
	scheduler, err := stopwatch.NewCronScheduler(clock)
	if err != nil {
		slog.Error("start tick scheduler", logfields.Error(err))
		return
	}
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			slog.Warn("stop tick scheduler", logfields.Error(err))
		}
	}()

	adapter := storage.NewAdapter(store, slog.Default())
	registry := stopwatch.New(settings.RegistryConfig(), stopwatch.Options{
		Clock:     clock,
		Scheduler: scheduler,
		Persister: adapter,
	})
	defer registry.Close()
	registry.Restore(adapter.LoadTimers(), adapter.LoadHistory())

	mainBoard := board.New(fyneApp, registry)
	mainBoard.Window().SetMaster()

	prefsWindow := preferences.New(fyneApp, settings, func(updated preferences.Settings) {
		if updated.StorageBackend != settings.StorageBackend {
			mainBoard.Notify("Storage change applies after restart", widget.MediumImportance)
		}
		settings = updated
		registry.UpdateConfig(settings.RegistryConfig())
		if err := storage.SaveSettings(appName, settings); err != nil {
			slog.Warn("save settings", logfields.Error(err))
			mainBoard.Notify("Could not save settings", widget.WarningImportance)
		}
	})

	var trayManager *tray.Manager
	if desktopApp, ok := fyneApp.(desktop.App); ok {
		trayManager = tray.New(desktopApp, tray.Callbacks{
			OnShow:         mainBoard.Show,
			OnAddTimer:     mainBoard.AddTimer,
			OnClearHistory: mainBoard.ClearHistory,
			OnPreferences:  prefsWindow.Show,
			OnQuit:         fyneApp.Quit,
		})
		trayManager.Update(registry.Timers())
	} else {
		slog.Info("system tray unsupported on this platform")
	}

	events := registry.Subscribe(32)
	go func() {
		for event := range events {
			fyne.Do(func() {
				mainBoard.Handle(event)
				if trayManager != nil && event.Type != stopwatch.EventTick {
					trayManager.Update(registry.Timers())
				}
			})
		}
	}()

	mainBoard.Show()
	fyneApp.Run()
	slog.Info("shutting down", logfields.Count(len(registry.Timers())))
}

func openStore(fyneApp fyne.App, settings preferences.Settings) (storage.Store, func(), error) {
	if settings.StorageBackend == preferences.BackendPreferences {
		return storage.NewPreferencesStore(fyneApp.Preferences()), func() {}, nil
	}

	path, err := storage.DatabasePath(appName, settings)
	if err != nil {
		return nil, nil, err
	}
	store, err := storage.OpenBolt(path)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("using bolt store", logfields.Path(path))
	return store, func() {
		if err := store.Close(); err != nil {
			slog.Warn("close store", logfields.Error(err))
		}
	}, nil
}
