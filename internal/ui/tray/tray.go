package tray

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"

	"neuronwatch/internal/core/stopwatch"
)

// Callbacks defines tray action handlers.
type Callbacks struct {
	OnShow         func()
	OnAddTimer     func()
	OnClearHistory func()
	OnPreferences  func()
	OnQuit         func()
}

// Manager handles system tray state.
type Manager struct {
	app        desktop.App
	statusItem *fyne.MenuItem
	icon       fyne.Resource
	callbacks  Callbacks
}

// New creates a tray manager with the provided callbacks.
func New(app desktop.App, callbacks Callbacks) *Manager {
	manager := &Manager{
		app:       app,
		callbacks: callbacks,
	}

	manager.statusItem = fyne.NewMenuItem("No neurons", nil)
	manager.statusItem.Disabled = true
	manager.refreshMenu()
	manager.setIcon(Icon(nil))

	return manager
}

// Update summarizes the timers in the status line and swaps the tray icon
// between running and paused.
func (manager *Manager) Update(timers []stopwatch.Timer) {
	manager.statusItem.Label = Summary(timers)
	manager.refreshMenu()
	manager.setIcon(Icon(timers))
}

// Icon picks the tray icon: play while any timer runs, pause otherwise.
func Icon(timers []stopwatch.Timer) fyne.Resource {
	for _, timer := range timers {
		if timer.Running {
			return theme.MediaPlayIcon()
		}
	}
	return theme.MediaPauseIcon()
}

// Summary describes how many timers exist and how many are running.
func Summary(timers []stopwatch.Timer) string {
	if len(timers) == 0 {
		return "No neurons"
	}
	running := 0
	for _, timer := range timers {
		if timer.Running {
			running++
		}
	}
	noun := "neurons"
	if len(timers) == 1 {
		noun = "neuron"
	}
	return fmt.Sprintf("%d %s, %d running", len(timers), noun, running)
}

func (manager *Manager) refreshMenu() {
	if manager.app == nil {
		return
	}
	manager.app.SetSystemTrayMenu(fyne.NewMenu("NeuronWatch",
		manager.statusItem,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Show", invoke(manager.callbacks.OnShow)),
		fyne.NewMenuItem("Add neuron", invoke(manager.callbacks.OnAddTimer)),
		fyne.NewMenuItem("Clear history", invoke(manager.callbacks.OnClearHistory)),
		fyne.NewMenuItem("Preferences", invoke(manager.callbacks.OnPreferences)),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", invoke(manager.callbacks.OnQuit)),
	))
}

func (manager *Manager) setIcon(icon fyne.Resource) {
	if manager.icon == icon {
		return
	}
	manager.icon = icon
	if manager.app != nil {
		manager.app.SetSystemTrayIcon(icon)
	}
}

func invoke(callback func()) func() {
	return func() {
		if callback != nil {
			callback()
		}
	}
}
