package preferences

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"neuronwatch/internal/core/model"
)

// Window handles the preferences UI.
type Window struct {
	window       fyne.Window
	settings     Settings
	onSave       func(Settings)
	maxTimers    *widget.Entry
	tickInterval *widget.Entry
	layout       *widget.Entry
	resetRecords *widget.Check
	backend      *widget.Select
}

// New creates a preferences window.
func New(app fyne.App, settings Settings, onSave func(Settings)) *Window {
	window := app.NewWindow("NeuronWatch Settings")

	prefs := &Window{
		window:       window,
		onSave:       onSave,
		maxTimers:    widget.NewEntry(),
		tickInterval: widget.NewEntry(),
		layout:       widget.NewEntry(),
		resetRecords: widget.NewCheck("Reset records a history entry", nil),
		backend:      widget.NewSelect([]string{BackendBolt, BackendPreferences}, nil),
	}
	prefs.UpdateSettings(settings)

	form := container.NewVBox(
		widget.NewLabelWithStyle("Neurons", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewHBox(widget.NewLabel("Maximum neurons"), prefs.maxTimers, widget.NewLabel(fmt.Sprintf("of %d", model.MaxTimersLimit))),
		container.NewHBox(widget.NewLabel("Refresh every"), prefs.tickInterval, widget.NewLabel("ms")),
		prefs.resetRecords,
		widget.NewLabelWithStyle("History", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabel("Timestamp layout"),
		prefs.layout,
		widget.NewLabelWithStyle("Storage (applies after restart)", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		prefs.backend,
	)

	saveButton := widget.NewButton("Save", prefs.handleSave)
	cancelButton := widget.NewButton("Cancel", func() {
		prefs.UpdateSettings(prefs.settings)
		window.Hide()
	})
	buttons := container.NewHBox(saveButton, layout.NewSpacer(), cancelButton)

	window.SetContent(container.NewBorder(nil, buttons, nil, nil, form))
	window.SetCloseIntercept(window.Hide)
	window.Resize(fyne.NewSize(420, 380))

	return prefs
}

// Show displays the preferences window.
func (prefs *Window) Show() {
	prefs.window.Show()
	prefs.window.RequestFocus()
}

// UpdateSettings replaces window values.
func (prefs *Window) UpdateSettings(settings Settings) {
	prefs.settings = settings
	prefs.maxTimers.SetText(strconv.Itoa(settings.MaxTimers))
	prefs.tickInterval.SetText(strconv.Itoa(int(settings.TickInterval / time.Millisecond)))
	prefs.layout.SetText(settings.TimestampLayout)
	prefs.resetRecords.SetChecked(settings.ResetRecordsHistory)
	prefs.backend.SetSelected(settings.StorageBackend)
}

func (prefs *Window) handleSave() {
	settings := prefs.settings

	if count, ok := parsePositiveInt(prefs.maxTimers.Text); ok && count <= model.MaxTimersLimit {
		settings.MaxTimers = count
	}
	if millis, ok := parsePositiveInt(prefs.tickInterval.Text); ok && millis >= 100 {
		settings.TickInterval = time.Duration(millis) * time.Millisecond
	}
	if layoutText := strings.TrimSpace(prefs.layout.Text); layoutText != "" {
		settings.TimestampLayout = layoutText
	}
	settings.ResetRecordsHistory = prefs.resetRecords.Checked
	if prefs.backend.Selected != "" {
		settings.StorageBackend = prefs.backend.Selected
	}

	prefs.settings = settings
	prefs.UpdateSettings(settings)
	if prefs.onSave != nil {
		prefs.onSave(settings)
	}
	prefs.window.Hide()
}

func parsePositiveInt(value string) (int, bool) {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		return 0, false
	}
	return parsed, true
}
