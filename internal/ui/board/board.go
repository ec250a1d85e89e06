package board

import (
	"errors"
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"neuronwatch/internal/core/stopwatch"
)

const noticeDuration = 3 * time.Second

// Board is the main window listing every timer and the history log.
type Board struct {
	window   fyne.Window
	registry *stopwatch.Registry

	cards       *fyne.Container
	history     *fyne.Container
	notice      *widget.Label
	addButton   *widget.Button
	clearButton *widget.Button

	rows         map[int]*row
	historySize  int
	noticeTimer  *time.Timer
	noticeSerial int
}

type row struct {
	card    *widget.Card
	status  *widget.Entry
	display *widget.Label
	start   *widget.Button
	stop    *widget.Button
	reset   *widget.Button
}

// New creates the board window.
func New(app fyne.App, registry *stopwatch.Registry) *Board {
	window := app.NewWindow("NeuronWatch")

	board := &Board{
		window:   window,
		registry: registry,
		cards:    container.NewVBox(),
		history:  container.NewVBox(),
		notice:   widget.NewLabel(""),
		rows:     make(map[int]*row),
	}
	board.notice.Hide()

	board.addButton = widget.NewButtonWithIcon("Add neuron", theme.ContentAddIcon(), board.handleAdd)
	board.clearButton = widget.NewButtonWithIcon("Clear history", theme.DeleteIcon(), board.handleClearHistory)

	toolbar := container.NewHBox(board.addButton, layout.NewSpacer(), board.clearButton)
	historyPanel := container.NewBorder(
		widget.NewLabelWithStyle("History", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		nil, nil, nil,
		container.NewVScroll(board.history),
	)
	split := container.NewVSplit(container.NewVScroll(board.cards), historyPanel)
	split.Offset = 0.65

	window.SetContent(container.NewBorder(container.NewVBox(toolbar, board.notice), nil, nil, nil, split))
	window.Resize(fyne.NewSize(520, 640))

	board.Refresh()
	return board
}

// Window returns the underlying fyne window.
func (board *Board) Window() fyne.Window {
	return board.window
}

// Show displays the board.
func (board *Board) Show() {
	board.window.Show()
	board.window.RequestFocus()
}

// Handle applies a registry event. It must run on the fyne main goroutine.
func (board *Board) Handle(event stopwatch.Event) {
	switch event.Type {
	case stopwatch.EventWarning:
		board.Notify(event.Message, widget.WarningImportance)
	case stopwatch.EventHistoryCleared:
		board.historySize = -1
	}
	board.Refresh()
}

// Refresh re-renders timers and history from registry snapshots.
func (board *Board) Refresh() {
	for _, timer := range board.registry.Timers() {
		current, ok := board.rows[timer.ID]
		if !ok {
			current = board.newRow(timer)
			board.rows[timer.ID] = current
			board.cards.Add(current.card)
		}
		current.display.SetText(stopwatch.FormatElapsed(timer.Elapsed))
		if timer.Running {
			current.start.Disable()
			current.stop.Enable()
		} else {
			current.start.Enable()
			current.stop.Disable()
		}
	}

	history := board.registry.History()
	if len(history) != board.historySize {
		board.history.RemoveAll()
		for _, record := range history {
			board.history.Add(widget.NewLabel(stopwatch.FormatLine(record)))
		}
		board.historySize = len(history)
	}
}

// Notify shows a short-lived message above the timers, coloured by importance.
func (board *Board) Notify(message string, importance widget.Importance) {
	board.noticeSerial++
	serial := board.noticeSerial
	board.notice.Importance = importance
	board.notice.SetText(message)
	board.notice.Show()

	if board.noticeTimer != nil {
		board.noticeTimer.Stop()
	}
	board.noticeTimer = time.AfterFunc(noticeDuration, func() {
		fyne.Do(func() {
			if board.noticeSerial == serial {
				board.notice.Hide()
			}
		})
	})
}

// AddTimer creates a timer, reporting the capacity limit to the user.
func (board *Board) AddTimer() {
	board.handleAdd()
}

// ClearHistory empties the history log.
func (board *Board) ClearHistory() {
	board.handleClearHistory()
}

func (board *Board) newRow(timer stopwatch.Timer) *row {
	id := timer.ID
	current := &row{
		status:  widget.NewEntry(),
		display: widget.NewLabelWithStyle(stopwatch.FormatElapsed(timer.Elapsed), fyne.TextAlignCenter, fyne.TextStyle{Monospace: true, Bold: true}),
	}
	current.status.SetPlaceHolder("Status")
	current.status.SetText(timer.Status)
	current.status.OnChanged = func(text string) {
		board.report(board.registry.SetStatus(id, text))
	}

	current.start = widget.NewButtonWithIcon("Start", theme.MediaPlayIcon(), func() {
		board.report(board.registry.Start(id))
		board.Refresh()
	})
	current.stop = widget.NewButtonWithIcon("Stop", theme.MediaStopIcon(), func() {
		board.report(board.registry.Stop(id))
		board.Refresh()
	})
	current.reset = widget.NewButtonWithIcon("Reset", theme.MediaReplayIcon(), func() {
		board.report(board.registry.Reset(id))
		board.Refresh()
	})

	buttons := container.NewHBox(current.start, current.stop, current.reset)
	current.card = widget.NewCard(fmt.Sprintf("Neuron %d", id), "",
		container.NewVBox(current.status, current.display, buttons))
	return current
}

func (board *Board) handleAdd() {
	if _, err := board.registry.Add(); err != nil {
		if errors.Is(err, stopwatch.ErrCapacityExceeded) {
			board.Notify(fmt.Sprintf("You can only have %d neurons", board.registry.Config().MaxTimers), widget.WarningImportance)
			return
		}
		board.report(err)
		return
	}
	board.Notify("Neuron added", widget.SuccessImportance)
	board.Refresh()
}

func (board *Board) handleClearHistory() {
	board.historySize = -1
	if err := board.registry.ClearHistory(); err != nil {
		board.report(err)
	} else {
		board.Notify("History cleared", widget.SuccessImportance)
	}
	board.Refresh()
}

func (board *Board) report(err error) {
	if err != nil {
		board.Notify(err.Error(), widget.DangerImportance)
	}
}
