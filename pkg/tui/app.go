package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/marchholm/sage/pkg/attachments"
	"github.com/marchholm/sage/pkg/controllers"
	"github.com/marchholm/sage/pkg/logger"
)

// App owns the terminal session: the tcell screen, the chat controller,
// and the attachment manager. All drawing happens on the event loop
// goroutine; background work requests a repaint by posting an interrupt
// event.
type App struct {
	screen      tcell.Screen
	controller  *controllers.ChatController
	attachments *attachments.Manager
	view        *ChatView

	quit chan struct{}
}

// NewApp wires the controller and attachment manager into a terminal app
func NewApp(controller *controllers.ChatController, attach *attachments.Manager, tokenLimit int) (*App, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize screen: %w", err)
	}

	app := &App{
		screen:      screen,
		controller:  controller,
		attachments: attach,
		view:        NewChatView(controller, attach, tokenLimit),
		quit:        make(chan struct{}),
	}

	controller.SetHooks(controllers.Hooks{
		OnChunk:              func(string) { app.requestRedraw() },
		OnError:              func(string) { app.requestRedraw() },
		OnComplete:           func(string) { app.requestRedraw() },
		OnConversationChange: func(*int64) { app.requestRedraw() },
	})

	return app, nil
}

// Run drives the event loop until the user quits
func (a *App) Run() error {
	defer a.screen.Fini()

	width, height := a.screen.Size()
	a.view.Resize(width, height)

	// Adopt the most recent conversation in the background so startup
	// never blocks on the network
	go func() {
		if err := a.controller.LoadLatest(); err == nil {
			a.requestRedraw()
		}
	}()

	a.draw()

	for {
		select {
		case <-a.quit:
			return nil
		default:
		}

		switch ev := a.screen.PollEvent().(type) {
		case *tcell.EventResize:
			width, height := ev.Size()
			a.view.Resize(width, height)
			a.screen.Sync()
			a.draw()
		case *tcell.EventInterrupt:
			a.draw()
		case *tcell.EventKey:
			if a.handleKey(ev) {
				return nil
			}
			a.draw()
		}
	}
}

// handleKey processes one key event, returning true when the app should
// exit
func (a *App) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyCtrlC:
		return true
	case tcell.KeyEscape:
		a.controller.Stop()
	case tcell.KeyCtrlN:
		a.controller.NewChat()
		a.attachments.ClearAll()
	case tcell.KeyEnter:
		a.submit()
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		a.view.SetInput(a.view.Input().DeleteBackward())
	case tcell.KeyLeft:
		a.view.SetInput(a.view.Input().MoveLeft())
	case tcell.KeyRight:
		a.view.SetInput(a.view.Input().MoveRight())
	case tcell.KeyHome, tcell.KeyCtrlA:
		a.view.SetInput(a.view.Input().MoveHome())
	case tcell.KeyCtrlE, tcell.KeyEnd:
		a.view.SetInput(a.view.Input().MoveEnd())
	case tcell.KeyCtrlU:
		a.view.SetInput(a.view.Input().Clear())
	case tcell.KeyPgUp:
		a.view.ScrollUp(5)
	case tcell.KeyPgDn:
		a.view.ScrollDown(5)
	case tcell.KeyRune:
		a.view.SetInput(a.view.Input().InsertRune(ev.Rune()))
	}
	return false
}

// submit dispatches the current input line. Slash commands are handled
// locally; anything else becomes a chat message sent on its own
// goroutine so the loop keeps painting chunks.
func (a *App) submit() {
	text := strings.TrimSpace(a.view.Input().String())
	if text == "" {
		return
	}
	a.view.SetInput(a.view.Input().Clear())

	if strings.HasPrefix(text, "/") {
		a.runCommand(text)
		return
	}

	go func() {
		if err := a.controller.Send(text); err != nil {
			logger.Debug("Send returned: %v", err)
		}
		a.requestRedraw()
	}()
}

func (a *App) runCommand(text string) {
	fields := strings.Fields(text)
	switch fields[0] {
	case "/new":
		a.controller.NewChat()
		a.attachments.ClearAll()
	case "/attach":
		if len(fields) < 2 {
			return
		}
		a.attachFile(strings.TrimSpace(strings.TrimPrefix(text, "/attach")))
	case "/detach":
		if len(fields) < 2 {
			return
		}
		a.detachFile(fields[1])
	case "/open":
		if len(fields) < 2 {
			return
		}
		id, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return
		}
		go func() {
			if err := a.controller.SelectConversation(id); err == nil {
				a.requestRedraw()
			}
		}()
	case "/quit":
		close(a.quit)
		// PollEvent is blocking; wake it up
		a.screen.PostEvent(tcell.NewEventInterrupt(nil))
	}
}

// attachFile reads a local file and hands it to the attachment manager,
// which uploads in the background
func (a *App) attachFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("Unable to read attachment %s: %v", path, err)
		return
	}
	if _, err := a.attachments.Add(context.Background(), filepath.Base(path), data); err != nil {
		logger.Warn("Unable to attach %s: %v", path, err)
	}
}

// detachFile removes an attachment by filename or handle
func (a *App) detachFile(name string) {
	for _, att := range a.attachments.List() {
		if att.Filename == name || att.Handle == name {
			a.attachments.Remove(att.Handle)
			return
		}
	}
}

func (a *App) draw() {
	a.view.Draw(a.screen)
	a.screen.Show()
}

// requestRedraw schedules a repaint from any goroutine
func (a *App) requestRedraw() {
	a.screen.PostEvent(tcell.NewEventInterrupt(nil))
}
