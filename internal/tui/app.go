// Package tui is the terminal UI shell. It renders engine snapshots and
// feeds operator input back into the engine; all data mutations live in
// internal/inbox.
package tui

import (
	"context"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/kedar94c/whatsapp-crm-frontend/internal/backend"
	"github.com/kedar94c/whatsapp-crm-frontend/internal/bus"
	"github.com/kedar94c/whatsapp-crm-frontend/internal/cache"
	"github.com/kedar94c/whatsapp-crm-frontend/internal/config"
	"github.com/kedar94c/whatsapp-crm-frontend/internal/inbox"
	"github.com/kedar94c/whatsapp-crm-frontend/internal/status"
	"github.com/kedar94c/whatsapp-crm-frontend/internal/tui/keys"
	"github.com/kedar94c/whatsapp-crm-frontend/internal/tui/views"
)

// ProfileFetcher loads the business profile used for the status bar and
// timezone rendering.
type ProfileFetcher interface {
	FetchBusinessProfile(ctx context.Context) (backend.Profile, error)
}

// Params collects everything the shell needs.
type Params struct {
	Engine      *inbox.Engine
	Bus         *bus.Bus
	Cache       *cache.DB
	Profiles    ProfileFetcher
	Config      *config.Config
	ProfileName string
	Logger      *zap.Logger
}

// App is the main TUI application shell.
type App struct {
	app      *tview.Application
	pages    *tview.Pages
	engine   *inbox.Engine
	bus      *bus.Bus
	cache    *cache.DB
	profiles ProfileFetcher
	cfg      *config.Config
	logger   *zap.Logger

	registry  *keys.Registry
	statusBar *views.StatusBar
	inboxList *views.InboxList
	thread    *views.Thread
	composer  *views.Composer

	flash flash
	open  string // customer ID of the open conversation, "" on the inbox page

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp creates the TUI application.
func NewApp(p Params) *App {
	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		app:       tview.NewApplication(),
		pages:     tview.NewPages(),
		engine:    p.Engine,
		bus:       p.Bus,
		cache:     p.Cache,
		profiles:  p.Profiles,
		cfg:       p.Config,
		logger:    p.Logger,
		registry:  keys.NewRegistry(),
		statusBar: views.NewStatusBar(),
		inboxList: views.NewInboxList(),
		thread:    views.NewThread(),
		composer:  views.NewComposer(),
		ctx:       ctx,
		cancel:    cancel,
	}

	a.statusBar.SetProfile(p.ProfileName)
	a.statusBar.SetFeedState(strings.ToLower(string(status.Booting)))
	a.setLocation(time.Local)
	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()

	return a
}

func (a *App) setLocation(loc *time.Location) {
	a.inboxList.SetLocation(loc)
	a.thread.SetLocation(loc)
}

func (a *App) setupBindings() {
	a.registry.AddGlobal(&keys.Action{
		Rune: 'q', Key: tcell.KeyRune,
		Description: "q:quit", Visible: true,
		Handler: func() { a.app.Stop() },
	})
	a.registry.AddView("thread", &keys.Action{
		Rune: 'r', Key: tcell.KeyRune,
		Description: "r:retry", Visible: true,
		Handler: func() {
			if id := a.thread.LastFailedID(); id != "" {
				a.engine.RetryFailedMessage(id)
			}
		},
	})
	a.registry.AddView("thread", &keys.Action{
		Rune: 'G', Key: tcell.KeyRune,
		Description: "G:bottom", Visible: true,
		Handler: func() {
			a.thread.ScrollToEnd()
			a.engine.OnScrolledToBottom()
		},
	})
	a.registry.AddView("thread", &keys.Action{
		Key:         tcell.KeyEnd,
		Description: "end:bottom", Visible: false,
		Handler: func() {
			a.thread.ScrollToEnd()
			a.engine.OnScrolledToBottom()
		},
	})
}

func (a *App) setupCallbacks() {
	a.inboxList.SetSelectedFunc(func(row, col int) {
		if id := a.inboxList.SelectedCustomer(); id != "" {
			a.openConversation(id)
		}
	})

	a.composer.SetOnSend(func(text string) {
		if a.open == "" {
			return
		}
		a.engine.SubmitOutgoingMessage(text)
	})
}

func (a *App) setupLayout() {
	threadFlex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.thread, 0, 1, false).
		AddItem(a.composer, 1, 0, false)

	a.pages.AddPage("inbox", a.inboxList, true, true)
	a.pages.AddPage("thread", threadFlex, true, false)

	root := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.statusBar, 1, 0, false)

	a.app.SetRoot(root, true)

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		currentPage, _ := a.pages.GetFrontPage()

		if event.Key() == tcell.KeyEscape && currentPage == "thread" {
			a.closeConversation()
			return nil
		}

		// Let text input widgets handle all keys normally.
		focused := a.app.GetFocus()
		if _, ok := focused.(*tview.InputField); ok {
			return event
		}

		// 'i' focuses the composer (only when not already in an input field).
		if currentPage == "thread" && event.Key() == tcell.KeyRune && event.Rune() == 'i' {
			a.app.SetFocus(a.composer.InputField)
			return nil
		}

		if a.registry.HandleEvent(currentPage, event) {
			return nil
		}

		return event
	})
}

func (a *App) openConversation(customerID string) {
	a.open = customerID
	a.thread.SetCustomerName(a.inboxList.NameFor(customerID))
	a.thread.ShowLoading()
	a.pages.SwitchToPage("thread")
	a.app.SetFocus(a.composer.InputField)
	a.statusBar.SetHints(a.registry.Hints("thread"))

	a.engine.SelectConversation(customerID)
	go a.paintCachedHistory(customerID)
}

// paintCachedHistory fills the loading thread with the previous session's
// messages for this customer. The engine's fresh fetch overwrites it; the
// cached view only bridges the gap.
func (a *App) paintCachedHistory(customerID string) {
	if a.cache == nil {
		return
	}
	msgs, err := a.cache.ListMessages(customerID)
	if err != nil {
		a.logger.Warn("cached history read failed", zap.Error(err))
		return
	}
	if len(msgs) == 0 {
		return
	}
	a.app.QueueUpdateDraw(func() {
		if a.open != customerID || !a.thread.Loading() {
			return
		}
		a.thread.Update(msgs)
	})
}

func (a *App) closeConversation() {
	a.open = ""
	a.pages.SwitchToPage("inbox")
	a.app.SetFocus(a.inboxList)
	a.statusBar.SetHints(a.registry.Hints("inbox"))

	a.engine.SelectConversation("")
}

// Run starts the TUI and blocks until the operator quits.
func (a *App) Run() error {
	a.warmStart()
	go a.eventLoop()
	go a.loadBusinessProfile()
	go a.clockLoop()

	a.statusBar.SetHints(a.registry.Hints("inbox"))
	return a.app.Run()
}

// warmStart seeds the inbox from the on-disk cache so the operator sees the
// previous session's conversations before the first fetch lands.
func (a *App) warmStart() {
	if a.cache == nil {
		return
	}
	sums, err := a.cache.ListCustomers()
	if err != nil {
		a.logger.Warn("warm start failed", zap.Error(err))
		return
	}
	if len(sums) == 0 {
		return
	}
	unread := make(map[string]bool)
	for _, s := range sums {
		if s.Unread() {
			unread[s.CustomerID] = true
		}
	}
	a.inboxList.Update(sums, unread)
}

// eventLoop applies bus events to the views. All widget mutation goes
// through QueueUpdateDraw since tview is not goroutine safe.
func (a *App) eventLoop() {
	inboxCh, cancelInbox := a.bus.Subscribe("inbox.", 64)
	defer cancelInbox()
	timelineCh, cancelTimeline := a.bus.Subscribe("timeline.", 64)
	defer cancelTimeline()
	feedCh, cancelFeed := a.bus.Subscribe("feed.", 16)
	defer cancelFeed()

	for {
		select {
		case evt := <-inboxCh:
			a.handleInboxEvent(evt)
		case evt := <-timelineCh:
			a.handleTimelineEvent(evt)
		case evt := <-feedCh:
			if change, ok := evt.Payload.(status.StatusChange); ok {
				a.app.QueueUpdateDraw(func() {
					a.statusBar.SetFeedState(strings.ToLower(string(change.To)))
				})
			}
		case <-a.ctx.Done():
			return
		}
	}
}

func (a *App) handleInboxEvent(evt bus.Event) {
	switch evt.Kind {
	case bus.KindInboxUpdated:
		snap := a.engine.Snapshot()
		a.app.QueueUpdateDraw(func() {
			a.inboxList.Update(snap.Summaries, snap.Unread)
		})
	case bus.KindSendFailed:
		if fail, ok := evt.Payload.(inbox.SendFailure); ok {
			a.flash.set("Send failed: "+fail.Err, 5*time.Second)
			a.app.QueueUpdateDraw(func() {
				a.statusBar.SetFlash(a.flash.get())
			})
		}
	}
}

func (a *App) handleTimelineEvent(evt bus.Event) {
	tu, ok := evt.Payload.(inbox.TimelineUpdate)
	if !ok || tu.CustomerID == "" {
		return
	}
	// a.open is owned by the UI goroutine, so the check happens inside the
	// queued closure.
	a.app.QueueUpdateDraw(func() {
		if tu.CustomerID != a.open {
			return
		}
		a.thread.Update(tu.Messages)
		// The thread auto-scrolls to the newest message, so anything that
		// just arrived is on screen.
		a.engine.OnScrolledToBottom()
	})
}

func (a *App) loadBusinessProfile() {
	tz := a.cfg.Timezone

	if a.profiles != nil {
		ctx, cancel := context.WithTimeout(a.ctx, 10*time.Second)
		defer cancel()
		prof, err := a.profiles.FetchBusinessProfile(ctx)
		if err != nil {
			a.logger.Warn("business profile fetch failed", zap.Error(err))
		} else {
			if prof.Timezone != "" {
				tz = prof.Timezone
			}
			a.app.QueueUpdateDraw(func() {
				a.statusBar.SetBusiness(prof.BusinessName)
			})
		}
	}

	if tz == "" {
		return
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		a.logger.Warn("bad timezone, using local", zap.String("tz", tz), zap.Error(err))
		return
	}
	a.app.QueueUpdateDraw(func() {
		a.setLocation(loc)
	})
}

// clockLoop refreshes the status bar clock and expires flash messages.
func (a *App) clockLoop() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			a.app.QueueUpdateDraw(func() {
				a.statusBar.SetFlash(a.flash.get())
			})
		case <-a.ctx.Done():
			return
		}
	}
}

// Stop gracefully shuts down the TUI.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}
