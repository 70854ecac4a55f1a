package console

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/lowaak/liftsession/internal/safego"
)

// BaseUIView contains the base logic shared by all UI implementations
type BaseUIView struct {
	uiViewImpl   UIViewImpl
	uiModel      *UIModel
	uiController *UIController
	context      context.Context
	cancelFunc   context.CancelFunc
	waitGroup    sync.WaitGroup
	logger       *log.Logger
}

// NewBaseUIViewArg holds the arguments for creating a new BaseUIView
type NewBaseUIViewArg struct {
	UIViewImpl   UIViewImpl
	UIModel      *UIModel
	UIController *UIController
	Logger       *log.Logger
}

// NewBaseUIView creates a new BaseUIView with the given implementation
func NewBaseUIView(args NewBaseUIViewArg) *BaseUIView {
	if args.Logger == nil {
		panic("BaseUIView: logger cannot be nil")
	}
	if args.UIViewImpl == nil {
		panic("BaseUIView: UIViewImpl cannot be nil")
	}
	if args.UIModel == nil {
		panic("BaseUIView: UIModel cannot be nil")
	}
	if args.UIController == nil {
		panic("BaseUIView: UIController cannot be nil")
	}
	ctx, cancel := context.WithCancel(context.Background())

	base := &BaseUIView{
		uiViewImpl:   args.UIViewImpl,
		uiModel:      args.UIModel,
		uiController: args.UIController,
		context:      ctx,
		cancelFunc:   cancel,
		logger:       args.Logger,
	}

	args.UIViewImpl.Initialize(args.UIController)
	args.UIViewImpl.SetupKeyboardHandlers(args.UIController)
	args.UIViewImpl.SetMode(args.UIModel.GetUIState().Mode)
	args.UIViewImpl.SetPlan(args.UIModel.Workout())
	args.UIViewImpl.UpdateSessionState(args.UIModel.GetSessionState())
	args.UIViewImpl.UpdateTimer(args.UIModel.GetTimerView())

	safego.GoWait(base.logger, &base.waitGroup, "BaseUIView.monitorLogResize", base.monitorLogResize)
	base.updateLogDisplay()

	base.setupEventListeners()

	return base
}

// listen runs onSignal for every value received on ch until the view shuts down.
// Values only signal a change: handlers re-read the model so a dropped
// notification never leaves the screen stale.
func listen[T any](base *BaseUIView, name string, subscribe func(chan<- T) func(), onSignal func()) {
	ch := make(chan T, 1)
	unsubscribe := subscribe(ch)
	safego.GoWait(base.logger, &base.waitGroup, name, func() {
		defer unsubscribe()
		for {
			select {
			case <-base.context.Done():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				onSignal()
			}
		}
	})
}

func (base *BaseUIView) setupEventListeners() {
	listen(base, "BaseUIView.log", base.uiModel.ListenToLog, func() {
		// When a new log arrives, update the display to show the tail
		base.updateLogDisplay()
		base.draw()
	})

	listen(base, "BaseUIView.session", base.uiModel.ListenToSessionState, func() {
		base.uiViewImpl.UpdateSessionState(base.uiModel.GetSessionState())
		base.draw()
	})

	listen(base, "BaseUIView.timer", base.uiModel.ListenToTimer, func() {
		base.uiViewImpl.UpdateTimer(base.uiModel.GetTimerView())
		base.draw()
	})

	listen(base, "BaseUIView.uiState", base.uiModel.ListenToUIState, func() {
		base.uiViewImpl.SetMode(base.uiModel.GetUIState().Mode)
		base.draw()
	})

	// Listen to close application event from model
	closeChan := make(chan struct{}, 1)
	closeUnregister := base.uiModel.ListenToCloseApplication(closeChan)
	safego.GoWait(base.logger, &base.waitGroup, "BaseUIView.close", func() {
		defer closeUnregister()
		select {
		case <-base.context.Done():
			return
		case _, ok := <-closeChan:
			if !ok {
				return
			}
			base.uiViewImpl.Stop()
		}
	})
}

func (base *BaseUIView) draw() {
	if err := base.uiViewImpl.Draw(); err != nil {
		base.logger.Printf("BaseUIView: Error drawing: %v", err)
	}
}

func (base *BaseUIView) updateLogDisplay() {
	height := base.uiViewImpl.GetLogViewHeight()
	if height <= 0 {
		return
	}

	logLines := base.uiModel.GetLogTail(height)

	base.uiViewImpl.ClearLogView()
	for _, line := range logLines {
		if err := base.uiViewImpl.WriteLogLine(line); err != nil {
			base.logger.Printf("BaseUIView: Error writing to log view: %v", err)
		}
	}
}

func (base *BaseUIView) monitorLogResize() {
	var lastHeight int
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-base.context.Done():
			return
		case <-ticker.C:
			height := base.uiViewImpl.GetLogViewHeight()
			if height != lastHeight && height > 0 {
				lastHeight = height
				base.updateLogDisplay()
				base.draw()
			}
		}
	}
}

// Shutdown stops all goroutines and waits for them to finish
func (base *BaseUIView) Shutdown() {
	base.logger.Println("BaseUIView: Shutting down")
	base.cancelFunc()
	base.waitGroup.Wait()
	base.logger.Println("BaseUIView: Shutdown complete")
}

// Run starts the UI and blocks until it exits
func (base *BaseUIView) Run() error {
	return base.uiViewImpl.Run()
}
