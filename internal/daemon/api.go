package daemon

import (
	"context"
	"sync"

	"statusd/internal/broadcast"
	"statusd/internal/logging"
)

type API struct {
	Version     string
	Broadcaster *broadcast.Broadcaster
	Power       PowerController
	Metrics     *Metrics
	Shutdown    func(context.Context) error
	Logger      logging.Logger

	streamsOnce sync.Once
	closeOnce   sync.Once
	closing     chan struct{}
}

func (a *API) logger() logging.Logger {
	if a.Logger == nil {
		return logging.Nop()
	}
	return a.Logger
}

// streamsDone is closed when long-lived subscriber connections must end.
// http.Server.Shutdown neither cancels streaming requests nor closes
// hijacked connections.
func (a *API) streamsDone() <-chan struct{} {
	return a.closingChan()
}

func (a *API) closingChan() chan struct{} {
	a.streamsOnce.Do(func() {
		a.closing = make(chan struct{})
	})
	return a.closing
}

// CloseStreams ends every open WebSocket and SSE subscriber connection.
// It is safe to call more than once.
func (a *API) CloseStreams() {
	done := a.closingChan()
	a.closeOnce.Do(func() {
		close(done)
	})
}
