package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/keepmind9/villabot/event"
	"github.com/keepmind9/villabot/internal/logger"
	"github.com/keepmind9/villabot/pkg/constants"
)

// Outcome is the HTTP-style result of one webhook request.
type Outcome struct {
	Status  int
	Retcode int
	Message string
}

// The platform retries on non-2xx responses, so only authentication
// failures reject; everything after a verified signature acknowledges.
var (
	outcomeSuccess  = Outcome{Status: 200, Retcode: 0, Message: "success"}
	outcomeRejected = Outcome{Status: 401, Retcode: 401, Message: "invalid signature"}
)

// Dispatcher drives webhook requests through lookup, verification,
// decoding, matching and handler execution. One dispatcher serves all
// bots in a registry; per-request state never crosses requests.
type Dispatcher struct {
	registry       *Registry
	handlerTimeout time.Duration

	wg sync.WaitGroup
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithHandlerTimeout overrides the per-handler execution timeout.
func WithHandlerTimeout(d time.Duration) DispatcherOption {
	return func(dp *Dispatcher) {
		if d > 0 {
			dp.handlerTimeout = d
		}
	}
}

// NewDispatcher creates a dispatcher over the given registry.
func NewDispatcher(registry *Registry, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		registry:       registry,
		handlerTimeout: constants.DefaultHandlerTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// HandleRequest processes one inbound webhook delivery and returns the
// outcome the HTTP boundary should answer with.
//
// Unknown bot IDs and invalid signatures produce the identical
// rejection, so callers cannot enumerate registered bots. Once the
// signature verifies, the request is acknowledged: a payload the
// platform signed but this version cannot decode is not the caller's
// fault and must not trigger upstream retries.
//
// By default decoding and handler execution continue on a background
// goroutine after the acknowledgment. With Identity.WaitUntilComplete
// they run before returning, still bounded by the per-handler timeout,
// so the response time stays bounded either way.
func (d *Dispatcher) HandleRequest(botID string, headers map[string]string, body []byte) Outcome {
	log := logger.WithFields(logrus.Fields{
		"dispatch_id": uuid.NewString(),
		"bot_id":      botID,
	})

	identity, handlers, ok := d.registry.Lookup(botID)
	if !ok {
		log.WithField("error", ErrUnknownBot).Warn("webhook-rejected-unknown-bot")
		return outcomeRejected
	}

	sign := headerValue(headers, constants.HeaderBotSign)
	if err := identity.VerifySignature(body, sign); err != nil {
		log.WithField("error", err).Warn("webhook-rejected-bad-signature")
		return outcomeRejected
	}

	if identity.WaitUntilComplete {
		d.dispatch(log, handlers, body)
		return outcomeSuccess
	}

	bodyCopy := append([]byte(nil), body...)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.dispatch(log, handlers, bodyCopy)
	}()
	return outcomeSuccess
}

// Wait blocks until every background dispatch has finished. Called on
// shutdown after the HTTP listener stops accepting requests.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// dispatch decodes the verified body and runs the matched handlers.
func (d *Dispatcher) dispatch(log *logrus.Entry, handlers []*Handler, body []byte) {
	ev, err := event.Decode(body)
	if err != nil {
		log.WithField("error", err).Warn("webhook-payload-malformed")
		return
	}
	log = log.WithFields(logrus.Fields{
		"event":    ev.Name(),
		"event_id": ev.GetMeta().ID,
	})

	matched := Match(ev, handlers)
	if len(matched) == 0 {
		log.Debug("event-matched-no-handlers")
		return
	}
	log.WithField("handlers", len(matched)).Info("event-dispatching")

	// Handlers of equal priority run concurrently; priority groups run
	// in order, so lower priorities observe their predecessors done.
	for start := 0; start < len(matched); {
		end := start + 1
		for end < len(matched) && matched[end].Priority == matched[start].Priority {
			end++
		}
		var wg sync.WaitGroup
		for _, h := range matched[start:end] {
			wg.Add(1)
			go func(h *Handler) {
				defer wg.Done()
				d.runHandler(log, h, ev)
			}(h)
		}
		wg.Wait()
		start = end
	}
	log.Info("event-handled")
}

// runHandler executes one handler action under its own timeout and
// error boundary. Failures are logged against the handler and never
// propagate: a broken handler must not stop its siblings or surface to
// the webhook caller.
func (d *Dispatcher) runHandler(log *logrus.Entry, h *Handler, ev event.Event) {
	if h.Action == nil {
		return
	}
	hlog := log.WithField("handler", h.Name)

	ctx, cancel := context.WithTimeout(context.Background(), d.handlerTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("handler panic: %v", r)
			}
		}()
		done <- h.Action(ctx, ev)
	}()

	select {
	case err := <-done:
		if err != nil {
			hlog.WithField("error", err).Error("handler-failed")
			return
		}
		hlog.Debug("handler-completed")
	case <-ctx.Done():
		// Best effort cancellation: the action keeps the cancelled
		// context, but the dispatcher stops waiting on it.
		hlog.WithField("timeout", d.handlerTimeout).Error("handler-timeout")
	}
}

// headerValue finds a header case-insensitively in a plain map, so the
// dispatcher does not depend on http.Header semantics at its boundary.
func headerValue(headers map[string]string, key string) string {
	if v, ok := headers[key]; ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}
