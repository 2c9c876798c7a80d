package action

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mattjoyce/niftyapes-action/internal/interaction"
	"github.com/mattjoyce/niftyapes-action/internal/signature"
)

// Messages sent back for protocol-level rejections. They never carry
// handler internals.
const (
	UnsupportedMessage  = "This interaction is not supported by this action."
	HandlerFaultMessage = "Something went wrong while handling this interaction."
)

// State is a step of the per-request pipeline.
type State int

const (
	StateReceived State = iota
	StateAuthenticated
	StateMatched
	StateHandled
	StateResponded
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateReceived:
		return "received"
	case StateAuthenticated:
		return "authenticated"
	case StateMatched:
		return "matched"
	case StateHandled:
		return "handled"
	case StateResponded:
		return "responded"
	case StateRejected:
		return "rejected"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Routable is what the controller needs from an action.
type Routable interface {
	Name() string
	Patterns() []interaction.Pattern
	Lookup(name string) (Handler, bool)
}

// Outcome is the single terminal result of processing one request.
type Outcome struct {
	// Status is the HTTP status the transport should use.
	Status int
	// Response is nil for transport-level rejections (400, 401).
	Response *interaction.Response
	// Err classifies rejections; nil on success.
	Err error
	// Path lists every state visited, in order.
	Path []State
	// Command is the routed name, if any.
	Command string
}

// State returns the terminal state.
func (o *Outcome) State() State {
	return o.Path[len(o.Path)-1]
}

func (o *Outcome) visit(s State) {
	o.Path = append(o.Path, s)
}

// Controller runs the fixed pipeline verify -> match -> dispatch -> respond
// for one action.
type Controller struct {
	action   Routable
	verifier *signature.Verifier
	logger   *slog.Logger
}

// NewController creates a controller for action using verifier.
func NewController(action Routable, verifier *signature.Verifier, logger *slog.Logger) *Controller {
	return &Controller{
		action:   action,
		verifier: verifier,
		logger:   logger.With("action", action.Name()),
	}
}

// Verifier returns the verifier used for the authentication step.
func (c *Controller) Verifier() *signature.Verifier {
	return c.verifier
}

// Process authenticates, routes and handles one request. It never returns a
// partial result and never retries.
func (c *Controller) Process(ctx context.Context, body []byte, env signature.Envelope) *Outcome {
	out := &Outcome{Path: []State{StateReceived}}

	if err := c.verifier.Verify(body, env); err != nil {
		out.Err = err
		out.Status = http.StatusUnauthorized
		if errors.Is(err, signature.ErrMissingCredential) {
			out.Status = http.StatusBadRequest
		}
		c.logger.Warn("interaction rejected", "reason", err.Error(), "scheme", c.verifier.Scheme().Name())
		out.visit(StateRejected)
		return out
	}
	out.visit(StateAuthenticated)

	req, err := interaction.ParseRequest(body)
	if err != nil {
		out.Err = err
		out.Status = http.StatusBadRequest
		c.logger.Warn("interaction rejected", "reason", err.Error())
		out.visit(StateRejected)
		return out
	}
	in := req.Interaction

	if in.IsPing() {
		out.visit(StateMatched)
		out.Status = http.StatusOK
		out.Response = interaction.Pong()
		out.visit(StateResponded)
		return out
	}

	name := in.Name().OrEmpty()
	out.Command = name
	handler, ok := c.action.Lookup(name)
	if !interaction.Match(c.action.Patterns(), in) || !ok {
		out.Err = fmt.Errorf("%w: type=%s name=%q", ErrUnsupportedInteraction, in.Type, name)
		out.Status = http.StatusOK
		out.Response = interaction.BuildSimpleResponse(UnsupportedMessage, true)
		c.logger.Info("interaction not supported", "type", in.Type.String(), "name", name)
		out.visit(StateRejected)
		return out
	}
	out.visit(StateMatched)

	reply, err := c.invoke(ctx, handler, req)
	if err == nil && reply.empty() {
		err = errEmptyReply
	}
	if err != nil {
		out.Err = fmt.Errorf("%w: %s: %w", ErrHandlerFault, name, err)
		out.Status = http.StatusOK
		out.Response = interaction.BuildSimpleResponse(HandlerFaultMessage, true)
		c.logger.Error("handler failed", "command", name, "error", err)
		out.visit(StateRejected)
		return out
	}
	out.visit(StateHandled)

	out.Status = http.StatusOK
	out.Response = reply.toResponse()
	out.visit(StateResponded)
	c.logger.Debug("interaction handled", "command", name, "interaction_id", in.ID)
	return out
}

// invoke calls the handler exactly once, converting a panic into an error.
func (c *Controller) invoke(ctx context.Context, h Handler, req *interaction.Request) (reply Reply, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h.Handle(ctx, req)
}
