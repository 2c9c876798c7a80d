package action_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/niftyapes-action/internal/action"
	"github.com/mattjoyce/niftyapes-action/internal/action/mocks"
	"github.com/mattjoyce/niftyapes-action/internal/interaction"
	"github.com/mattjoyce/niftyapes-action/internal/signature"
)

const testSecret = "test-secret"

func newTestLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(handler), &buf
}

type harness struct {
	controller *action.Controller
	signer     signature.Signer
	logs       *bytes.Buffer
}

func newHarness(t *testing.T, buy action.Handler) *harness {
	t.Helper()

	a, err := action.New(action.Definition{
		Name: "shop",
		Patterns: []interaction.Pattern{
			{Type: discordgo.InteractionApplicationCommand, Names: []string{"buy"}},
		},
		Commands: []interaction.CommandSpec{
			{Name: "buy", Type: discordgo.ChatApplicationCommand, Description: "Buy things"},
		},
		Handlers: map[string]action.Handler{"buy": buy},
	})
	require.NoError(t, err)

	scheme, err := signature.NewHMACScheme(testSecret, nil)
	require.NoError(t, err)
	signer, err := signature.NewHMACSigner(testSecret, "", signature.AlgSHA256)
	require.NoError(t, err)

	logger, logs := newTestLogger()
	return &harness{
		controller: action.NewController(a, signature.NewVerifier(scheme), logger),
		signer:     signer,
		logs:       logs,
	}
}

func (h *harness) sign(t *testing.T, body []byte) signature.Envelope {
	t.Helper()
	hdr := http.Header{}
	require.NoError(t, signature.SignRequest(hdr, h.signer, body, time.Now()))
	return h.controller.Verifier().ReadEnvelope(hdr)
}

func TestProcess_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	buy := mocks.NewMockHandler(ctrl)
	h := newHarness(t, buy)

	body := []byte(`{"interaction":{"id":"1","type":2,"data":{"name":"buy"}},"context":{"wallet":"0xabc"}}`)
	buy.EXPECT().Handle(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, req *interaction.Request) (action.Reply, error) {
		assert.Equal(t, "buy", req.Interaction.Name().OrEmpty())
		assert.JSONEq(t, `{"wallet":"0xabc"}`, string(req.Context))
		return action.EphemeralText("Buy on niftyapes.money"), nil
	}).Times(1)

	out := h.controller.Process(context.Background(), body, h.sign(t, body))

	require.NoError(t, out.Err)
	assert.Equal(t, http.StatusOK, out.Status)
	assert.Equal(t, "buy", out.Command)
	assert.Equal(t, []action.State{
		action.StateReceived, action.StateAuthenticated, action.StateMatched, action.StateHandled, action.StateResponded,
	}, out.Path)
	assert.Equal(t, action.StateResponded, out.State())
	require.NotNil(t, out.Response)
	assert.Equal(t, "Buy on niftyapes.money", out.Response.Data.Content)
	assert.True(t, out.Response.IsEphemeral())
}

func TestProcess_Ping(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := newHarness(t, mocks.NewMockHandler(ctrl))
	body := []byte(`{"interaction":{"id":"1","type":1}}`)

	out := h.controller.Process(context.Background(), body, h.sign(t, body))

	require.NoError(t, out.Err)
	assert.Equal(t, http.StatusOK, out.Status)
	assert.Equal(t, interaction.Pong(), out.Response)
	assert.Equal(t, []action.State{
		action.StateReceived, action.StateAuthenticated, action.StateMatched, action.StateResponded,
	}, out.Path)
}

func TestProcess_AuthenticationFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := newHarness(t, mocks.NewMockHandler(ctrl))
	body := []byte(`{"interaction":{"id":"1","type":2,"data":{"name":"buy"}}}`)
	valid := h.sign(t, body)

	type authCase struct {
		name    string
		env     signature.Envelope
		body    []byte
		status  int
		wantErr error
	}
	tests := []authCase{
		{
			name:    "missing signature",
			env:     signature.Envelope{Timestamp: valid.Timestamp},
			body:    body,
			status:  http.StatusBadRequest,
			wantErr: signature.ErrMissingCredential,
		},
		{
			name:    "missing timestamp",
			env:     signature.Envelope{Signature: valid.Signature},
			body:    body,
			status:  http.StatusBadRequest,
			wantErr: signature.ErrMissingCredential,
		},
		{
			name:    "dummy signature",
			env:     signature.Envelope{Signature: "dummy-signature", Timestamp: valid.Timestamp},
			body:    body,
			status:  http.StatusUnauthorized,
			wantErr: signature.ErrInvalidSignature,
		},
		{
			name:    "tampered body",
			env:     valid,
			body:    []byte(`{"interaction":{"id":"1","type":2,"data":{"name":"sell"}}}`),
			status:  http.StatusUnauthorized,
			wantErr: signature.ErrInvalidSignature,
		},
	}

	missing := map[string]signature.Envelope{
		"signature": {Timestamp: valid.Timestamp},
		"timestamp": {Signature: valid.Signature},
		"both":      {},
	}
	bodies := map[string][]byte{
		"not json":  []byte(`not json`),
		"empty":     {},
		"nil":       nil,
		"oversized": bytes.Repeat([]byte("x"), 1<<20),
	}
	for header, env := range missing {
		for kind, b := range bodies {
			tests = append(tests, authCase{
				name:    "missing " + header + " with " + kind + " body",
				env:     env,
				body:    b,
				status:  http.StatusBadRequest,
				wantErr: signature.ErrMissingCredential,
			})
		}
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h.logs.Reset()
			out := h.controller.Process(context.Background(), tt.body, tt.env)

			assert.Equal(t, tt.status, out.Status)
			assert.True(t, errors.Is(out.Err, tt.wantErr))
			assert.Nil(t, out.Response)
			assert.Equal(t, []action.State{action.StateReceived, action.StateRejected}, out.Path)
			assert.Contains(t, h.logs.String(), "interaction rejected")
			assert.NotContains(t, h.logs.String(), testSecret)
		})
	}
}

func TestProcess_MalformedBody(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := newHarness(t, mocks.NewMockHandler(ctrl))

	for _, body := range [][]byte{
		[]byte(`not json`),
		[]byte(`{}`),
		[]byte(`{"interaction":{"id":"1"}}`),
	} {
		out := h.controller.Process(context.Background(), body, h.sign(t, body))
		assert.Equal(t, http.StatusBadRequest, out.Status, string(body))
		assert.True(t, errors.Is(out.Err, interaction.ErrMalformedRequest))
		assert.Equal(t, []action.State{action.StateReceived, action.StateAuthenticated, action.StateRejected}, out.Path)
	}
}

func TestProcess_Unsupported(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// No EXPECT: the handler must never run.
	h := newHarness(t, mocks.NewMockHandler(ctrl))

	for _, body := range [][]byte{
		[]byte(`{"interaction":{"id":"1","type":2,"data":{"name":"sell"}}}`),
		[]byte(`{"interaction":{"id":"1","type":3,"data":{"custom_id":"buy","component_type":2}}}`),
		[]byte(`{"interaction":{"id":"1","type":2,"data":{}}}`),
	} {
		out := h.controller.Process(context.Background(), body, h.sign(t, body))

		assert.Equal(t, http.StatusOK, out.Status, string(body))
		assert.True(t, errors.Is(out.Err, action.ErrUnsupportedInteraction))
		require.NotNil(t, out.Response)
		assert.Equal(t, action.UnsupportedMessage, out.Response.Data.Content)
		assert.True(t, out.Response.IsEphemeral())
		assert.Equal(t, []action.State{action.StateReceived, action.StateAuthenticated, action.StateRejected}, out.Path)
	}
}

func TestProcess_HandlerFault(t *testing.T) {
	t.Run("error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		buy := mocks.NewMockHandler(ctrl)
		h := newHarness(t, buy)
		buy.EXPECT().Handle(gomock.Any(), gomock.Any()).Return(action.Reply{}, errors.New("upstream down")).Times(1)

		body := []byte(`{"interaction":{"id":"1","type":2,"data":{"name":"buy"}}}`)
		out := h.controller.Process(context.Background(), body, h.sign(t, body))

		assert.Equal(t, http.StatusOK, out.Status)
		assert.True(t, errors.Is(out.Err, action.ErrHandlerFault))
		assert.Equal(t, action.HandlerFaultMessage, out.Response.Data.Content)
		assert.NotContains(t, out.Response.Data.Content, "upstream down")
		assert.Equal(t, []action.State{
			action.StateReceived, action.StateAuthenticated, action.StateMatched, action.StateRejected,
		}, out.Path)
		assert.Contains(t, h.logs.String(), "upstream down")
	})

	t.Run("panic", func(t *testing.T) {
		calls := 0
		h := newHarness(t, action.HandlerFunc(func(context.Context, *interaction.Request) (action.Reply, error) {
			calls++
			panic("boom")
		}))

		body := []byte(`{"interaction":{"id":"1","type":2,"data":{"name":"buy"}}}`)
		out := h.controller.Process(context.Background(), body, h.sign(t, body))

		assert.Equal(t, 1, calls)
		assert.Equal(t, http.StatusOK, out.Status)
		assert.True(t, errors.Is(out.Err, action.ErrHandlerFault))
		assert.Equal(t, action.StateRejected, out.State())
	})

	t.Run("empty reply", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		buy := mocks.NewMockHandler(ctrl)
		h := newHarness(t, buy)
		buy.EXPECT().Handle(gomock.Any(), gomock.Any()).Return(action.Reply{Ephemeral: true}, nil).Times(1)

		body := []byte(`{"interaction":{"id":"1","type":2,"data":{"name":"buy"}}}`)
		out := h.controller.Process(context.Background(), body, h.sign(t, body))

		assert.Equal(t, http.StatusOK, out.Status)
		assert.True(t, errors.Is(out.Err, action.ErrHandlerFault))
		require.NotNil(t, out.Response)
		assert.Equal(t, action.HandlerFaultMessage, out.Response.Data.Content)
		assert.True(t, out.Response.IsEphemeral())
		assert.Equal(t, action.StateRejected, out.State())
	})
}
