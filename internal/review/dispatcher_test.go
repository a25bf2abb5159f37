package review

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/sync/errgroup"

	"github.com/sevigo/code-lens/internal/core"
	"github.com/sevigo/code-lens/internal/prompt"
	"github.com/sevigo/code-lens/mocks"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newPrompts(t *testing.T) *prompt.Manager {
	t.Helper()
	pm, err := prompt.NewManager()
	require.NoError(t, err)
	return pm
}

func newMockProvider(ctrl *gomock.Controller, name string, tier core.Tier) *mocks.MockProvider {
	p := mocks.NewMockProvider(ctrl)
	p.EXPECT().Name().Return(name).AnyTimes()
	p.EXPECT().Tier().Return(tier).AnyTimes()
	return p
}

var testFallback = Fallback{Model: "codellama", URL: "http://localhost:11434"}

func TestSubmitReview_Validation(t *testing.T) {
	ctrl := gomock.NewController(t)
	remote := newMockProvider(ctrl, "openai", core.TierRemote)
	local := newMockProvider(ctrl, "ollama-exec", core.TierLocal)
	// No Review expectations: any provider call fails the test.

	d := NewDispatcher(newPrompts(t), []Step{{Provider: remote}, {Provider: local}}, testFallback, discardLogger())

	out, err := d.SubmitReview(context.Background(), "", "go")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrValidation)
	assert.Empty(t, out)
}

func TestSubmitReview_WhitespaceCodeIsReviewed(t *testing.T) {
	ctrl := gomock.NewController(t)
	local := newMockProvider(ctrl, "ollama-exec", core.TierLocal)
	local.EXPECT().Review(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, p core.Prompt) (string, error) {
			assert.Contains(t, p.User, "```go\n   \n```")
			return "Nothing to review.", nil
		})

	d := NewDispatcher(newPrompts(t), []Step{{Provider: local}}, testFallback, discardLogger())

	out, err := d.SubmitReview(context.Background(), "   ", "go")
	require.NoError(t, err)
	assert.Equal(t, "Nothing to review.", out)
}

func TestSubmitReview_RemoteSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	remote := newMockProvider(ctrl, "openai", core.TierRemote)
	local := newMockProvider(ctrl, "ollama-exec", core.TierLocal)

	remote.EXPECT().Review(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, p core.Prompt) (string, error) {
			assert.Contains(t, p.User, "```python\nprint('hi')\n```")
			assert.Contains(t, p.System, "code reviewer")
			return "## Review\n\nraw *markdown*  \n", nil
		})

	d := NewDispatcher(newPrompts(t), []Step{{Provider: remote, Timeout: time.Second}, {Provider: local}}, testFallback, discardLogger())

	out, err := d.SubmitReview(context.Background(), "print('hi')", "python")
	require.NoError(t, err)
	assert.Equal(t, "## Review\n\nraw *markdown*  \n", out)
}

func TestSubmitReview_RemoteFailsLocalSucceeds(t *testing.T) {
	tests := []struct {
		name   string
		remote func(ctx context.Context, _ core.Prompt) (string, error)
	}{
		{
			name: "non-2xx",
			remote: func(context.Context, core.Prompt) (string, error) {
				return "", fmt.Errorf("%w: openai API error: 500 secret-upstream-detail", core.ErrUpstreamUnavailable)
			},
		},
		{
			name: "timeout",
			remote: func(ctx context.Context, _ core.Prompt) (string, error) {
				<-ctx.Done()
				return "", fmt.Errorf("%w: secret-upstream-detail: %w", core.ErrUpstreamUnavailable, ctx.Err())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			remote := newMockProvider(ctrl, "openai", core.TierRemote)
			local := newMockProvider(ctrl, "ollama-exec", core.TierLocal)

			gomock.InOrder(
				remote.EXPECT().Review(gomock.Any(), gomock.Any()).DoAndReturn(tt.remote),
				local.EXPECT().Review(gomock.Any(), gomock.Any()).DoAndReturn(
					func(ctx context.Context, _ core.Prompt) (string, error) {
						require.NoError(t, ctx.Err(), "local attempt must get a fresh deadline")
						return "local review", nil
					}),
			)

			steps := []Step{
				{Provider: remote, Timeout: 20 * time.Millisecond},
				{Provider: local, Timeout: time.Second},
			}
			d := NewDispatcher(newPrompts(t), steps, testFallback, discardLogger())

			out, err := d.SubmitReview(context.Background(), "x := 1", "go")
			require.NoError(t, err)
			assert.Equal(t, "local review", out)
			assert.NotContains(t, out, "secret-upstream-detail")
		})
	}
}

func TestSubmitReview_AllFail(t *testing.T) {
	ctrl := gomock.NewController(t)
	remote := newMockProvider(ctrl, "openai", core.TierRemote)
	local := newMockProvider(ctrl, "ollama-exec", core.TierLocal)

	remote.EXPECT().Review(gomock.Any(), gomock.Any()).
		Return("", fmt.Errorf("%w: remote-only-detail", core.ErrUpstreamUnavailable))
	local.EXPECT().Review(gomock.Any(), gomock.Any()).
		Return("", fmt.Errorf("%w: exec: \"ollama\": executable file not found in $PATH", core.ErrLocalInvocation))

	d := NewDispatcher(newPrompts(t), []Step{{Provider: remote}, {Provider: local}}, testFallback, discardLogger())

	out, err := d.SubmitReview(context.Background(), "x := 1", "go")
	require.NoError(t, err)
	assert.Contains(t, out, "Ollama")
	assert.Contains(t, out, `local LLM invocation failed: exec: "ollama": executable file not found in $PATH`)
	assert.Contains(t, out, "ollama pull codellama")
	assert.NotContains(t, out, "remote-only-detail")
}

func TestSubmitReview_TroubleshootingIsDeterministic(t *testing.T) {
	ctrl := gomock.NewController(t)
	local := newMockProvider(ctrl, "ollama-exec", core.TierLocal)
	local.EXPECT().Review(gomock.Any(), gomock.Any()).
		Return("", errors.New("connection refused")).Times(2)

	d := NewDispatcher(newPrompts(t), []Step{{Provider: local}}, testFallback, discardLogger())

	first, err := d.SubmitReview(context.Background(), "a", "go")
	require.NoError(t, err)
	second, err := d.SubmitReview(context.Background(), "b", "rust")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Contains(t, first, "Error: connection refused")
}

func TestSubmitReview_NoProviders(t *testing.T) {
	d := NewDispatcher(newPrompts(t), nil, testFallback, discardLogger())

	out, err := d.SubmitReview(context.Background(), "a", "go")
	require.NoError(t, err)
	assert.Contains(t, out, "Ollama")
	assert.Contains(t, out, errNoProviders.Error())
}

func TestSubmitReview_PanicIsUnexpected(t *testing.T) {
	ctrl := gomock.NewController(t)
	local := newMockProvider(ctrl, "ollama-exec", core.TierLocal)
	local.EXPECT().Review(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, core.Prompt) (string, error) {
			panic("nil map write")
		})

	d := NewDispatcher(newPrompts(t), []Step{{Provider: local}}, testFallback, discardLogger())

	out, err := d.SubmitReview(context.Background(), "a", "go")
	require.NoError(t, err)
	assert.Contains(t, out, "## Error Processing Request")
	assert.Contains(t, out, "nil map write")
}

func TestDispatcher_Unexpected(t *testing.T) {
	d := NewDispatcher(newPrompts(t), nil, testFallback, discardLogger())

	out := d.Unexpected(errors.New("invalid character 'o' in literal"))
	assert.True(t, strings.HasPrefix(out, "## Error Processing Request"))
	assert.Contains(t, out, "invalid character 'o' in literal")
}

func TestSubmitReview_CanceledRequestStopsChain(t *testing.T) {
	ctrl := gomock.NewController(t)
	remote := newMockProvider(ctrl, "openai", core.TierRemote)
	local := newMockProvider(ctrl, "ollama-exec", core.TierLocal)

	ctx, cancel := context.WithCancel(context.Background())
	remote.EXPECT().Review(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ core.Prompt) (string, error) {
			cancel()
			return "", fmt.Errorf("%w: %w", core.ErrUpstreamUnavailable, ctx.Err())
		})

	d := NewDispatcher(newPrompts(t), []Step{{Provider: remote}, {Provider: local}}, testFallback, discardLogger())

	out, err := d.SubmitReview(ctx, "a", "go")
	require.NoError(t, err)
	assert.Contains(t, out, context.Canceled.Error())
}

// echoProvider answers with the code block of the prompt it received, after a
// short delay to make concurrent requests overlap.
type echoProvider struct {
	calls atomic.Int64
}

func (e *echoProvider) Name() string    { return "echo" }
func (e *echoProvider) Tier() core.Tier { return core.TierLocal }

func (e *echoProvider) Review(ctx context.Context, p core.Prompt) (string, error) {
	e.calls.Add(1)
	select {
	case <-time.After(5 * time.Millisecond):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	start := strings.Index(p.User, "```")
	return p.User[start:], nil
}

func TestSubmitReview_ConcurrentRequestsDoNotInterfere(t *testing.T) {
	provider := &echoProvider{}
	d := NewDispatcher(newPrompts(t), []Step{{Provider: provider, Timeout: 5 * time.Second}}, testFallback, discardLogger())

	const n = 50
	results := make([]string, n)
	var g errgroup.Group
	for i := range n {
		g.Go(func() error {
			out, err := d.SubmitReview(context.Background(), fmt.Sprintf("request-%d", i), "go")
			results[i] = out
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int64(n), provider.calls.Load())
	for i, out := range results {
		assert.Equal(t, fmt.Sprintf("```go\nrequest-%d\n```", i), out)
	}
}

func TestProviders(t *testing.T) {
	ctrl := gomock.NewController(t)
	remote := newMockProvider(ctrl, "openai", core.TierRemote)
	local := newMockProvider(ctrl, "ollama-exec", core.TierLocal)

	d := NewDispatcher(newPrompts(t), []Step{
		{Provider: remote, Timeout: 15 * time.Second},
		{Provider: local, Timeout: 60 * time.Second},
	}, testFallback, discardLogger())

	assert.Equal(t, []core.ProviderInfo{
		{Name: "openai", Tier: core.TierRemote, Timeout: 15 * time.Second},
		{Name: "ollama-exec", Tier: core.TierLocal, Timeout: 60 * time.Second},
	}, d.Providers())
}
