package voicerouter

import (
	"context"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/agnivade/voicerouter/internal/metrics"
	"github.com/agnivade/voicerouter/providers"
	"github.com/agnivade/voicerouter/providers/mocks"
)

func newAdapter(t *testing.T, name providers.Name, streaming bool) *mocks.MockAdapter {
	a := mocks.NewMockAdapter(t)
	a.EXPECT().Name().Return(name).Maybe()
	a.EXPECT().Capabilities().Return(providers.Capabilities{Streaming: streaming}).Maybe()
	return a
}

func completed(name providers.Name) *providers.TranscriptResponse {
	return providers.NewSuccess(name, &providers.TranscriptData{ID: "job", Text: "hello", Status: providers.StatusCompleted}, nil)
}

func TestNewRouter(t *testing.T) {
	_, err := NewRouter(nil, WithStrategy("random"))
	assert.ErrorIs(t, err, providers.ErrConfig)

	a := newAdapter(t, providers.Deepgram, true)
	b := newAdapter(t, providers.Deepgram, true)
	_, err = NewRouter([]providers.Adapter{a, b})
	assert.ErrorIs(t, err, providers.ErrConfig)

	g := newAdapter(t, providers.Gladia, true)
	r, err := NewRouter([]providers.Adapter{g, a})
	require.NoError(t, err)
	assert.Equal(t, []providers.Name{providers.Gladia, providers.Deepgram}, r.Providers())

	caps, err := r.Capabilities(providers.Gladia)
	require.NoError(t, err)
	assert.True(t, caps.Streaming)
	_, err = r.Capabilities(providers.Google)
	assert.ErrorIs(t, err, providers.ErrConfig)
}

func TestRoute(t *testing.T) {
	tests := []struct {
		name     string
		opts     []RouterOption
		provider providers.Name
		want     providers.Name
		wantErr  error
	}{
		{name: "default uses first registered", want: providers.Deepgram},
		{name: "configured default", opts: []RouterOption{WithDefault(providers.AssemblyAI)}, want: providers.AssemblyAI},
		{name: "named wins over default", opts: []RouterOption{WithDefault(providers.AssemblyAI)}, provider: providers.Gladia, want: providers.Gladia},
		{name: "explicit without name", opts: []RouterOption{WithStrategy(StrategyExplicit)}, wantErr: providers.ErrConfig},
		{name: "explicit with name", opts: []RouterOption{WithStrategy(StrategyExplicit)}, provider: providers.Gladia, want: providers.Gladia},
		{name: "unknown provider", provider: providers.Google, wantErr: providers.ErrConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRouter([]providers.Adapter{
				newAdapter(t, providers.Deepgram, true),
				newAdapter(t, providers.AssemblyAI, false),
				newAdapter(t, providers.Gladia, true),
			}, tt.opts...)
			require.NoError(t, err)

			a, err := r.route(tt.provider, true, false)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, a.Name())
		})
	}
}

func TestRoundRobin(t *testing.T) {
	r, err := NewRouter([]providers.Adapter{
		newAdapter(t, providers.Deepgram, true),
		newAdapter(t, providers.AssemblyAI, false),
		newAdapter(t, providers.Gladia, true),
	}, WithStrategy(StrategyRoundRobin))
	require.NoError(t, err)

	var got []providers.Name
	for i := 0; i < 4; i++ {
		a, err := r.route("", true, false)
		require.NoError(t, err)
		got = append(got, a.Name())
	}
	assert.Equal(t, []providers.Name{providers.Deepgram, providers.AssemblyAI, providers.Gladia, providers.Deepgram}, got)

	// Streaming rotates on its own cursor and skips assemblyai.
	a, err := r.route("", true, true)
	require.NoError(t, err)
	assert.Equal(t, providers.Deepgram, a.Name())

	// Job-scoped calls never rotate.
	a, err = r.route("", false, false)
	require.NoError(t, err)
	assert.Equal(t, providers.Deepgram, a.Name())
	assert.EqualValues(t, 4, r.batchCursor.Load())
	assert.EqualValues(t, 1, r.streamCursor.Load())
}

func TestRoundRobinInterleaved(t *testing.T) {
	r, err := NewRouter([]providers.Adapter{
		newAdapter(t, providers.Deepgram, true),
		newAdapter(t, providers.AssemblyAI, false),
		newAdapter(t, providers.Gladia, true),
	}, WithStrategy(StrategyRoundRobin))
	require.NoError(t, err)

	var batch, stream []providers.Name
	for i := 0; i < 3; i++ {
		a, err := r.route("", true, false)
		require.NoError(t, err)
		batch = append(batch, a.Name())

		a, err = r.route("", true, true)
		require.NoError(t, err)
		stream = append(stream, a.Name())
	}
	assert.Equal(t, []providers.Name{providers.Deepgram, providers.AssemblyAI, providers.Gladia}, batch)
	assert.Equal(t, []providers.Name{providers.Deepgram, providers.Gladia, providers.Deepgram}, stream)
}

func TestRoundRobinPool(t *testing.T) {
	r, err := NewRouter([]providers.Adapter{
		newAdapter(t, providers.Deepgram, true),
		newAdapter(t, providers.AssemblyAI, false),
		newAdapter(t, providers.Gladia, true),
	}, WithStrategy(StrategyRoundRobin), WithPool(providers.Gladia, providers.AssemblyAI))
	require.NoError(t, err)

	for _, want := range []providers.Name{providers.Gladia, providers.AssemblyAI, providers.Gladia} {
		a, err := r.route("", true, false)
		require.NoError(t, err)
		assert.Equal(t, want, a.Name())
	}

	r, err = NewRouter([]providers.Adapter{newAdapter(t, providers.AssemblyAI, false)}, WithStrategy(StrategyRoundRobin))
	require.NoError(t, err)
	_, err = r.route("", true, true)
	assert.ErrorIs(t, err, providers.ErrUnsupportedOperation)
}

func TestRoundRobinConcurrent(t *testing.T) {
	names := []providers.Name{providers.Deepgram, providers.AssemblyAI, providers.Gladia}
	adapters := make([]providers.Adapter, 0, len(names))
	for _, n := range names {
		adapters = append(adapters, newAdapter(t, n, true))
	}
	r, err := NewRouter(adapters, WithStrategy(StrategyRoundRobin))
	require.NoError(t, err)

	const calls = 300
	var (
		mu     sync.Mutex
		counts = map[providers.Name]int{}
		wg     sync.WaitGroup
	)
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, err := r.route("", true, false)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			counts[a.Name()]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	for _, n := range names {
		assert.Equal(t, calls/len(names), counts[n], n)
	}
}

func TestTranscribe(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	dg := newAdapter(t, providers.Deepgram, true)
	aai := newAdapter(t, providers.AssemblyAI, false)
	r, err := NewRouter([]providers.Adapter{dg, aai}, WithRouterMetrics(m))
	require.NoError(t, err)

	audio := providers.Audio{URL: "https://example.com/a.wav"}
	aai.EXPECT().Transcribe(mock.Anything, audio, providers.TranscribeOptions{Language: "en"}).Return(completed(providers.AssemblyAI)).Once()

	resp := r.Transcribe(context.Background(), providers.AssemblyAI, audio, providers.TranscribeOptions{Language: "en"})
	require.True(t, resp.Success)
	assert.Equal(t, providers.AssemblyAI, resp.Provider)

	resp = r.Transcribe(context.Background(), providers.Google, audio, providers.TranscribeOptions{})
	require.False(t, resp.Success)
	assert.Equal(t, providers.CodeNotSupported, resp.Error.Code)

	r, err = NewRouter([]providers.Adapter{dg}, WithStrategy(StrategyExplicit))
	require.NoError(t, err)
	resp = r.Transcribe(context.Background(), "", audio, providers.TranscribeOptions{})
	require.False(t, resp.Success)
	assert.Equal(t, providers.CodeConfigError, resp.Error.Code)
}

func TestTranscribeStream(t *testing.T) {
	dg := newAdapter(t, providers.Deepgram, true)
	aai := newAdapter(t, providers.AssemblyAI, false)
	r, err := NewRouter([]providers.Adapter{aai, dg})
	require.NoError(t, err)

	sess := mocks.NewMockStreamingSession(t)
	sess.EXPECT().ID().Return("s1").Maybe()
	opts := providers.StreamingOptions{SampleRate: 16000}
	dg.EXPECT().TranscribeStream(mock.Anything, opts, mock.Anything).Return(sess, nil).Once()

	got, err := r.TranscribeStream(context.Background(), providers.Deepgram, opts, providers.Callbacks{})
	require.NoError(t, err)
	assert.Equal(t, "s1", got.ID())

	// The default provider cannot stream.
	_, err = r.TranscribeStream(context.Background(), "", opts, providers.Callbacks{})
	assert.ErrorIs(t, err, providers.ErrUnsupportedOperation)
}

func TestJobOperations(t *testing.T) {
	ctx := context.Background()
	aai := newAdapter(t, providers.AssemblyAI, false)
	r, err := NewRouter([]providers.Adapter{aai}, WithDefault(providers.AssemblyAI))
	require.NoError(t, err)

	aai.EXPECT().GetTranscript(mock.Anything, "job").Return(completed(providers.AssemblyAI), nil).Once()
	resp, err := r.GetTranscript(ctx, "", "job")
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Data.Text)

	list := &providers.TranscriptList{NextCursor: "next", HasMore: true}
	aai.EXPECT().ListTranscripts(mock.Anything, providers.ListFilter{Limit: 5}).Return(list, nil).Once()
	gotList, err := r.ListTranscripts(ctx, providers.AssemblyAI, providers.ListFilter{Limit: 5})
	require.NoError(t, err)
	assert.Same(t, list, gotList)

	aai.EXPECT().GetAudioFile(mock.Anything, "job").Return(nil, providers.NewUnsupportedOperationError(providers.AssemblyAI, "getAudioFile")).Once()
	_, err = r.GetAudioFile(ctx, "", "job")
	assert.ErrorIs(t, err, providers.ErrUnsupportedOperation)

	aai.EXPECT().DeleteTranscript(mock.Anything, "job").Return(nil).Once()
	assert.NoError(t, r.DeleteTranscript(ctx, providers.AssemblyAI, "job"))

	assert.ErrorIs(t, r.DeleteTranscript(ctx, providers.Gladia, "job"), providers.ErrConfig)
}
