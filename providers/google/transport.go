package google

import (
	"context"
	"errors"
	"io"
	"sync"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"

	"github.com/agnivade/voicerouter/providers"
	"github.com/agnivade/voicerouter/providers/session"
)

// grpcDialer opens a StreamingRecognize stream and sends the config request.
type grpcDialer struct {
	open   func(ctx context.Context) (streamingRecognizeClient, error)
	config *speechpb.StreamingRecognitionConfig
}

func (d grpcDialer) Dial(ctx context.Context) (session.Transport, error) {
	// The stream outlives the dial deadline; Close cancels it.
	streamCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stream, err := d.open(streamCtx)
	if err != nil {
		cancel()
		return nil, err
	}
	err = stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: d.config,
		},
	})
	if err != nil {
		cancel()
		return nil, err
	}
	return &grpcTransport{stream: stream, cancel: cancel}, nil
}

// grpcTransport adapts a StreamingRecognize stream to session.Transport.
// Outbound binary frames become audio requests. Inbound responses are
// proto-encoded into binary frames for the codec.
type grpcTransport struct {
	stream streamingRecognizeClient
	cancel context.CancelFunc

	failed    bool
	closeOnce sync.Once
}

var (
	_ session.Transport  = (*grpcTransport)(nil)
	_ session.HalfCloser = (*grpcTransport)(nil)
)

func (t *grpcTransport) Send(_ context.Context, f session.Frame) error {
	if f.Type != session.BinaryFrame {
		return errors.New("google streams only carry audio")
	}
	return t.stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{
			AudioContent: f.Data,
		},
	})
}

// Receive returns the next response. A gRPC status error other than
// cancellation or unavailability is surfaced once as a response carrying
// that status, so the codec reports it as a provider error. The stream then
// reads as ended.
func (t *grpcTransport) Receive(context.Context) (session.Frame, error) {
	if t.failed {
		return session.Frame{}, io.EOF
	}

	resp, err := t.stream.Recv()
	if err != nil {
		if errors.Is(err, io.EOF) || status.Code(err) == codes.Canceled {
			return session.Frame{}, io.EOF
		}
		st, ok := status.FromError(err)
		if !ok || st.Code() == codes.Unavailable {
			return session.Frame{}, err
		}
		t.failed = true
		resp = &speechpb.StreamingRecognizeResponse{Error: st.Proto()}
	}

	data, err := proto.Marshal(resp)
	if err != nil {
		return session.Frame{}, err
	}
	return session.Binary(data), nil
}

func (t *grpcTransport) CloseSend() error {
	return t.stream.CloseSend()
}

func (t *grpcTransport) Close() error {
	t.closeOnce.Do(t.cancel)
	return nil
}

// grpcError maps a Recognize failure to the error taxonomy.
func grpcError(err error) *providers.Error {
	st, ok := status.FromError(err)
	if !ok {
		return providers.AsError(providers.Google, err)
	}
	switch st.Code() {
	case codes.DeadlineExceeded:
		e := providers.NewTimeoutError(providers.Google, providers.CodeConnectionTimeout, st.Message())
		e.Err = err
		return e
	case codes.Unavailable, codes.Canceled:
		return &providers.Error{
			Kind:     providers.ErrTransport,
			Code:     providers.CodeUnknownError,
			Message:  st.Message(),
			Provider: providers.Google,
			Err:      err,
		}
	case codes.InvalidArgument:
		e := providers.NewInputError(providers.Google, st.Message())
		e.Err = err
		return e
	case codes.NotFound:
		return providers.NewProviderError(providers.Google, providers.CodeNoResults, st.Message(), 0)
	default:
		e := providers.NewProviderError(providers.Google, providers.CodeTranscriptionError, st.Message(), 0)
		e.Details = map[string]any{"grpc_code": st.Code().String()}
		return e
	}
}
