package provider

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/polly/types"
	"github.com/aws/smithy-go"
	"github.com/dkeye/Assist/internal/config"
	"github.com/dkeye/Assist/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPolly struct {
	mock.Mock
}

func (m *mockPolly) SynthesizeSpeech(ctx context.Context, in *polly.SynthesizeSpeechInput, _ ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*polly.SynthesizeSpeechOutput)
	return out, args.Error(1)
}

var testAWSConfig = config.AWSConfig{
	Region:       "us-east-1",
	Engine:       "generative",
	LanguageCode: "en-US",
	OutputFormat: "mp3",
}

func TestPollySynthesize(t *testing.T) {
	client := new(mockPolly)
	client.On("SynthesizeSpeech", mock.Anything, mock.MatchedBy(func(in *polly.SynthesizeSpeechInput) bool {
		return *in.Text == "Hello" &&
			in.VoiceId == types.VoiceIdRuth &&
			in.Engine == types.EngineGenerative &&
			in.LanguageCode == types.LanguageCodeEnUs &&
			in.OutputFormat == types.OutputFormatMp3
	})).Return(&polly.SynthesizeSpeechOutput{
		AudioStream: io.NopCloser(bytes.NewReader([]byte("ID3audio"))),
	}, nil)

	p := NewPolly(client, testAWSConfig)
	audio, err := p.Synthesize(context.Background(), "Hello", "Ruth")
	require.NoError(t, err)
	assert.Equal(t, []byte("ID3audio"), audio)
	client.AssertExpectations(t)
}

func TestPollyErrorsAreClassified(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind domain.ProviderErrorKind
	}{
		{"service rejection", &smithy.GenericAPIError{Code: "AccessDeniedException", Message: "denied"}, domain.ProviderRejected},
		{"network failure", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, domain.ProviderNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(mockPolly)
			client.On("SynthesizeSpeech", mock.Anything, mock.Anything).Return(nil, tt.err)

			_, err := NewPolly(client, testAWSConfig).Synthesize(context.Background(), "Hello", "Matthew")
			var pe *domain.ProviderError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, namePolly, pe.Provider)
			assert.Equal(t, tt.kind, pe.Kind)
		})
	}
}

func TestPollyEmptyAudioFails(t *testing.T) {
	client := new(mockPolly)
	client.On("SynthesizeSpeech", mock.Anything, mock.Anything).Return(&polly.SynthesizeSpeechOutput{
		AudioStream: io.NopCloser(bytes.NewReader(nil)),
	}, nil)

	_, err := NewPolly(client, testAWSConfig).Synthesize(context.Background(), "Hello", "Ruth")
	assert.True(t, domain.IsProviderError(err))
}

func TestPollyClientDoesNotRetry(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"message":"internal failure"}`)
	}))
	defer srv.Close()

	cfg := testAWSConfig
	cfg.AccessKeyID = "AKIDTEST"
	cfg.SecretAccessKey = "secret"
	client := NewPollyClient(cfg, func(o *polly.Options) {
		o.BaseEndpoint = aws.String(srv.URL)
		o.HTTPClient = srv.Client()
	})

	_, err := NewPolly(client, cfg).Synthesize(context.Background(), "Hello", "Ruth")
	require.Error(t, err)
	assert.True(t, domain.IsProviderError(err))
	assert.EqualValues(t, 1, hits.Load())
}

func TestPollyClientWithoutKeysSendsNothing(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("ID3audio"))
	}))
	defer srv.Close()

	client := NewPollyClient(testAWSConfig, func(o *polly.Options) {
		o.BaseEndpoint = aws.String(srv.URL)
		o.HTTPClient = srv.Client()
	})

	_, err := NewPolly(client, testAWSConfig).Synthesize(context.Background(), "Hello", "Ruth")
	require.Error(t, err)
	assert.True(t, domain.IsProviderError(err))
	assert.Zero(t, hits.Load())
}
