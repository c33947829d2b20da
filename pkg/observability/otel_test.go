package observability

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestInitOTel_Disabled(t *testing.T) {
	logger, hook := test.NewNullLogger()
	providers, err := InitOTel(context.Background(), OTelConfig{Enabled: false}, logger)
	require.NoError(t, err)
	assert.Nil(t, providers)
	assert.Equal(t, "OpenTelemetry is disabled", hook.LastEntry().Message)

	assert.NoError(t, providers.Shutdown(context.Background(), logger))
}

func TestOTelProviders_Shutdown(t *testing.T) {
	logger, hook := test.NewNullLogger()
	providers := &OTelProviders{TracerProvider: sdktrace.NewTracerProvider()}
	require.NoError(t, providers.Shutdown(context.Background(), logger))
	assert.Equal(t, "OpenTelemetry flushed", hook.LastEntry().Message)
}

func TestOTelConfig_Sampler(t *testing.T) {
	assert.Contains(t, OTelConfig{}.sampler().Description(), "AlwaysOnSampler")
	assert.Contains(t, OTelConfig{SampleRatio: 1.5}.sampler().Description(), "AlwaysOnSampler")
	assert.Contains(t, OTelConfig{SampleRatio: 0.25}.sampler().Description(), "TraceIDRatioBased{0.25}")
}

func TestOTelConfig_DialOptions(t *testing.T) {
	assert.Len(t, OTelConfig{Insecure: true}.dialOptions(), 1)
	assert.Empty(t, OTelConfig{}.dialOptions())
}
