package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartSpan_NilTracer(t *testing.T) {
	t.Parallel()

	s := &Store{}
	ctx := context.Background()

	resultCtx, span := s.startSpan(ctx, "test.operation")

	require.NotNil(t, resultCtx)
	require.NotNil(t, span)
	assert.False(t, span.SpanContext().IsValid(), "nil tracer should return no-op span")
	assert.NotPanics(t, func() { span.End() })
}

func TestLimitArg(t *testing.T) {
	t.Parallel()

	assert.Nil(t, limitArg(0))
	assert.Nil(t, limitArg(-3))
	assert.Equal(t, 10, limitArg(10))
}

func TestMetadataRoundTrip(t *testing.T) {
	t.Parallel()

	data, err := marshalMetadata(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data))

	m, err := unmarshalMetadata(nil)
	require.NoError(t, err)
	assert.NotNil(t, m)

	_, err = unmarshalMetadata([]byte(`not json`))
	assert.Error(t, err)
}
