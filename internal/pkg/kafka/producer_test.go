package kafka

import (
	"context"
	"testing"

	"github.com/ds124wfegd/elastix-api/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledProducerOnlyLogs(t *testing.T) {
	p := NewProducer(false, "localhost:9094", "elastix-runs")
	require.IsType(t, &mockProducer{}, p)

	err := p.Publish(context.Background(), entity.RunEvent{RunID: "r1", Kind: entity.RunRegister, Status: entity.StatusSuccess})
	assert.NoError(t, err)
	assert.NoError(t, p.Close())
}
