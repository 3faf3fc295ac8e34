package stage

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/services"
)

func TestIsLogicalClassification(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"failure", Failf("bad %s", "input"), true},
		{"wrapped failure", fmt.Errorf("outer: %w", Failf("inner")), true},
		{"validation marker", services.Wrap(services.ErrValidation, "fixity", "verify", "mismatch", nil), true},
		{"malformed package", fmt.Errorf("commit: %w", services.ErrMalformedPackage), true},
		{"transient", services.Wrap(services.ErrTransient, "commit", "write", "disk full", nil), false},
		{"plain", errors.New("boom"), false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, IsLogical(tc.err), tc.name)
	}
}

func TestFailureMessage(t *testing.T) {
	assert.Equal(t, "size 3", Message(Failf("size %d", 3)))

	cause := errors.New("cause")
	err := Fail("digest mismatch", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "digest mismatch: cause", Message(err))
}

func TestFuncHandler(t *testing.T) {
	ctx := context.Background()
	called := ""
	h := Func{StageName: "noop", Run: func(_ context.Context, id string) error {
		called = id
		return nil
	}}
	assert.Equal(t, "noop", h.Name())
	require.NoError(t, h.Prepare(ctx, "sip-1"))
	require.NoError(t, h.Execute(ctx, "sip-1"))
	assert.Equal(t, "sip-1", called)

	health := h.HealthCheck(ctx)
	assert.True(t, health.Ready)
	assert.Equal(t, "noop", health.Name)

	assert.NoError(t, Func{StageName: "empty"}.Execute(ctx, "sip-1"))
}

func TestHealthConstructors(t *testing.T) {
	h := Healthy("fixity")
	assert.True(t, h.Ready)
	assert.Empty(t, h.Detail)

	down := Unhealthy("x", "down")
	assert.False(t, down.Ready)
	assert.Equal(t, "down", down.Detail)

	missing := Missing("commit", "archive", "stager")
	assert.Equal(t, Health{Name: "commit", Detail: "archive and stager not configured"}, missing)
}

func TestHealthErr(t *testing.T) {
	assert.NoError(t, Healthy("fixity").Err())

	err := Missing("commit", "archive").Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrConfiguration)
	assert.False(t, IsLogical(err), "a missing collaborator is not a logical failure")
	assert.Equal(t, "configuration error: commit: prepare: archive not configured", err.Error())
}
