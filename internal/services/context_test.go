package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithSubmissionID(ctx, "sip-42")
	ctx = services.WithStage(ctx, "fixity")
	ctx = services.WithRequestID(ctx, "req-123")

	id, ok := services.SubmissionIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "sip-42", id)

	stage, ok := services.StageFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "fixity", stage)

	rid, ok := services.RequestIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "req-123", rid)
}

func TestStageBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	_, ok := services.StageFromContext(ctx)
	assert.False(t, ok, "expected no stage value")

	ctx = services.WithSubmissionID(ctx, "")
	_, ok = services.SubmissionIDFromContext(ctx)
	assert.False(t, ok, "expected no submission id value")
}
