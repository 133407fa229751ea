package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(b bool) *bool { return &b }

func TestApplyPublishTransition(t *testing.T) {
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	earlier := now.Add(-48 * time.Hour)

	draft := PublishFlags{}
	published := PublishFlags{IsPublished: true, PublishedAt: &earlier}
	featured := PublishFlags{IsPublished: true, IsFeatured: true, PublishedAt: &earlier}

	tests := []struct {
		name           string
		cur            PublishFlags
		req            PublishRequest
		wantState      PublishState
		wantTransition Transition
		wantPublishAt  *time.Time
	}{
		{"draft no-op", draft, PublishRequest{}, StateDraft, TransitionNone, nil},
		{"draft explicit unpublish is idempotent", draft, PublishRequest{IsPublished: ptr(false)}, StateDraft, TransitionNone, nil},
		{"publish draft", draft, PublishRequest{IsPublished: ptr(true)}, StatePublished, TransitionPublished, &now},
		{"publish and feature draft", draft, PublishRequest{IsPublished: ptr(true), IsFeatured: ptr(true)}, StatePublishedFeatured, TransitionPublished, &now},
		{"republish keeps timestamp", published, PublishRequest{IsPublished: ptr(true)}, StatePublished, TransitionNone, &earlier},
		{"feature published", published, PublishRequest{IsFeatured: ptr(true)}, StatePublishedFeatured, TransitionFeatured, &earlier},
		{"unfeature", featured, PublishRequest{IsFeatured: ptr(false)}, StatePublished, TransitionUnfeatured, &earlier},
		{"unpublish clears feature", featured, PublishRequest{IsPublished: ptr(false)}, StateDraft, TransitionUnpublished, nil},
		{"unpublish wins over feature request", published, PublishRequest{IsPublished: ptr(false), IsFeatured: ptr(true)}, StateDraft, TransitionUnpublished, nil},
		{"draft unfeature is no-op", draft, PublishRequest{IsFeatured: ptr(false)}, StateDraft, TransitionNone, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, transition, err := ApplyPublishTransition(tt.cur, tt.req, now)
			require.NoError(t, err)
			assert.Equal(t, tt.wantState, got.State())
			assert.Equal(t, tt.wantTransition, transition)
			assert.Equal(t, tt.wantPublishAt, got.PublishedAt)
			if got.IsFeatured {
				assert.True(t, got.IsPublished, "featured implies published")
			}
		})
	}
}

func TestApplyPublishTransition_FeatureDraftRejected(t *testing.T) {
	now := time.Now().UTC()
	cur := PublishFlags{}

	for _, req := range []PublishRequest{
		{IsFeatured: ptr(true)},
		{IsPublished: ptr(false), IsFeatured: ptr(true)},
	} {
		got, transition, err := ApplyPublishTransition(cur, req, now)
		require.Error(t, err)
		assert.True(t, IsCode(err, CodeInvalidTransition))
		assert.Equal(t, cur, got)
		assert.Equal(t, TransitionNone, transition)
	}
}

func TestApplyPublishTransition_RepairsMissingTimestamp(t *testing.T) {
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	got, transition, err := ApplyPublishTransition(PublishFlags{IsPublished: true}, PublishRequest{}, now)
	require.NoError(t, err)
	assert.Equal(t, TransitionNone, transition)
	require.NotNil(t, got.PublishedAt)
	assert.Equal(t, now, *got.PublishedAt)
}

func TestApplyPublishTransition_ClearsStaleDraftTimestamp(t *testing.T) {
	stale := time.Now().UTC()
	got, _, err := ApplyPublishTransition(PublishFlags{PublishedAt: &stale}, PublishRequest{}, stale)
	require.NoError(t, err)
	assert.Nil(t, got.PublishedAt)
}
