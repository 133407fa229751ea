package models

import "time"

// PublishState is the visibility state of a post.
type PublishState string

const (
	StateDraft             PublishState = "draft"
	StatePublished         PublishState = "published"
	StatePublishedFeatured PublishState = "published_featured"
)

// Transition names the visibility change applied by an update.
type Transition string

const (
	TransitionNone        Transition = "none"
	TransitionPublished   Transition = "published"
	TransitionUnpublished Transition = "unpublished"
	TransitionFeatured    Transition = "featured"
	TransitionUnfeatured  Transition = "unfeatured"
)

// PublishFlags is the slice of a post governed by the publish state machine.
type PublishFlags struct {
	IsPublished bool
	IsFeatured  bool
	PublishedAt *time.Time
}

// State derives the PublishState of the flags.
func (f PublishFlags) State() PublishState {
	switch {
	case f.IsPublished && f.IsFeatured:
		return StatePublishedFeatured
	case f.IsPublished:
		return StatePublished
	default:
		return StateDraft
	}
}

// PublishRequest carries the requested flags; nil means "leave as is".
type PublishRequest struct {
	IsPublished *bool
	IsFeatured  *bool
}

// ApplyPublishTransition evaluates req against the current flags and returns
// the flags to persist.
//
// Unpublishing a published post always clears the feature flag and
// publishedAt, even when the same request asks for isFeatured=true. Asking to
// feature a post that stays unpublished is rejected and cur is left untouched.
func ApplyPublishTransition(cur PublishFlags, req PublishRequest, now time.Time) (PublishFlags, Transition, error) {
	published := cur.IsPublished
	if req.IsPublished != nil {
		published = *req.IsPublished
	}
	featured := cur.IsFeatured
	if req.IsFeatured != nil {
		featured = *req.IsFeatured
	}

	if cur.IsPublished && !published {
		return PublishFlags{}, TransitionUnpublished, nil
	}

	if !published {
		if req.IsFeatured != nil && *req.IsFeatured {
			return cur, TransitionNone, NewInvalidTransitionError("cannot feature an unpublished post")
		}
		return PublishFlags{}, TransitionNone, nil
	}

	next := PublishFlags{
		IsPublished: true,
		IsFeatured:  featured,
		PublishedAt: cur.PublishedAt,
	}
	if !cur.IsPublished || next.PublishedAt == nil {
		t := now
		next.PublishedAt = &t
	}

	switch {
	case !cur.IsPublished:
		return next, TransitionPublished, nil
	case featured && !cur.IsFeatured:
		return next, TransitionFeatured, nil
	case !featured && cur.IsFeatured:
		return next, TransitionUnfeatured, nil
	default:
		return next, TransitionNone, nil
	}
}
