package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/tagrelay/internal/store"
)

// Resolution is the result of resolving one message's tag list.
type Resolution struct {
	Linked  []store.Tag
	Skipped []*TagResolutionError
}

// TagResolver maps tag names to tag rows and links them to a message.
// Tags of one message are handled one at a time, in list order.
type TagResolver struct {
	tags    store.TagStore
	timeout time.Duration
	log     *zerolog.Logger
}

// NewTagResolver creates a resolver. A zero timeout leaves store calls unbounded.
func NewTagResolver(tags store.TagStore, timeout time.Duration, logger *zerolog.Logger) *TagResolver {
	return &TagResolver{tags: tags, timeout: timeout, log: logger}
}

// Resolve gets or creates every named tag and links it to the message.
// A failing tag is logged and skipped; the rest are still processed.
func (r *TagResolver) Resolve(ctx context.Context, messageID int64, names []string) Resolution {
	var res Resolution
	seen := make(map[string]struct{}, len(names))

	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			res.Skipped = append(res.Skipped, &TagResolutionError{Tag: name, Err: errors.New("blank tag name")})
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		tag, err := r.resolveOne(ctx, messageID, name)
		if err != nil {
			skip := &TagResolutionError{Tag: name, Err: err}
			r.log.Warn().Err(err).
				Int64("message_id", messageID).
				Str("tag", name).
				Msg("tag skipped")
			res.Skipped = append(res.Skipped, skip)
			continue
		}
		res.Linked = append(res.Linked, *tag)
	}

	return res
}

func (r *TagResolver) resolveOne(ctx context.Context, messageID int64, name string) (*store.Tag, error) {
	tag, err := r.getOrCreate(ctx, name)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	if err := r.tags.LinkMessageTag(callCtx, messageID, tag.ID); err != nil {
		return nil, fmt.Errorf("link: %w", err)
	}
	return tag, nil
}

func (r *TagResolver) getOrCreate(ctx context.Context, name string) (*store.Tag, error) {
	tag, err := r.find(ctx, name)
	if err == nil {
		return tag, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("find: %w", err)
	}

	callCtx, cancel := withTimeout(ctx, r.timeout)
	tag, err = r.tags.CreateTag(callCtx, name)
	cancel()
	if err == nil {
		return tag, nil
	}
	if !errors.Is(err, store.ErrTagConflict) {
		return nil, fmt.Errorf("create: %w", err)
	}

	// Someone else created it between our lookup and insert; their row wins.
	r.log.Debug().Str("tag", name).Msg("tag create conflict, re-fetching")
	tag, err = r.find(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("re-fetch after conflict: %w", err)
	}
	return tag, nil
}

func (r *TagResolver) find(ctx context.Context, name string) (*store.Tag, error) {
	callCtx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	return r.tags.FindTagByName(callCtx, name)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
