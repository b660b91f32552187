package core

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/tagrelay/internal/store"
)

// State is a step of the ingestion pipeline.
type State int

const (
	StateReceived State = iota
	StateValidated
	StatePersisted
	StateTagsResolved
	StateBroadcast
	StateDone
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateReceived:
		return "received"
	case StateValidated:
		return "validated"
	case StatePersisted:
		return "persisted"
	case StateTagsResolved:
		return "tags_resolved"
	case StateBroadcast:
		return "broadcast"
	case StateDone:
		return "done"
	case StateRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// PipelineOptions tune failure handling. Zero values keep the relay fire-and-forget:
// store calls are unbounded and senders are not told about rejected messages.
type PipelineOptions struct {
	PersistTimeout time.Duration
	NotifySender   bool
}

// Outcome describes how far a submission got.
type Outcome struct {
	State      State
	Message    *Message
	Resolution Resolution
	Delivered  int
	Err        error
}

// Pipeline takes one submission through validate, persist, tag resolution and broadcast.
type Pipeline struct {
	messages   store.MessageStore
	resolver   *TagResolver
	dispatcher *Dispatcher
	opts       PipelineOptions
	log        *zerolog.Logger
}

// NewPipeline wires the pipeline stages together.
func NewPipeline(
	messages store.MessageStore,
	resolver *TagResolver,
	dispatcher *Dispatcher,
	opts PipelineOptions,
	logger *zerolog.Logger,
) *Pipeline {
	return &Pipeline{
		messages:   messages,
		resolver:   resolver,
		dispatcher: dispatcher,
		opts:       opts,
		log:        logger,
	}
}

// Process runs a submission from the given session to completion. Steps are
// strictly sequential; the store calls are where the goroutine blocks.
func (p *Pipeline) Process(ctx context.Context, s *Session, sub Submission) Outcome {
	log := p.log.With().Str("session_id", s.ID).Str("room", s.Room).Logger()

	// Received -> Validated
	draft, err := validate(s.Room, sub)
	if err != nil {
		log.Debug().Err(err).Msg("submission rejected")
		p.notifyRejected(s, ErrCodeInvalidMessage, err)
		return Outcome{State: StateRejected, Err: err}
	}

	// Validated -> Persisted
	callCtx, cancel := withTimeout(ctx, p.opts.PersistTimeout)
	saved, err := p.messages.InsertMessage(callCtx, draft)
	cancel()
	if err != nil {
		perr := &PersistenceError{Op: "insert message", Err: err}
		log.Error().Err(err).Msg("failed to persist message")
		p.notifyRejected(s, ErrCodePersistFailed, perr)
		return Outcome{State: StateRejected, Err: perr}
	}
	log = log.With().Int64("message_id", saved.ID).Logger()

	out := Outcome{State: StatePersisted}

	// Persisted -> TagsResolved, only when tags were supplied.
	if len(sub.Tags) > 0 {
		out.Resolution = p.resolver.Resolve(ctx, saved.ID, sub.Tags)
		out.State = StateTagsResolved
		if n := len(out.Resolution.Skipped); n > 0 {
			log.Warn().Int("skipped", n).Int("linked", len(out.Resolution.Linked)).Msg("message relayed with partial tags")
		}
	}

	// -> Broadcast
	msg := Message{
		ID:        saved.ID,
		Room:      s.Room,
		Content:   sub.Content,
		Tags:      sub.Tags,
		Sender:    sub.Sender,
		SenderID:  sub.SenderID,
		ReplyToID: sub.ReplyToID,
		SentAt:    saved.SentAt,
	}
	out.State = StateBroadcast
	out.Delivered = p.dispatcher.Broadcast(s.Room, &Event{
		Kind:    EventRoomMessage,
		Room:    s.Room,
		Message: msg,
	})

	out.State = StateDone
	out.Message = &msg
	log.Info().Int("delivered", out.Delivered).Msg("message relayed")
	return out
}

func (p *Pipeline) notifyRejected(s *Session, code string, err error) {
	if !p.opts.NotifySender {
		return
	}
	p.dispatcher.Notify(s, &Event{
		Kind:  EventError,
		Room:  s.Room,
		Error: coreError(code, err.Error()),
	})
}

// validate checks the submission and builds the row to insert.
func validate(room string, sub Submission) (*store.Message, error) {
	if sub.Content == "" {
		return nil, &ValidationError{Field: "content", Reason: "must not be empty"}
	}

	roomID, err := strconv.ParseInt(strings.TrimSpace(room), 10, 64)
	if err != nil {
		return nil, &ValidationError{Field: "room", Reason: "must be an integer id"}
	}

	if sub.SentAt == "" {
		return nil, &ValidationError{Field: "sentAt", Reason: "is required"}
	}
	sentAt, err := parseSentAt(sub.SentAt)
	if err != nil {
		return nil, &ValidationError{Field: "sentAt", Reason: "must be an ISO-8601 timestamp"}
	}

	return &store.Message{
		Content:     sub.Content,
		ContentType: store.ContentTypeText,
		AuthorID:    sub.SenderID,
		RoomID:      roomID,
		ParentID:    sub.ReplyToID,
		SentAt:      sentAt,
	}, nil
}

// sentAtLayouts are tried in order. Layouts without an offset are read as UTC.
var sentAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func parseSentAt(value string) (time.Time, error) {
	var err error
	for _, layout := range sentAtLayouts {
		var t time.Time
		if t, err = time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}
