package http

import (
	"encoding/json"
	"time"

	"github.com/vovakirdan/tagrelay/internal/core"
	"github.com/vovakirdan/tagrelay/internal/proto"
)

// inboundToSubmission decodes a client frame. A malformed payload yields a
// submission that fails validation, so it follows the normal rejection path.
func inboundToSubmission(inbound proto.Inbound) (*core.Submission, *proto.Error) {
	switch inbound.Type {
	case proto.InboundTypeSendMessage:
		var msg proto.SendMessageData
		if err := json.Unmarshal(inbound.Data, &msg); err != nil {
			return &core.Submission{}, nil
		}
		return &core.Submission{
			Content:   msg.Content,
			Tags:      msg.Tags,
			Sender:    msg.Sender,
			SenderID:  msg.SenderID,
			ReplyToID: msg.ReplyToID,
			SentAt:    msg.SentAt,
		}, nil
	default:
		return nil, &proto.Error{Code: core.ErrCodeUnknownType, Msg: "unknown message type"}
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventRoomMessage:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventReceiveMessage,
			Data: proto.EventMessage{
				ID:        event.Message.ID,
				Content:   event.Message.Content,
				Tags:      event.Message.Tags,
				Sender:    event.Message.Sender,
				SenderID:  event.Message.SenderID,
				SentAt:    event.Message.SentAt.UTC().Format(time.RFC3339Nano),
				ReplyToID: event.Message.ReplyToID,
			},
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}
