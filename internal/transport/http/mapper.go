package http

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vovakirdan/carechat-server/internal/core"
	"github.com/vovakirdan/carechat-server/internal/proto"
)

var (
	errMalformed    = errors.New("malformed payload")
	errUnknownType  = errors.New("unknown message type")
	errMissingField = errors.New("missing required field")
)

// dropReason maps a mapping error to the label reported to metrics.
func dropReason(err error) string {
	switch {
	case errors.Is(err, errUnknownType):
		return "unknown_type"
	case errors.Is(err, errMissingField):
		return "missing_field"
	default:
		return "malformed"
	}
}

func inboundToCommand(inbound proto.Inbound) (*core.Command, error) {
	switch inbound.Type {
	case proto.InboundTypeJoinVisitor, proto.InboundTypeJoinAgent:
		var join proto.JoinData
		if err := decodeData(inbound.Data, &join); err != nil {
			return nil, err
		}
		if join.ExternalUserID == "" {
			return nil, fmt.Errorf("%w: externalUserId", errMissingField)
		}
		role := core.RoleVisitor
		if inbound.Type == proto.InboundTypeJoinAgent {
			role = core.RoleAgent
		}
		return &core.Command{
			Kind:           core.CommandJoin,
			Role:           role,
			ExternalUserID: join.ExternalUserID,
			DisplayName:    join.DisplayName,
		}, nil
	case proto.InboundTypeSend:
		var msg proto.SendData
		if err := decodeData(inbound.Data, &msg); err != nil {
			return nil, err
		}
		if msg.Body == "" {
			return nil, fmt.Errorf("%w: body", errMissingField)
		}
		return &core.Command{
			Kind:             core.CommandSendMessage,
			Body:             msg.Body,
			TargetExternalID: msg.TargetExternalID,
		}, nil
	case proto.InboundTypeTypingStart:
		return &core.Command{Kind: core.CommandTyping, IsTyping: true}, nil
	case proto.InboundTypeTypingStop:
		return &core.Command{Kind: core.CommandTyping, IsTyping: false}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownType, inbound.Type)
	}
}

func decodeData(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: missing data", errMalformed)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %w", errMalformed, err)
	}
	return nil
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	out := proto.Outbound{Type: proto.OutboundTypeEvent, Event: event.Kind.String()}

	switch event.Kind {
	case core.EventMessageReceived:
		env := event.Envelope
		out.Data = proto.MessageReceived{
			MessageID:          env.MessageID,
			Body:               env.Body,
			SenderConnectionID: env.SenderConnectionID,
			SenderExternalID:   env.SenderExternalID,
			SenderDisplayName:  env.SenderDisplayName,
			SenderRole:         env.SenderRole.String(),
			TargetExternalID:   env.TargetExternalID,
			Timestamp:          env.Timestamp.UnixMilli(),
		}
	case core.EventVisitorRoster:
		roster := make([]proto.RosterEntry, 0, len(event.Roster))
		for _, v := range event.Roster {
			roster = append(roster, proto.RosterEntry{
				ExternalUserID: v.ExternalUserID,
				DisplayName:    v.DisplayName,
				JoinedAt:       v.JoinedAt.UnixMilli(),
			})
		}
		out.Data = roster
	case core.EventParticipantJoined, core.EventParticipantLeft:
		out.Data = proto.Presence{
			ExternalUserID: event.Presence.ExternalUserID,
			DisplayName:    event.Presence.DisplayName,
			Timestamp:      event.Presence.Timestamp.UnixMilli(),
		}
	case core.EventTypingStatus:
		out.Data = proto.TypingStatus{
			ExternalUserID: event.Typing.ExternalUserID,
			DisplayName:    event.Typing.DisplayName,
			IsTyping:       event.Typing.IsTyping,
		}
	}
	return out
}
