package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/carechat-server/internal/proto"
)

type inboundFrame struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	role := flag.String("role", "visitor", "participant role: visitor or agent")
	id := flag.String("id", "cli-user", "external user id")
	name := flag.String("name", "", "display name")
	target := flag.String("target", "", "default visitor id for agent replies")
	flag.Parse()

	joinType := proto.InboundTypeJoinVisitor
	switch *role {
	case "visitor":
	case "agent":
		joinType = proto.InboundTypeJoinAgent
	default:
		return fmt.Errorf("unknown role %q", *role)
	}

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(typ string, data any) {
		inbound := proto.Inbound{Type: typ}
		if data != nil {
			payload, err := json.Marshal(data)
			if err != nil {
				log.Printf("marshal %s: %v", typ, err)
				return
			}
			inbound.Data = payload
		}
		if writeErr := wsjson.Write(ctx, conn, inbound); writeErr != nil {
			cancel()
			log.Printf("send: %v", writeErr)
		}
	}

	send(joinType, proto.JoinData{ExternalUserID: *id, DisplayName: *name})

	fmt.Printf("Connected to %s as %s %s\n", *addr, *role, *id)
	fmt.Println("Type messages and press Enter to send. /typing and /stop toggle the typing indicator.")
	if *role == "agent" {
		fmt.Println("Prefix a message with @<visitor-id> to address a specific visitor.")
	}
	fmt.Println("Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, send, *target)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var frame inboundFrame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			// Treat expected shutdowns quietly.
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}
		printEvent(frame)
	}
}

func printEvent(frame inboundFrame) {
	switch frame.Event {
	case proto.EventMessageReceived:
		var evt proto.MessageReceived
		if err := json.Unmarshal(frame.Data, &evt); err != nil {
			log.Printf("unmarshal message: %v", err)
			return
		}
		at := time.UnixMilli(evt.Timestamp).Format(time.Kitchen)
		to := ""
		if evt.TargetExternalID != "" {
			to = " -> " + evt.TargetExternalID
		}
		fmt.Printf("%s [%s] %s%s: %s\n", at, evt.SenderRole, label(evt.SenderExternalID, evt.SenderDisplayName), to, evt.Body)
	case proto.EventVisitorRoster:
		var roster []proto.RosterEntry
		if err := json.Unmarshal(frame.Data, &roster); err != nil {
			log.Printf("unmarshal roster: %v", err)
			return
		}
		fmt.Printf("%d visitor(s) online\n", len(roster))
		for _, v := range roster {
			fmt.Printf("  %s since %s\n", label(v.ExternalUserID, v.DisplayName), time.UnixMilli(v.JoinedAt).Format(time.Kitchen))
		}
	case proto.EventParticipantJoined, proto.EventParticipantLeft:
		var evt proto.Presence
		if err := json.Unmarshal(frame.Data, &evt); err != nil {
			log.Printf("unmarshal presence: %v", err)
			return
		}
		verb := "joined"
		if frame.Event == proto.EventParticipantLeft {
			verb = "left"
		}
		fmt.Printf("visitor %s %s\n", label(evt.ExternalUserID, evt.DisplayName), verb)
	case proto.EventTypingStatus:
		var evt proto.TypingStatus
		if err := json.Unmarshal(frame.Data, &evt); err != nil {
			log.Printf("unmarshal typing: %v", err)
			return
		}
		if evt.IsTyping {
			fmt.Printf("%s is typing...\n", label(evt.ExternalUserID, evt.DisplayName))
		} else {
			fmt.Printf("%s stopped typing\n", label(evt.ExternalUserID, evt.DisplayName))
		}
	default:
		fmt.Printf("type=%s event=%s data=%s\n", frame.Type, frame.Event, frame.Data)
	}
}

func label(id, name string) string {
	if name == "" {
		return id
	}
	return fmt.Sprintf("%s (%s)", name, id)
}

func writeLoop(ctx context.Context, send func(string, any), target string) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			line = strings.TrimSpace(line)
			switch {
			case line == "":
				continue
			case line == "/typing":
				send(proto.InboundTypeTypingStart, nil)
			case line == "/stop":
				send(proto.InboundTypeTypingStop, nil)
			case strings.HasPrefix(line, "@"):
				to, body, _ := strings.Cut(line[1:], " ")
				send(proto.InboundTypeSend, proto.SendData{Body: body, TargetExternalID: to})
			default:
				send(proto.InboundTypeSend, proto.SendData{Body: line, TargetExternalID: target})
			}
		}
	}
}
