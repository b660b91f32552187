package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/tagrelay/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:4000/ws", "WebSocket address")
	room := flag.String("room", "1", "room id")
	sender := flag.String("sender", "tester", "display name")
	senderID := flag.Int64("sender-id", 1, "numeric author id")
	text := flag.String("text", "hello from smoke test", "message text to send")
	tags := flag.String("tags", "smoke", "comma-separated tags")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr+"?roomId="+*room, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	var tagList []string
	if *tags != "" {
		tagList = strings.Split(*tags, ",")
	}

	payload, err := json.Marshal(proto.SendMessageData{
		Content:  *text,
		Tags:     tagList,
		Sender:   *sender,
		SenderID: *senderID,
		SentAt:   time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeSendMessage, Data: payload}); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	for {
		var outbound struct {
			Type  string          `json:"type"`
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
			Error *proto.Error    `json:"error"`
		}
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			return fmt.Errorf("read: %w", err)
		}

		if outbound.Error != nil {
			return fmt.Errorf("server error %s: %s", outbound.Error.Code, outbound.Error.Msg)
		}
		if outbound.Event != proto.EventReceiveMessage {
			continue
		}

		var evt proto.EventMessage
		if err := json.Unmarshal(outbound.Data, &evt); err != nil {
			return fmt.Errorf("unmarshal message: %w", err)
		}
		fmt.Printf("receiveMessage: id=%d sender=%s content=%q tags=%v sent_at=%s\n",
			evt.ID, evt.Sender, evt.Content, evt.Tags, evt.SentAt)
		return nil
	}
}
