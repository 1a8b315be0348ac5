package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/vovakirdan/nachochat/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

// run connects two clients, sends a message from the first and a heart
// from the second, and checks each side sees the other's event.
func run() error {
	addr := flag.String("addr", "ws://localhost:3000/ws", "WebSocket address")
	name := flag.String("name", "smoke", "author name")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	sender, err := connect(ctx, *addr, "sender")
	if err != nil {
		return err
	}
	defer sender.Close(websocket.StatusNormalClosure, "bye")

	peer, err := connect(ctx, *addr, "peer")
	if err != nil {
		return err
	}
	defer peer.Close(websocket.StatusNormalClosure, "bye")

	id := uuid.NewString()
	if err := wsjson.Write(ctx, sender, proto.Inbound{Type: proto.TypeMessage, ID: id, Name: *name, Text: *text}); err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	got, err := readUntil(ctx, peer, proto.TypeMessage, id)
	if err != nil {
		return fmt.Errorf("peer: %w", err)
	}
	fmt.Printf("peer received message: id=%s name=%s text=%q reactions=%v\n", got.ID, got.Name, got.Text, got.Reactions)

	if err := wsjson.Write(ctx, peer, proto.Reaction{Type: proto.TypeReaction, ID: id, Emoji: proto.EmojiHeart}); err != nil {
		return fmt.Errorf("send reaction: %w", err)
	}

	got, err = readUntil(ctx, sender, proto.TypeReaction, id)
	if err != nil {
		return fmt.Errorf("sender: %w", err)
	}
	fmt.Printf("sender received reaction: id=%s emoji=%s\n", got.ID, got.Emoji)
	return nil
}

func connect(ctx context.Context, addr, label string) (*websocket.Conn, error) {
	conn, _, err := websocket.Dial(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", label, err)
	}

	var hist proto.Frame
	if err := wsjson.Read(ctx, conn, &hist); err != nil {
		conn.CloseNow()
		return nil, fmt.Errorf("%s history: %w", label, err)
	}
	if hist.Type != proto.TypeHistory {
		conn.CloseNow()
		return nil, fmt.Errorf("%s: first frame is %q, want history", label, hist.Type)
	}
	fmt.Printf("%s connected, history has %d events\n", label, len(hist.Data))
	return conn, nil
}

// readUntil skips frames that belong to other clients until the wanted one arrives.
func readUntil(ctx context.Context, conn *websocket.Conn, typ, id string) (proto.Frame, error) {
	for {
		var f proto.Frame
		if err := wsjson.Read(ctx, conn, &f); err != nil {
			return proto.Frame{}, fmt.Errorf("read: %w", err)
		}
		if f.Type == typ && f.ID == id {
			return f, nil
		}
	}
}
