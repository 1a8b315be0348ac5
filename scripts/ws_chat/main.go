package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/vovakirdan/nachochat/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:3000/ws", "WebSocket address")
	name := flag.String("name", "cli-user", "author name")
	flag.Parse()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	fmt.Printf("Connected to %s as %s\n", *addr, *name)
	fmt.Println("Type messages and press Enter to send. /heart <id> reacts to a message. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, conn, *name)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var f proto.Frame
		if err := wsjson.Read(ctx, conn, &f); err != nil {
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

		switch f.Type {
		case proto.TypeHistory:
			fmt.Printf("-- %d earlier events --\n", len(f.Data))
			for _, ev := range f.Data {
				printFrame(ev)
			}
			fmt.Println("--")
		default:
			printFrame(f)
		}
	}
}

func printFrame(f proto.Frame) {
	switch f.Type {
	case proto.TypeMessage:
		fmt.Printf("[%s] %s: %s (heart %d)\n", f.ID, f.Name, f.Text, f.Reactions[proto.EmojiHeart])
	case proto.TypeReaction:
		fmt.Printf("[%s] +%s\n", f.ID, f.Emoji)
	default:
		fmt.Printf("type=%s id=%s\n", f.Type, f.ID)
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn, name string) {
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
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}

			var frame any
			if target, found := strings.CutPrefix(text, "/heart "); found {
				frame = proto.Reaction{Type: proto.TypeReaction, ID: strings.TrimSpace(target), Emoji: proto.EmojiHeart}
			} else {
				id := uuid.NewString()
				frame = proto.Inbound{Type: proto.TypeMessage, ID: id, Name: name, Text: text}
				fmt.Printf("[%s] %s: %s\n", id, name, text)
			}
			if err := wsjson.Write(ctx, conn, frame); err != nil {
				log.Printf("send error: %v", err)
				return
			}
		}
	}
}
