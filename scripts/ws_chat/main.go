// Command ws_chat talks to the chat room through the admin WebSocket bridge
// using the same send/leave commands as the TCP client.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/websocket"

	"github.com/vovakirdan/linechat/internal/client"
	applog "github.com/vovakirdan/linechat/internal/log"
)

const wsWriteWait = 10 * time.Second

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	user := flag.String("user", "", "username")
	level := flag.String("log-level", "warn", "diagnostic log level")
	flag.Parse()

	if *user == "" {
		return errors.New("-user is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	ws, _, err := websocket.Dial(dialCtx, *addr, nil)
	cancel()
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	conn := websocket.NetConn(ctx, ws, websocket.MessageText)
	defer conn.Close()

	fmt.Printf("Connected to %s as %s\n", *addr, *user)

	logger := applog.NewWithOutput(*level, os.Stderr)
	// A write deadline that fires on a NetConn closes the WebSocket, so a
	// deadline hit is fatal on this transport. Keep the bound long.
	loop := client.New(conn, os.Stdin, os.Stdout, client.Options{
		Username:  *user,
		WriteWait: wsWriteWait,
	}, logger)
	if err := loop.Run(ctx); err != nil {
		return err
	}
	fmt.Println("Client disconnected.")
	return nil
}
