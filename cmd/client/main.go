package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/linechat/internal/client"
	"github.com/vovakirdan/linechat/internal/config"
	applog "github.com/vovakirdan/linechat/internal/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "linechat: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.NewClientViper()

	cmd := &cobra.Command{
		Use:   "linechat [host] [port] [username]",
		Short: "Terminal client for the linechat server",
		Long: "Connects once to a linechat server. Commands:\n" +
			"  send <MSG>   send a chat line\n" +
			"  leave        disconnect\n" +
			"Host, port and username fall back to CHAT_HOST, CHAT_PORT and CHAT_USERNAME.",
		Args:          cobra.MaximumNArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.ResolveClient(v, args)
			if err != nil {
				if errors.Is(err, config.ErrMissingUsername) {
					_ = cmd.Usage()
				}
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("host", "127.0.0.1", "server host")
	flags.IntP("port", "p", 12345, "server port")
	flags.StringP("username", "u", "", "username to register")
	flags.String("log-level", "warn", "diagnostic log level (stderr)")
	_ = v.BindPFlag("host", flags.Lookup("host"))
	_ = v.BindPFlag("port", flags.Lookup("port"))
	_ = v.BindPFlag("username", flags.Lookup("username"))
	_ = v.BindPFlag("log_level", flags.Lookup("log-level"))

	return cmd
}

func run(parent context.Context, cfg config.ClientConfig) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := applog.NewWithOutput(cfg.LogLevel, os.Stderr)

	address := cfg.Address()
	dialer := net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", address, err)
	}
	defer conn.Close()

	fmt.Printf("Connected to the server at %s as %s\n", address, cfg.Username)

	loop := client.New(conn, os.Stdin, os.Stdout, client.Options{
		Username:      cfg.Username,
		WriteWait:     cfg.WriteWait,
		RetryInterval: cfg.RetryInterval,
	}, logger)
	if err := loop.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("session ended with error")
		return err
	}

	fmt.Println("Client disconnected.")
	return nil
}
