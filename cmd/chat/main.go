// Terminal client for one conversation: live view through the
// synchronization engine, message sending through the HTTP API.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"

	"spill/auth"
	"spill/client"
	"spill/domain"
	"spill/domain/event"
	"spill/relay"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerAddress string        `env:"CHAT_SERVER_ADDR,default=http://localhost:8080"`
	RedisAddr     string        `env:"REDIS_ADDR,required=true"`
	Token         string        `env:"CHAT_TOKEN,required=true"`
	PeerID        string        `env:"CHAT_PEER_ID,required=true"`
	AckDelay      time.Duration `env:"CHAT_ACK_DELAY,default=1s"`
	LogLevel      string        `env:"LOG_LEVEL,required=true"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	// 1. Load configuration from environment variables.
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// The token carries our own identity; no server round-trip needed.
	self, err := auth.Peek(config.Token)
	if err != nil || self.ID == "" {
		return exitConfig, fmt.Errorf("cannot read identity from CHAT_TOKEN: %w", err)
	}

	// 2. Setup context to handle termination signals (Ctrl+C).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Relay subscription + API client feeding the engine.
	rdb := relay.NewRedisClient(config.RedisAddr)
	defer func() {
		log.Info("Closing relay connection...")
		_ = rdb.Close()
	}()
	relayClient := relay.NewRedis(rdb, log)
	api := client.NewAPI(config.ServerAddress, config.Token)

	engine := client.NewEngine(log, self.ID, config.PeerID, relayClient, api, api, config.AckDelay)
	var printMu sync.Mutex
	seen := 0
	engine.OnChange = func() {
		printMu.Lock()
		defer printMu.Unlock()
		snapshot := engine.Snapshot()
		for _, m := range snapshot[seen:] {
			printMessage(self.ID, m)
		}
		seen = len(snapshot)
	}
	if err := engine.Start(ctx); err != nil {
		return exitRuntime, fmt.Errorf("could not join conversation: %w", err)
	}
	defer func() { _ = engine.Close() }()

	color.Green.Printf(">>> Connected as %s, talking to %s (Ctrl+C to quit, /history for the log)\n",
		self.ID, config.PeerID)

	// 4. Input loop: plain lines are sent, /history renders the table.
	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info("Stopping client...")
			return exitOK, nil
		case line, ok := <-lines:
			if !ok {
				return exitOK, nil
			}
			line = strings.TrimSpace(line)
			switch {
			case line == "":
			case line == "/history":
				printHistory(self.ID, engine)
			default:
				if _, _, err := api.Send(ctx, config.PeerID, line, domain.TypeText); err != nil {
					color.Red.Printf("send failed: %v\n", err)
				}
			}
		}
	}
}

func printMessage(selfID string, m event.MessageCreated) {
	stamp := m.Timestamp.Local().Format(time.TimeOnly)
	if m.SenderID == selfID {
		color.Cyan.Printf("[%s] me: %s (%s)\n", stamp, m.Content, m.Status)
		return
	}
	color.Yellow.Printf("[%s] %s: %s\n", stamp, m.Sender.Name, m.Content)
}

func printHistory(selfID string, engine *client.Engine) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Time", "From", "Content", "Status"})
	for _, m := range engine.Snapshot() {
		from := m.Sender.Name
		if m.SenderID == selfID {
			from = "me"
		}
		table.Append([]string{
			m.Timestamp.Local().Format(time.TimeOnly),
			from,
			m.Content,
			string(m.Status),
		})
	}
	table.Render()
}
