package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/slipway/slipway/internal/api"
	"github.com/slipway/slipway/internal/client"
	"github.com/slipway/slipway/internal/constants"
	"github.com/slipway/slipway/internal/output"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

var logsFollow bool

var logsCmd = &cobra.Command{
	Use:   "logs <deploy-id>",
	Short: "Show a deploy's logs",
	Long: `Show the retained log events of a deploy. With --follow the command
stays connected and streams new events over WebSocket until the deploy
finishes or Ctrl+C.`,
	RunE: logsRun,
	Args: cobra.ExactArgs(1),
}

func init() {
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Stream new log events as they arrive")
	rootCmd.AddCommand(logsCmd)
}

func logsRun(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	deployID := args[0]
	cfg, err := getConfigFromContext(cmd)
	if err != nil {
		return err
	}

	c := client.New(cfg, slog.Default())
	service := NewLogsService(c, NewOutputWrapper())
	return service.DisplayLogs(cmd.Context(), deployID, logsFollow)
}

// deployLogsClient is the slice of the API client the logs command needs.
type deployLogsClient interface {
	GetLogs(ctx context.Context, deployID string) (*api.LogsResponse, error)
}

// LogsService handles log display logic.
type LogsService struct {
	client deployLogsClient
	output OutputInterface
	stream func(websocketURL, deployID string) error
}

// NewLogsService creates a new LogsService with the provided dependencies.
func NewLogsService(apiClient deployLogsClient, outputter OutputInterface) *LogsService {
	service := &LogsService{
		client: apiClient,
		output: outputter,
	}
	service.stream = service.streamLogsViaWebSocket
	return service
}

// isTerminalStatus reports whether the provided deploy status is terminal.
func isTerminalStatus(status string) bool {
	return constants.IsTerminalDeployStatus(constants.DeployStatus(status))
}

// DisplayLogs prints the retained log events and, when follow is set and
// the deploy is still producing output, streams new events via WebSocket.
func (s *LogsService) DisplayLogs(ctx context.Context, deployID string, follow bool) error {
	resp, err := s.client.GetLogs(ctx, deployID)
	if err != nil {
		return fmt.Errorf("failed to get logs: %w", err)
	}

	if !follow || isTerminalStatus(resp.Status) {
		s.displayLogEvents(resp.Events)
		s.output.Infof("Deploy status: %s", resp.Status)
		return nil
	}

	if resp.WebSocketURL == "" {
		return fmt.Errorf("deploy is %s but no websocket URL was provided for streaming", resp.Status)
	}
	if s.stream == nil {
		return errors.New("websocket streaming function is not configured")
	}

	s.output.Infof("Deploy status: %s. Streaming logs via WebSocket...", resp.Status)
	return s.stream(resp.WebSocketURL, deployID)
}

// displayLogEvents prints the retained events in order.
func (s *LogsService) displayLogEvents(events []api.LogEvent) {
	s.output.Blank()
	for _, ev := range events {
		printLogEvent(ev)
	}
	s.output.Blank()
}

// streamLogsViaWebSocket connects to the daemon's stream endpoint. The
// server replays the backlog first, then forwards live events, and sends a
// disconnect message when the deploy finishes.
func (s *LogsService) streamLogsViaWebSocket(websocketURL, deployID string) error {
	s.output.Infof("Connecting to log stream...")
	conn, httpResp, err := websocket.DefaultDialer.Dial(websocketURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to websocket: %w", err)
	}
	defer func() {
		_ = conn.Close()
	}()
	if httpResp != nil && httpResp.Body != nil {
		defer func() {
			_ = httpResp.Body.Close()
		}()
	}

	s.output.Successf("Connected to log stream. Press Ctrl+C to exit.")
	s.output.Blank()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	done := make(chan struct{})
	logChan := make(chan api.LogEvent, 10)
	var closeOnce sync.Once

	go s.readStreamMessages(conn, logChan, done, &closeOnce)

	go func() {
		for ev := range logChan {
			printLogEvent(ev)
		}
	}()

	select {
	case <-sigChan:
		s.output.Infof("Received interrupt signal, closing connection...")
		closeOnce.Do(func() { close(done) })
		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client exit"),
			time.Now().Add(time.Second),
		)
	case <-done:
		s.output.Infof("Deploy finished. Log stream closed.")
	}

	return nil
}

// readStreamMessages reads stream messages from the WebSocket and sends log
// events to logChan until the server disconnects or done closes.
func (s *LogsService) readStreamMessages(
	conn *websocket.Conn,
	logChan chan<- api.LogEvent,
	done chan struct{},
	closeOnce *sync.Once,
) {
	defer close(logChan)
	defer closeOnce.Do(func() { close(done) })

	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.output.Warningf("WebSocket connection closed: %v", err)
			}
			return
		}

		var msg api.StreamMessage
		if err = json.Unmarshal(messageBytes, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case api.StreamMessageTypeDisconnect:
			_ = conn.WriteMessage(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "deploy finished"),
			)
			return
		case api.StreamMessageTypeLog:
			if msg.Event == nil {
				continue
			}
			select {
			case logChan <- *msg.Event:
			case <-done:
				return
			}
		}
	}
}

// printLogEvent prints a single log event with its timestamp and phase tag.
func printLogEvent(ev api.LogEvent) {
	timestamp := time.UnixMilli(ev.Timestamp).UTC().Format(time.DateTime)
	output.Printf("%s %s %s\n", output.Gray(timestamp), output.Gray(logPrefix(ev)), ev.Message)
}
