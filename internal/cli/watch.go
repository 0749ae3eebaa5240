package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var playerID string

	cmd := &cobra.Command{
		Use:   "watch <code>",
		Short: "Join a room and stream live room updates",
		Long: `Connect to the websocket endpoint, join the room as the given player,
and print every room update as it arrives.

The player id is the durable identity used for the join; reuse the id of an
existing room member to reconnect as them.

Press Ctrl+C to disconnect.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := strings.ToUpper(args[0])
			if playerID == "" {
				return fmt.Errorf("--player is required")
			}
			return watchRoom(code, playerID)
		},
	}

	cmd.Flags().StringVar(&playerID, "player", "", "Durable player id to join as")

	return cmd
}

// serverMessage is the union of pushes the server can send
type serverMessage struct {
	Type      string          `json:"type"`
	RequestID string          `json:"requestId,omitempty"`
	Success   *bool           `json:"success,omitempty"`
	Room      json.RawMessage `json:"room,omitempty"`
	Error     *APIError       `json:"error,omitempty"`
}

func watchRoom(code, playerID string) error {
	url := client.WebsocketURL()

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	join := map[string]string{
		"type":      "join-room",
		"requestId": "watch-join",
		"code":      code,
		"playerId":  playerID,
	}
	if err := conn.WriteJSON(join); err != nil {
		return fmt.Errorf("join failed: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	jsonOutput := cfg.Output == "json"
	if !jsonOutput {
		fmt.Printf("Watching room %s as %s\n", code, playerID)
	}

	for {
		var msg serverMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				if !jsonOutput {
					fmt.Println("Disconnected")
				}
				return nil
			}
			return fmt.Errorf("stream error: %w", err)
		}

		switch msg.Type {
		case "ack":
			if msg.Success != nil && !*msg.Success {
				if msg.Error != nil {
					return fmt.Errorf("%s", msg.Error.String())
				}
				return fmt.Errorf("request rejected")
			}
		case "room-update":
			printRoomUpdate(msg.Room, jsonOutput)
		}
	}
}

func printRoomUpdate(raw json.RawMessage, jsonOutput bool) {
	if jsonOutput {
		fmt.Println(string(raw))
		return
	}

	var room Room
	if err := json.Unmarshal(raw, &room); err != nil {
		fmt.Println(string(raw))
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	summary := fmt.Sprintf("status=%s players=%d", room.Status, len(room.Players))
	if room.Turn != nil {
		summary += " turn=" + *room.Turn
	}
	if room.Winner != nil {
		summary += " winner=" + *room.Winner
	}
	fmt.Printf("[%s] %s\n", timestamp, summary)
}
