package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Room:
		o.printRoom(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Room response type (matches the API's room snapshot)
type Room struct {
	Code       string      `json:"code"`
	Status     string      `json:"status"`
	Players    []Player    `json:"players"`
	Characters []Character `json:"characters"`
	Turn       *string     `json:"turn"`
	Winner     *string     `json:"winner"`
	CreatedAt  string      `json:"createdAt"`
}

// Player response type
type Player struct {
	ID         string   `json:"id"`
	Connected  bool     `json:"connected"`
	Choice     *string  `json:"choice"`
	Eliminated []string `json:"eliminated"`
	Finalized  bool     `json:"finalized"`
}

// Character response type
type Character struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
	Rooms  int    `json:"rooms"`
}

func (o *Output) printRoom(r Room) {
	fmt.Printf("Room: %s\n", r.Code)
	fmt.Printf("Status: %s\n", r.Status)
	if r.Turn != nil {
		fmt.Printf("Turn: %s\n", *r.Turn)
	}
	if r.Winner != nil {
		fmt.Printf("Winner: %s\n", *r.Winner)
	}
	fmt.Printf("Players (%d):\n", len(r.Players))
	for _, p := range r.Players {
		connStr := "disconnected"
		if p.Connected {
			connStr = "connected"
		}
		extras := []string{connStr}
		if p.Choice != nil {
			extras = append(extras, "picked")
		}
		if p.Finalized {
			extras = append(extras, "guessed")
		}
		if len(p.Eliminated) > 0 {
			extras = append(extras, fmt.Sprintf("%d eliminated", len(p.Eliminated)))
		}
		fmt.Printf("  - %s (%s)\n", p.ID, strings.Join(extras, ", "))
	}
	if len(r.Characters) > 0 {
		fmt.Printf("Characters (%d):\n", len(r.Characters))
		for _, c := range r.Characters {
			fmt.Printf("  - %s: %s\n", c.ID, c.Name)
		}
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
	fmt.Printf("Rooms: %d\n", h.Rooms)
}
