package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/palemoky/wolfpath/internal/client"
	"github.com/palemoky/wolfpath/internal/logger"
	"github.com/palemoky/wolfpath/internal/ui"
)

var (
	serverAddr string
	playerID   string
	roomCode   string
	nickname   string
	createRoom bool
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "wolfpath-client",
	Short: "Terminal client for Wolfpath",
	Long: `Connects to a Wolfpath server and opens the game screen.

Use --player with an existing player id, or --room and --nickname to register
a new player first (add --create to open the room as well).`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&serverAddr, "server", "s", "localhost:1780", "server address (host:port or URL)")
	f.StringVarP(&playerID, "player", "p", "", "existing player id")
	f.StringVarP(&roomCode, "room", "r", "", "room code to join")
	f.StringVarP(&nickname, "nickname", "n", "", "nickname for a new player")
	f.BoolVar(&createRoom, "create", false, "create the room before joining")
	f.StringVar(&logLevel, "log-level", "info", "log level for the debug log file")
	rootCmd.MarkFlagsRequiredTogether("room", "nickname")
	rootCmd.MarkFlagsMutuallyExclusive("player", "room")
}

func run(cmd *cobra.Command, args []string) error {
	// the TUI owns stdout, so logs go to a file
	logPath, err := logger.InitClient(logLevel)
	if err != nil {
		return fmt.Errorf("init log: %w", err)
	}
	defer logger.Close()

	lobby := client.NewLobby(serverAddr)
	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()

	id, err := resolvePlayer(ctx, lobby)
	if err != nil {
		return err
	}

	conn := client.New(lobby.WebSocketURL(id))
	if err := conn.Connect(ctx); err != nil {
		return fmt.Errorf("connect to %s: %w", serverAddr, err)
	}
	defer conn.Close()
	logger.Info("🔌 connected", "server", serverAddr, "player", id, "log", logPath)

	p := tea.NewProgram(ui.New(conn, id), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(ui.Model); ok && m.Err() != nil {
		fmt.Fprintln(os.Stderr, "disconnected:", m.Err())
	}
	return nil
}

func resolvePlayer(ctx context.Context, lobby *client.Lobby) (string, error) {
	if playerID != "" {
		return playerID, nil
	}
	if roomCode == "" {
		return "", errors.New("either --player or --room with --nickname is required")
	}

	if createRoom {
		if _, err := lobby.CreateRoom(ctx, roomCode); err != nil {
			return "", fmt.Errorf("create room: %w", err)
		}
	}
	p, err := lobby.CreatePlayer(ctx, nickname, roomCode)
	if err != nil {
		return "", fmt.Errorf("join room: %w", err)
	}
	fmt.Printf("Joined %s as %s (player id %s)\n", roomCode, p.Nickname, p.ID)
	return p.ID, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
