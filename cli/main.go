// Command relaycli is a terminal client for the relay WebSocket endpoint.
package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xiaot623/talentrelay/internal/protocol"
)

var (
	serverURL string
	token     string
)

var rootCmd = &cobra.Command{
	Use:          "relaycli",
	Short:        "Terminal client for the realtime relay",
	Long:         `Connects to the relay WebSocket endpoint. Commands: signal, chat.`,
	SilenceUsage: true,
}

var signalCmd = &cobra.Command{
	Use:   "signal",
	Short: "Join a video session and print signaling frames",
	RunE:  runSignal,
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with a club, one stdin line per message",
	RunE:  runChat,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "url", "ws://localhost:8090/ws", "WebSocket server address")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "bearer token that pins the user id")

	signalCmd.Flags().String("session", "", "session token to join")
	signalCmd.Flags().Int64("user", 0, "user id")
	signalCmd.MarkFlagRequired("session")

	chatCmd.Flags().Int64("user", 0, "user id")
	chatCmd.Flags().Int64("club", 0, "club id")
	chatCmd.MarkFlagRequired("club")

	rootCmd.AddCommand(signalCmd)
	rootCmd.AddCommand(chatCmd)
}

func runSignal(cmd *cobra.Command, _ []string) error {
	sessionID, _ := cmd.Flags().GetString("session")
	userID, _ := cmd.Flags().GetInt64("user")

	client, err := connect(cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	ok, err := client.Auth(protocol.AuthMessage{UserID: userID})
	if err != nil {
		return err
	}
	if err := client.JoinSession(sessionID, ok.UserID); err != nil {
		return fmt.Errorf("join session: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Joined %s as user %d. Ctrl+C to leave.\n", sessionID, ok.UserID)

	errs := make(chan error, 1)
	go func() { errs <- client.ReadMessages() }()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	select {
	case <-interrupt:
		return nil
	case err := <-errs:
		return err
	}
}

func runChat(cmd *cobra.Command, _ []string) error {
	userID, _ := cmd.Flags().GetInt64("user")
	clubID, _ := cmd.Flags().GetInt64("club")

	client, err := connect(cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	if _, err := client.Auth(protocol.AuthMessage{UserID: userID, ClubID: clubID}); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Type a message and press Enter to send.")
	fmt.Fprintln(out, "Commands: /quit to exit")

	go client.ReadMessages()

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/quit" {
			fmt.Fprintln(out, "Bye!")
			return nil
		}
		if err := client.SendChat(input); err != nil {
			return fmt.Errorf("send: %w", err)
		}
	}
	return scanner.Err()
}

func connect(cmd *cobra.Command) (*Client, error) {
	fmt.Fprintf(cmd.OutOrStdout(), "Connecting to %s...\n", serverURL)
	return NewClient(serverURL, token, cmd.OutOrStdout())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
