package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fkoller/threatfeed/internal/chat"
	"github.com/fkoller/threatfeed/internal/models"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Start an interactive chat session about the collected tweets.

Each question is embedded and matched against the stored tweets; the most
similar ones are passed to the model as context. Type 'exit' or 'quit'
to leave.`,
	RunE: runChat,
}

const goodbyeMessage = "Goodbye! Stay safe out there."

func runChat(cmd *cobra.Command, args []string) error {
	orchestrator, err := getOrchestrator()
	if err != nil {
		return err
	}

	session := models.NewSession(cfg.SystemPrompt)
	ctx := context.Background()

	fmt.Println("Ask me about the cybersecurity threat landscape. Type 'exit' or 'quit' to leave.")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			// EOF ends the session like an explicit quit
			fmt.Println(goodbyeMessage)
			return scanner.Err()
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		switch strings.ToLower(input) {
		case "exit", "quit":
			fmt.Println(goodbyeMessage)
			return nil
		}

		reply, err := orchestrator.Ask(ctx, session, input)
		if err != nil {
			if errors.Is(err, chat.ErrCompletion) {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				continue
			}
			return err
		}

		fmt.Printf("Chatbot: %s\n", reply)
	}
}
