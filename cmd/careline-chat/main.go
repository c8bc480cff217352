// careline-chat is a terminal client for the careline conversation flow,
// useful for exercising the service without a frontend.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/carelinehq/careline/internal/session"
)

func main() {
	_ = godotenv.Load()

	url := flag.String("url", envOr("CARELINE_CHAT_URL", "http://localhost:8760/api/v1/chat"), "chat endpoint URL")
	token := flag.String("token", envOr("CARELINE_CHAT_TOKEN", "anon"), "bearer token for the chat endpoint")
	category := flag.String("category", "post_visit", "conversation category")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	ctrl := session.NewController(session.NewChatClient(*url, *token), logger)

	ctx := context.Background()
	if err := ctrl.StartConversation(ctx, session.Category(*category)); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	printLastReply(ctrl)

	scanner := bufio.NewScanner(os.Stdin)
	for ctrl.State() != session.StateCompleted {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "/quit" {
			return
		}
		if err := ctrl.SendMessage(ctx, text); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			continue
		}
		printLastReply(ctrl)
	}

	outcome := ctrl.Outcome()
	if outcome.Feedback != nil {
		fmt.Printf("\nfeedback recorded: score %d — %s\n", outcome.Feedback.Score, outcome.Feedback.Summary)
	}
	if outcome.Nursing != nil {
		fmt.Printf("\nassessment recorded: priority %s — %s\n", outcome.Nursing.PriorityLevel, outcome.Nursing.ConditionSummary)
		if len(outcome.Nursing.ImmediateNeeds) > 0 {
			fmt.Println("immediate needs:", strings.Join(outcome.Nursing.ImmediateNeeds, ", "))
		}
	}
}

func printLastReply(ctrl *session.Controller) {
	turns := ctrl.Turns()
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == session.RoleAssistant {
			fmt.Println(turns[i].Content)
			return
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
