package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"chatclone/internal/config"
	"chatclone/internal/llm"
	"chatclone/internal/services"
	"chatclone/internal/session"
)

var flags struct {
	apiKey   string
	provider string
	model    string
	baseURL  string
}

var rootCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with a language model from the terminal",
	Long: `chat keeps one conversation in memory for the lifetime of the process and
sends the whole conversation with every prompt. Type /reset to start over,
/history to print the conversation, or press Ctrl-D to quit.`,
	SilenceUsage: true,
	RunE:         runChat,
}

func init() {
	rootCmd.Flags().StringVar(&flags.apiKey, "api-key", "", "API key for the model provider (default $CHAT_API_KEY)")
	rootCmd.Flags().StringVar(&flags.provider, "provider", "", "model provider: openai, gemini or anthropic (default $LLM_PROVIDER)")
	rootCmd.Flags().StringVar(&flags.model, "model", "", "model name (default $LLM_MODEL or the provider default)")
	rootCmd.Flags().StringVar(&flags.baseURL, "base-url", "", "API base URL for OpenAI-compatible endpoints")
}

func runChat(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	if flags.apiKey == "" {
		flags.apiKey = os.Getenv("CHAT_API_KEY")
	}

	completer, err := llm.New(llm.Options{
		Provider:    firstNonEmpty(flags.provider, cfg.LLMProvider),
		Model:       firstNonEmpty(flags.model, cfg.LLMModel),
		BaseURL:     firstNonEmpty(flags.baseURL, cfg.LLMBaseURL),
		Temperature: cfg.LLMTemperature,
		MaxTokens:   cfg.LLMMaxTokens,
	})
	if err != nil {
		return err
	}

	store := session.NewStore(cfg.Greeting, 0)
	chat := services.NewChatService(store, services.NewResponseFetcher(completer))
	sess := store.Create()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return repl(ctx, chat, sess.ID(), flags.apiKey, cmd.InOrStdin(), cmd.OutOrStdout())
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
