package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/Shoislam0311/Jervis/internal/assistant"
	"github.com/Shoislam0311/Jervis/internal/config"
	"github.com/Shoislam0311/Jervis/internal/logger"
	"github.com/Shoislam0311/Jervis/internal/provider"
	"github.com/Shoislam0311/Jervis/internal/search"
	"github.com/Shoislam0311/Jervis/internal/voice"
	"github.com/Shoislam0311/Jervis/memory"
)

func main() {
	log := logger.New(logger.Config{Level: "info", Pretty: true})
	cfg := config.Load(log)
	log = logger.New(logger.Config{Level: cfg.LogLevel, Pretty: true})

	if cfg.APIKey == "" {
		fmt.Println("Missing OPENROUTER_API_KEY; export it before running.")
		os.Exit(1)
	}

	store := memory.Open(cfg.MemoryFile, log)
	completions := provider.NewClient(cfg.APIKey,
		provider.WithModel(cfg.Model),
		provider.WithLogger(log),
	)
	log.Info().Str("model", completions.Model()).Msg("completion client ready")

	asstCfg := assistant.Config{
		Memory:      store,
		Completions: completions,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Logger:      log,
	}
	if cfg.Search.Enabled {
		asstCfg.Search = search.NewClient(search.WithLogger(log))
	}
	if cfg.Voice.Enabled {
		asstCfg.Speech = voice.NewClient(
			voice.WithVoice(cfg.Voice.Name),
			voice.WithSpeed(cfg.Voice.Speed),
			voice.WithLogger(log),
		)
	}
	jervis := assistant.New(asstCfg)

	// Graceful shutdown on Ctrl-C (SIGINT) / SIGTERM
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigch)
	go func() {
		<-sigch
		fmt.Println("\n\u001b[93mJervis\u001b[0m: Goodbye! Have a great day!")
		cancel()
	}()

	fmt.Println("Jervis AI Assistant")
	fmt.Println("Type 'quit', 'exit', or 'bye' to end the conversation.")
	fmt.Println("Type 'speak' before your message to get voice response.")
	fmt.Println(strings.Repeat("-", 50))

	scanner := bufio.NewScanner(os.Stdin)

	// stdin reader goroutine -> lines into channel
	inputCh := make(chan string)
	go func() {
		for scanner.Scan() {
			inputCh <- scanner.Text()
		}
		close(inputCh)
	}()

outer:
	for {
		fmt.Print("\n\u001b[94mYou\u001b[0m: ")
		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			break outer
		case line, ok = <-inputCh:
			if !ok {
				break outer
			}
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		switch strings.ToLower(input) {
		case "quit", "exit", "bye":
			fmt.Println("\u001b[93mJervis\u001b[0m: Goodbye! Have a great day!")
			break outer
		}

		speakReply := false
		if len(input) > 6 && strings.EqualFold(input[:6], "speak ") {
			speakReply = true
			input = input[6:]
		}

		processTurn(ctx, jervis, log, input, speakReply)
	}

	if err := scanner.Err(); err != nil {
		log.Warn().Err(err).Msg("stdin read error")
	}
}

// processTurn runs one exchange. A panic is contained to the turn: it
// is logged and surfaced as the fixed generic error line, and the
// loop carries on.
func processTurn(ctx context.Context, jervis *assistant.Assistant, log zerolog.Logger, input string, speakReply bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("turn failed unexpectedly")
			fmt.Println("\u001b[93mJervis\u001b[0m: I encountered an error. Please try again.")
		}
	}()

	reply := jervis.Process(ctx, input)
	if reply == "" {
		// Shutdown interrupted the turn; the farewell already printed.
		return
	}
	fmt.Printf("\u001b[93mJervis\u001b[0m: %s\n", reply)

	if speakReply {
		if err := jervis.Speak(ctx, reply); err != nil {
			log.Warn().Err(err).Msg("voice output failed")
		}
	}
}
