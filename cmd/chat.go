package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/auravoice/auravoice/internal/bus"
	"github.com/auravoice/auravoice/internal/config"
	"github.com/auravoice/auravoice/internal/dependency"
	"github.com/auravoice/auravoice/internal/schema"
	"github.com/auravoice/auravoice/internal/shared/cmdutils"
	"github.com/auravoice/auravoice/internal/shared/textutils"
)

var chatPersona string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the assistant in text mode",
	Long:  "Opens a realtime session and exchanges typed turns instead of audio. Useful for trying personas and tools without a browser.",
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatPersona, "persona", "P", "", "Persona to talk to (defaults to the configured one)")
}

var exitCommands = map[string]bool{
	"exit":  true,
	"quit":  true,
	"/exit": true,
	"/quit": true,
	":q":    true,
}

func runChat(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(config.ConfigPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	container, err := dependency.New(*cfg)
	if err != nil {
		return err
	}
	defer container.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	orch := container.Orchestrator()
	if chatPersona != "" {
		if err := orch.SetPersona(ctx, chatPersona); err != nil {
			return err
		}
	}

	events, unsubscribe := container.Bus().Subscribe()
	defer unsubscribe()

	fmt.Printf("%s Connecting as %q...\n", logo, orch.Persona().Name)
	if err := orch.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer orch.Disconnect()

	fmt.Printf("%s Connected. Type 'exit' or Ctrl+C to quit, /persona <id> to switch.\n\n", logo)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			fmt.Println("\nGoodbye!")
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if exitCommands[strings.ToLower(line)] {
			fmt.Println("Goodbye!")
			return nil
		}
		if id, ok := strings.CutPrefix(line, "/persona "); ok {
			if err := switchPersona(ctx, orch, strings.TrimSpace(id)); err != nil {
				cmdutils.PrintNotice(err.Error())
			}
			continue
		}

		if err := orch.SendMessage(ctx, line); err != nil {
			cmdutils.PrintNotice("send failed: " + err.Error())
			continue
		}
		printReply(ctx, events)
	}
}

type personaSwitcher interface {
	SetPersona(ctx context.Context, id string) error
	Connect(ctx context.Context) error
	Persona() schema.Persona
}

func switchPersona(ctx context.Context, orch personaSwitcher, id string) error {
	if err := orch.SetPersona(ctx, id); err != nil {
		return err
	}
	if err := orch.Connect(ctx); err != nil {
		return fmt.Errorf("reconnect: %w", err)
	}
	cmdutils.PrintNotice("now talking to " + orch.Persona().Name)
	return nil
}

// printReply drains bus events until the assistant's answer has gone quiet,
// then renders it. Streaming republishes the whole transcript, so the answer
// is simply the last assistant message once fragments stop arriving.
func printReply(ctx context.Context, events <-chan bus.Event) {
	const settle = 700 * time.Millisecond
	overall := time.NewTimer(2 * time.Minute)
	defer overall.Stop()

	var reply string
	sawAssistant := false
	quiet := time.NewTimer(settle)
	defer quiet.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			switch event := event.(type) {
			case bus.HistoryEvent:
				for i := len(event.Messages) - 1; i >= 0; i-- {
					if event.Messages[i].Role == "assistant" {
						reply = event.Messages[i].Content
						sawAssistant = true
						break
					}
				}
				quiet.Reset(settle)
			case bus.GuardrailEvent:
				if event.Tripped {
					cmdutils.PrintNotice("content warning raised")
				}
			case bus.StatusEvent:
				if event.Status == schema.StatusError {
					cmdutils.PrintNotice("session error: " + event.Error)
					return
				}
			case bus.TaskEvent:
				cmdutils.PrintNotice("task added: " + event.Task.Text)
			case bus.MoodEvent:
				cmdutils.PrintNotice("mood recorded: " + string(event.Entry.Mood))
			}
		case <-quiet.C:
			if sawAssistant {
				cmdutils.PrintAssistant(textutils.StringOrDefault(reply, "(no reply)"))
				return
			}
			quiet.Reset(settle)
		case <-overall.C:
			cmdutils.PrintNotice("no reply received")
			return
		case <-ctx.Done():
			return
		}
	}
}
