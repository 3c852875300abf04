package cmdutils

import "fmt"

const logo = "🎙"

// PrintAssistant renders one assistant reply in the chat command.
func PrintAssistant(text string) {
	if text == "" {
		return
	}
	fmt.Printf("\n%s auravoice\n%s\n\n", logo, text)
}

// PrintNotice renders a one-line status notice.
func PrintNotice(text string) {
	fmt.Printf("· %s\n", text)
}
