package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/auravoice/auravoice/internal/schema"
)

// crisisResources is the static resource directory. US-centric; the optional
// location parameter is accepted for forward compatibility but not yet used
// for localization.
var crisisResources = []schema.CrisisResource{
	{
		Name:         "National Suicide Prevention Lifeline",
		Type:         "hotline",
		Contact:      "988",
		Description:  "24/7 free and confidential support for people in distress",
		Availability: "24/7",
		Urgent:       true,
	},
	{
		Name:         "Crisis Text Line",
		Type:         "text",
		Contact:      "Text HOME to 741741",
		Description:  "24/7 crisis support via text message",
		Availability: "24/7",
		Urgent:       true,
	},
	{
		Name:         "SAMHSA National Helpline",
		Type:         "hotline",
		Contact:      "1-800-662-HELP (4357)",
		Description:  "Treatment referral and information service for mental health and substance use disorders",
		Availability: "24/7",
	},
	{
		Name:         "Warmline Directory",
		Type:         "website",
		Contact:      "warmline.org",
		Description:  "Non-crisis emotional support lines",
		Availability: "Varies",
	},
}

// CrisisResourcesTool surfaces immediate support resources.
type CrisisResourcesTool struct{}

// NewCrisisResourcesTool creates a CrisisResourcesTool.
func NewCrisisResourcesTool() *CrisisResourcesTool { return &CrisisResourcesTool{} }

func (t *CrisisResourcesTool) Name() string { return string(ToolCrisis) }
func (t *CrisisResourcesTool) Description() string {
	return "Provide immediate crisis support resources and emergency contacts"
}

func (t *CrisisResourcesTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"urgency": {
				"type": "string",
				"enum": ["immediate", "support", "information"],
				"description": "Level of crisis support needed"
			},
			"location": {
				"type": "string",
				"description": "User location for local resources"
			}
		},
		"required": ["urgency"]
	}`)
}

func (t *CrisisResourcesTool) Execute(_ context.Context, params map[string]any) (schema.ToolResult, error) {
	urgency := stringParam(params, "urgency", "")

	var sb strings.Builder
	if urgency == "immediate" {
		sb.WriteString("If you are in immediate danger, please call 911 or go to your nearest emergency room.\n\n")
		sb.WriteString("For immediate crisis support:\n\n")
		for _, r := range crisisResources {
			if !r.Urgent {
				continue
			}
			fmt.Fprintf(&sb, "- %s: %s\n  %s\n\n", r.Name, r.Contact, r.Description)
		}
		sb.WriteString("You are not alone. These trained counselors are here to help you right now.")
	} else {
		sb.WriteString("Here are some helpful mental health resources:\n\n")
		for _, r := range crisisResources {
			fmt.Fprintf(&sb, "- %s: %s\n  %s\n  Available: %s\n\n", r.Name, r.Contact, r.Description, r.Availability)
		}
		sb.WriteString("Remember: Seeking help is a sign of strength, not weakness.")
	}

	return schema.ToolResult{Reply: sb.String()}, nil
}
