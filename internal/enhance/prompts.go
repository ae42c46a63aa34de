package enhance

import (
	"fmt"

	"voicedesk.app/server/internal/model"
)

func enhancementPrompt(d model.AgentDraft) string {
	return fmt.Sprintf(`Given this HR agent configuration, enhance it with a more detailed system prompt and improved welcome message.

Agent details:
- Name: %s
- Description: %s
- Personality: %s
- Response Style: %s
- Company Context: %s
- Knowledge Base: %s

Return ONLY a valid JSON object (no markdown, no explanation) with these exact keys:
{
  "enhanced_system_prompt": "A comprehensive system prompt for the voice assistant",
  "enhanced_welcome_message": "An improved welcome message",
  "enhanced_description": "A more detailed description if needed"
}

Make the system prompt detailed and professional, similar to high-quality voice assistant prompts. Ensure all quotes in the JSON values are properly escaped.`,
		d.Name, d.Description, d.Personality, d.ResponseStyle,
		orDefault(d.CompanyContext, "Not provided"),
		orDefault(d.KnowledgeBase, "Not provided"))
}

func promptWriterPrompt(d model.AgentDraft) string {
	return fmt.Sprintf(`You are an expert at creating detailed voice assistant prompts. Given the following information about an HR agent, create a comprehensive system prompt.

Agent Information:
- Name: %s
- Description: %s
- Personality: %s
- Response Style: %s
- Company Context: %s
- Knowledge Base: %s
- Welcome Message: %s

Create a detailed system prompt in markdown with these sections:
# %s - HR Assistant Prompt
## Identity & Purpose
## Voice & Persona (Personality, Speech Characteristics)
## Conversation Flow (Introduction, Information Gathering, HR Process Handling, Wrap-up)
## Response Guidelines
## Scenario Handling (Benefits Questions, Policy Questions, Leave Requests, Payroll Issues)
## Knowledge Base
## Call Management

The prompt should be specific to HR assistance and the agent's defined personality and capabilities.`,
		d.Name, d.Description, d.Personality, d.ResponseStyle,
		orDefault(d.CompanyContext, "Not specified"),
		orDefault(d.KnowledgeBase, "Not specified"),
		orDefault(d.WelcomeMessage, "Default greeting"),
		d.Name)
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
