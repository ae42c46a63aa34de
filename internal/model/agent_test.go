package model_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"voicedesk.app/server/internal/model"
)

var _ = Describe("Agent", func() {
	Describe("DefaultWelcomeMessage", func() {
		It("greets with the agent name", func() {
			Expect(model.DefaultWelcomeMessage("Benefits Buddy")).To(Equal("Hello! I'm Benefits Buddy. How can I help you today?"))
		})
	})

	Describe("HasAssistant", func() {
		It("is false without a remote id", func() {
			Expect((&model.Agent{}).HasAssistant()).To(BeFalse())
		})

		It("is false for an empty remote id", func() {
			empty := ""
			Expect((&model.Agent{VapiAssistantID: &empty}).HasAssistant()).To(BeFalse())
		})

		It("is true once provisioned", func() {
			remote := "asst_1"
			Expect((&model.Agent{VapiAssistantID: &remote}).HasAssistant()).To(BeTrue())
		})
	})

	Describe("AgentPatch", func() {
		var agent *model.Agent

		BeforeEach(func() {
			prompt := "old prompt"
			agent = &model.Agent{
				Name:          "Onboarding Olly",
				Description:   "Helps new hires",
				Personality:   model.PersonalityFriendly,
				ResponseStyle: model.ResponseStyleBalanced,
				SystemPrompt:  &prompt,
				Status:        model.AgentStatusActive,
			}
		})

		It("leaves untouched fields alone", func() {
			name := "Olly"
			model.AgentPatch{Name: &name}.Apply(agent)

			Expect(agent.Name).To(Equal("Olly"))
			Expect(agent.Description).To(Equal("Helps new hires"))
			Expect(*agent.SystemPrompt).To(Equal("old prompt"))
		})

		It("clears the override on an empty system prompt", func() {
			empty := ""
			patch := model.AgentPatch{SystemPrompt: &empty}
			Expect(patch.TouchesSystemPrompt()).To(BeTrue())

			patch.Apply(agent)
			Expect(agent.SystemPrompt).To(BeNil())
		})

		It("does not touch the system prompt when only the status changes", func() {
			status := model.AgentStatusTraining
			patch := model.AgentPatch{Status: &status}
			Expect(patch.TouchesSystemPrompt()).To(BeFalse())

			patch.Apply(agent)
			Expect(agent.Status).To(Equal(model.AgentStatusTraining))
		})
	})
})
