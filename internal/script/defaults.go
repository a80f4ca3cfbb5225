// Package script holds the built-in debt-advice script used when no script file is
// configured or when a configured file fails to load.
package script

import "github.com/debtbridge/DebtBridge/internal/models"

// DefaultScript returns the built-in debt-advice script. Callers receive a fresh
// value each time so the published script can never be mutated through it.
func DefaultScript() *Script {
	return &Script{
		Name: "debt-advice",
		Steps: []Step{
			{
				Index:  0,
				Slot:   models.SlotName,
				Prompt: "Hi, I'm Bridget from DebtBridge. [UI: widget=chat_intro] I'm here to help you get on top of your debts. Before we start, what should I call you?",
				Reask: []string{
					"Sorry, I didn't catch that. What should I call you?",
					"No need for your full name, just whatever you'd like me to use.",
					"Let's keep it simple. A first name is fine.",
				},
			},
			{
				Index:  1,
				Slot:   models.SlotConcern,
				Prompt: "Thanks {name}. What's worrying you most about your money at the moment?",
				Reask: []string{
					"Whatever is on your mind is fine. What's your biggest money worry right now?",
					"Could you tell me a little about what's troubling you financially?",
				},
				Hints: []string{
					"debt", "loan", "card", "credit", "rent", "bill", "money",
					"owe", "arrears", "overdraft", "mortgage", "pay", "bank",
					"council tax", "catalogue", "interest", "bailiff", "budget",
				},
			},
			{
				Index:  2,
				Slot:   models.SlotIssue,
				Prompt: "That sounds tough, and you're not alone in it. Could you tell me a bit more about how this started?",
				Reask: []string{
					"Even a rough idea helps, for example a change in work, health, or an unexpected bill.",
				},
			},
			{
				Index:  3,
				Slot:   models.SlotAmounts,
				Prompt: "Let's look at the numbers. Roughly how much do you pay towards your debts each month, and how much could you comfortably afford? [UI: widget=amount_helper]",
				Reask: []string{
					"A rough figure is fine. How much goes out on debts each month, and how much would feel manageable?",
					"If you're not sure, estimates are fine. For example: I pay 300 but could afford 100.",
				},
			},
			{
				Index:  4,
				Slot:   models.SlotUrgency,
				Prompt: "Is anything urgent happening, like bailiff visits, court letters, or missed payments on priority bills such as rent or energy?",
				Reask: []string{
					"Just so I don't miss anything pressing: any enforcement action, court letters, or priority bills behind? It's fine to say no.",
				},
			},
			{
				Index:  5,
				Slot:   models.SlotAcknowledgement,
				Prompt: "Thank you for being so open with me. Based on what you've said, a full budgeting review with one of our advisers looks like the right next step. Does that sound OK?",
				Reask: []string{
					"No obligation either way. Would a budgeting review with an adviser be helpful?",
				},
			},
			{
				Index:    6,
				Slot:     models.SlotConsent,
				MinIndex: 5,
				Prompt:   "Great. I can set you up on our online advice portal so an adviser can review your details. [UI: popup=portal_signup] Are you happy for me to share what you've told me with them?",
				Reask: []string{
					"To be clear: your details would only be shared with a DebtBridge adviser. Is that OK with you?",
				},
			},
			{
				Index:  7,
				Slot:   models.SlotFreeText,
				Prompt: "That's everything I need for now, {name}. An adviser will pick things up from here. Is there anything else you'd like me to pass on?",
			},
		},
	}
}

// FallbackScript returns the minimal script used when configured script data is
// missing or corrupt: the opening line only, so a fresh session still greets the
// user instead of failing.
func FallbackScript() *Script {
	full := DefaultScript()
	return &Script{
		Name:  "debt-advice-fallback",
		Steps: full.Steps[:1],
	}
}
