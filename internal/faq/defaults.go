package faq

// Default returns the built-in debt-advice knowledge base used when no FAQ file is
// configured.
func Default() *KnowledgeBase {
	return New([]Entry{
		{
			Question: "is this service free",
			Tags:     []string{"free", "cost", "charge", "fee"},
			Answer:   "Yes, DebtBridge advice is completely free and always will be.",
		},
		{
			Question: "is this confidential",
			Tags:     []string{"confidential", "private", "share", "data"},
			Answer:   "Everything you tell me stays confidential. We never share your details without your permission.",
		},
		{
			Question: "will this affect my credit score",
			Tags:     []string{"credit", "score", "rating", "file"},
			Answer:   "Talking to us has no effect on your credit score. Some debt solutions can affect it, and an adviser will always explain that before anything goes ahead.",
		},
		{
			Question: "what is a debt management plan",
			Tags:     []string{"dmp", "plan", "management", "solution"},
			Answer:   "A debt management plan is an informal agreement to repay your debts at a rate you can afford. An adviser can check whether one suits your situation.",
		},
		{
			Question: "can bailiffs come to my house",
			Tags:     []string{"bailiff", "enforcement", "visit", "door"},
			Answer:   "Bailiffs must follow strict rules and usually can't force entry on a first visit. If bailiffs are involved, tell me and we'll treat your case as urgent.",
		},
		{
			Question: "do i have to talk to my creditors",
			Tags:     []string{"creditor", "lender", "contact", "calls"},
			Answer:   "You don't have to face creditors alone. Once you have a plan, we can help you deal with them, and many stop chasing while a plan is set up.",
		},
		{
			Question: "how long does this take",
			Tags:     []string{"long", "time", "quick", "take"},
			Answer:   "These first questions take a few minutes. A full advice session with an adviser usually takes under an hour.",
		},
		{
			Question: "are you a real person",
			Tags:     []string{"real", "person", "human", "robot", "bot"},
			Answer:   "I'm DebtBridge's automated assistant. I gather the basics so a real adviser can help you faster.",
		},
	})
}
