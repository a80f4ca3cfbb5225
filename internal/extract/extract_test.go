package extract

import (
	"strings"
	"testing"

	"github.com/debtbridge/DebtBridge/internal/models"
)

func TestNameExtractorLeadIn(t *testing.T) {
	tests := []struct {
		name      string
		utterance string
		want      string
		satisfied bool
	}{
		{"plain lead-in", "my name is John", "John", true},
		{"contraction lead-in", "I'm Sarah", "Sarah", true},
		{"call me", "call me Dave please", "Dave", true},
		{"two tokens", "my name is Bob Smith", "Bob Smith", true},
		{"lowercase titled", "my name is bob smith", "Bob Smith", true},
		{"lead-in into stopword", "I'm struggling with my debts", "", false},
		{"lead-in into debt vocab", "my name is debt", "", false},
		{"long narrative never scanned", "I've been struggling with debt for years and need help", "", false},
		{"question not a name", "what do you mean?", "", false},
		{"empty", "   ", "", false},
	}
	ex := &NameExtractor{}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ex.Extract(tc.utterance, Context{})
			if got.Satisfied != tc.satisfied {
				t.Fatalf("Extract(%q) satisfied = %v, want %v", tc.utterance, got.Satisfied, tc.satisfied)
			}
			if got.Slots.Name != tc.want {
				t.Errorf("Extract(%q) name = %q, want %q", tc.utterance, got.Slots.Name, tc.want)
			}
		})
	}
}

func TestNameExtractorShortReply(t *testing.T) {
	ex := &NameExtractor{}

	got := ex.Extract("Bob Smith", Context{})
	if !got.Satisfied || got.Slots.Name != "Bob Smith" {
		t.Errorf("short reply: got (%v, %q), want (true, \"Bob Smith\")", got.Satisfied, got.Slots.Name)
	}

	got = ex.Extract("mary", Context{})
	if !got.Satisfied || got.Slots.Name != "Mary" {
		t.Errorf("single token should title-case: got (%v, %q)", got.Satisfied, got.Slots.Name)
	}

	// Four tokens is narrative, not a name.
	if got := ex.Extract("I really need some help", Context{}); got.Satisfied {
		t.Errorf("long reply should not satisfy, got name %q", got.Slots.Name)
	}

	if got := ex.Extract("ok thanks", Context{}); got.Satisfied {
		t.Errorf("stopword reply should not satisfy, got name %q", got.Slots.Name)
	}

	if got := ex.Extract("£500", Context{}); got.Satisfied {
		t.Errorf("numeric reply should not satisfy, got name %q", got.Slots.Name)
	}

	if got := ex.Extract("ummm", Context{}); got.Satisfied {
		t.Errorf("filler reply should not satisfy, got name %q", got.Slots.Name)
	}
}

func TestNameExtractorProfanityEscalates(t *testing.T) {
	ex := &NameExtractor{}
	seen := make(map[string]bool)
	for retry := 0; retry < 3; retry++ {
		got := ex.Extract("fuck off", Context{Retry: retry})
		if got.Satisfied {
			t.Fatalf("retry %d: profanity must not satisfy", retry)
		}
		if got.Hint == "" {
			t.Fatalf("retry %d: expected an override hint", retry)
		}
		seen[got.Hint] = true
	}
	if len(seen) != 3 {
		t.Errorf("expected 3 distinct escalating hints, got %d", len(seen))
	}

	// Beyond the list, the last phrasing repeats rather than panicking.
	got := ex.Extract("fuck off", Context{Retry: 10})
	if got.Hint == "" {
		t.Error("retry past list end should still produce a hint")
	}
}

func TestNameFromLeadIn(t *testing.T) {
	if name, ok := NameFromLeadIn("hi there, my name's Priya by the way"); !ok || name != "Priya" {
		t.Errorf("got (%q, %v), want (\"Priya\", true)", name, ok)
	}
	if _, ok := NameFromLeadIn("I'm not sure"); ok {
		t.Error("lead-in into stopword should not match")
	}
}

func TestTextExtractor(t *testing.T) {
	ex := &TextExtractor{Field: models.SlotConcern}

	got := ex.Extract("I'm worried about my credit card debt", Context{})
	if !got.Satisfied || got.Slots.Concern == "" {
		t.Fatalf("substantive text should satisfy concern, got %+v", got)
	}

	if got := ex.Extract("ab", Context{}); got.Satisfied {
		t.Error("text below minimum length should not satisfy")
	}
	if got := ex.Extract("   ", Context{}); got.Satisfied {
		t.Error("whitespace should not satisfy")
	}
}

func TestTextExtractorHints(t *testing.T) {
	ex := &TextExtractor{Field: models.SlotConcern}
	hints := []string{"debt", "loan", "money"}

	if got := ex.Extract("my loan repayments are out of control", Context{Hints: hints}); !got.Satisfied {
		t.Error("text matching a hint should satisfy")
	}
	if got := ex.Extract("the weather has been lovely", Context{Hints: hints}); got.Satisfied {
		t.Error("text matching no hint should not satisfy")
	}
	// No hints configured accepts any non-trivial text.
	if got := ex.Extract("the weather has been lovely", Context{}); !got.Satisfied {
		t.Error("hintless step should accept any substantive text")
	}
}

func TestTextExtractorFields(t *testing.T) {
	issue := (&TextExtractor{Field: models.SlotIssue}).Extract("missed two payments", Context{})
	if issue.Slots.Issue != "missed two payments" {
		t.Errorf("issue field = %q", issue.Slots.Issue)
	}
	free := (&TextExtractor{Field: models.SlotFreeText}).Extract("thanks for the help", Context{})
	if free.Slots.FreeText != "thanks for the help" {
		t.Errorf("free text field = %q", free.Slots.FreeText)
	}
}

func TestAmountsExtractorTwoNumbers(t *testing.T) {
	ex := &AmountsExtractor{}
	got := ex.Extract("I pay £600 and could afford £200", Context{})
	if !got.Satisfied {
		t.Fatal("two amounts should satisfy")
	}
	if got.Slots.PayingAmount != 600 || got.Slots.AffordableAmount != 200 {
		t.Errorf("got paying=%v affordable=%v, want 600/200",
			got.Slots.PayingAmount, got.Slots.AffordableAmount)
	}
}

func TestAmountsExtractorFormats(t *testing.T) {
	ex := &AmountsExtractor{}
	got := ex.Extract("about 1,200 a month but I can only manage 350.50", Context{})
	if !got.Satisfied {
		t.Fatal("two amounts should satisfy")
	}
	if got.Slots.PayingAmount != 1200 {
		t.Errorf("thousands separator: paying = %v, want 1200", got.Slots.PayingAmount)
	}
	if got.Slots.AffordableAmount != 350.50 {
		t.Errorf("decimal: affordable = %v, want 350.50", got.Slots.AffordableAmount)
	}
}

func TestAmountsExtractorSingleNumber(t *testing.T) {
	ex := &AmountsExtractor{}

	got := ex.Extract("I could afford about £150", Context{})
	if got.Satisfied {
		t.Error("single amount should not satisfy on its own")
	}
	if !got.Slots.HasAffordable || got.Slots.AffordableAmount != 150 {
		t.Errorf("afford wording should fill affordable, got %+v", got.Slots)
	}
	if got.Hint == "" || !strings.Contains(got.Hint, "paying") {
		t.Errorf("partial progress should hint for the missing amount, got %q", got.Hint)
	}

	got = ex.Extract("I'm paying 600 right now", Context{})
	if !got.Slots.HasPaying || got.Slots.PayingAmount != 600 {
		t.Errorf("pay wording should fill paying, got %+v", got.Slots)
	}

	// No wording cue: first unfilled slot wins.
	got = ex.Extract("about 400", Context{})
	if !got.Slots.HasPaying {
		t.Errorf("bare amount with nothing held should fill paying, got %+v", got.Slots)
	}
	got = ex.Extract("about 400", Context{Current: models.Slots{PayingAmount: 600, HasPaying: true}})
	if !got.Slots.HasAffordable {
		t.Errorf("bare amount with paying held should fill affordable, got %+v", got.Slots)
	}
}

func TestAmountsExtractorAccumulates(t *testing.T) {
	ex := &AmountsExtractor{}
	held := models.Slots{PayingAmount: 600, HasPaying: true}
	got := ex.Extract("I could afford 200", Context{Current: held})
	if !got.Satisfied {
		t.Error("second amount should complete the pair across turns")
	}
}

func TestAmountsExtractorNoNumbers(t *testing.T) {
	ex := &AmountsExtractor{}
	got := ex.Extract("I have no idea honestly", Context{})
	if got.Satisfied || got.Slots.HasPaying || got.Slots.HasAffordable {
		t.Errorf("no numbers should extract nothing, got %+v", got)
	}
}

func TestUrgencyExtractor(t *testing.T) {
	ex := &UrgencyExtractor{}

	got := ex.Extract("no, nothing like that", Context{})
	if got.Satisfied {
		t.Error("mixed sentence containing a negative word is not a clean negative")
	}

	got = ex.Extract("not really", Context{})
	if !got.Satisfied || got.Slots.UrgencyFlag {
		t.Errorf("clean negative should satisfy without the flag, got %+v", got)
	}
	if got.Slots.UrgencyNote != "none" {
		t.Errorf("negative note = %q, want \"none\"", got.Slots.UrgencyNote)
	}

	got = ex.Extract("the bailiffs are coming next week", Context{})
	if !got.Satisfied || !got.Slots.UrgencyFlag {
		t.Errorf("marker should satisfy and set the flag, got %+v", got)
	}

	got = ex.Extract("I got a court summons yesterday", Context{})
	if !got.Satisfied || !got.Slots.UrgencyFlag {
		t.Errorf("court marker should satisfy, got %+v", got)
	}

	if got := ex.Extract("hmm let me think", Context{}); got.Satisfied {
		t.Error("unclear reply should not satisfy")
	}
}

func TestAffirmationExtractorAcknowledgement(t *testing.T) {
	ex := &AffirmationExtractor{Kind: models.SlotAcknowledgement}

	for _, u := range []string{"yes", "OK!", "sounds good", "sure, makes sense"} {
		got := ex.Extract(u, Context{})
		if !got.Satisfied || got.Slots.Acknowledged != "yes" {
			t.Errorf("Extract(%q) = %+v, want acknowledged yes", u, got)
		}
	}

	// A decline is still an answer: the step is satisfied and the dialogue moves on.
	got := ex.Extract("no thanks", Context{})
	if !got.Satisfied || got.Slots.Acknowledged != "declined" {
		t.Errorf("decline should satisfy with declined, got %+v", got)
	}

	if got := ex.Extract("what does that mean", Context{}); got.Satisfied {
		t.Error("question should not satisfy an acknowledgement step")
	}
}

func TestAffirmationExtractorConsent(t *testing.T) {
	ex := &AffirmationExtractor{Kind: models.SlotConsent}

	got := ex.Extract("yes please go ahead", Context{})
	if !got.Satisfied || got.Slots.ConsentGiven != models.ConsentGiven {
		t.Errorf("affirmative consent: got %+v", got)
	}

	got = ex.Extract("I'd rather not", Context{})
	if !got.Satisfied || got.Slots.ConsentGiven != models.ConsentDeclined {
		t.Errorf("declined consent should still satisfy, got %+v", got)
	}
}

func TestIsBareAcknowledgement(t *testing.T) {
	for _, u := range []string{"ok", "Sure!", "sounds good", "thanks", "Thank you!", "cool", "cheers"} {
		if !IsBareAcknowledgement(u) {
			t.Errorf("IsBareAcknowledgement(%q) = false, want true", u)
		}
	}
	for _, u := range []string{"ok but what about my loan", "no", "hello"} {
		if IsBareAcknowledgement(u) {
			t.Errorf("IsBareAcknowledgement(%q) = true, want false", u)
		}
	}
}

func TestCourtesyAcksNeverSatisfyConsent(t *testing.T) {
	for _, kind := range []models.SlotKind{models.SlotAcknowledgement, models.SlotConsent} {
		ex := &AffirmationExtractor{Kind: kind}
		for _, u := range []string{"thanks", "thank you", "cool", "cheers"} {
			if got := ex.Extract(u, Context{}); got.Satisfied {
				t.Errorf("Extract(%q) for %s = %+v, want unsatisfied", u, kind, got)
			}
		}
	}
}

func TestRunFallsBackToFreeText(t *testing.T) {
	got := Run(models.SlotKind("made-up"), "something substantive", Context{})
	if !got.Satisfied || got.Slots.FreeText == "" {
		t.Errorf("unknown kind should degrade to free text, got %+v", got)
	}
}

func TestRegistryCoversScriptKinds(t *testing.T) {
	for _, kind := range []models.SlotKind{
		models.SlotName, models.SlotConcern, models.SlotIssue,
		models.SlotAmounts, models.SlotUrgency,
		models.SlotAcknowledgement, models.SlotConsent, models.SlotFreeText,
	} {
		if _, ok := Get(kind); !ok {
			t.Errorf("no extractor registered for %q", kind)
		}
	}
}
