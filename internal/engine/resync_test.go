package engine

import (
	"testing"

	"github.com/debtbridge/DebtBridge/internal/models"
	"github.com/debtbridge/DebtBridge/internal/script"
)

func assistantTurn(body string) models.Turn {
	return models.Turn{Role: models.RoleAssistant, Body: body}
}

func userTurn(body string) models.Turn {
	return models.Turn{Role: models.RoleUser, Body: body}
}

func TestResyncMatchesHighestStep(t *testing.T) {
	sc := script.DefaultScript()
	transcript := []models.Turn{
		assistantTurn(renderPrompt(sc.Step(0), models.Slots{})),
		userTurn("Bob"),
		assistantTurn(renderPrompt(sc.Step(1), models.Slots{Name: "Bob"})),
		userTurn("credit card debt"),
		assistantTurn(renderPrompt(sc.Step(2), models.Slots{Name: "Bob"})),
	}

	if got := resyncIndex(sc, transcript, 0); got != 2 {
		t.Errorf("resyncIndex = %d, want 2", got)
	}
}

func TestResyncIgnoresDirectiveTags(t *testing.T) {
	sc := script.DefaultScript()
	// Raw prompt with the tag still embedded, as an older client might store it.
	transcript := []models.Turn{assistantTurn(sc.Step(3).Prompt)}
	if got := resyncIndex(sc, transcript, 0); got != 3 {
		t.Errorf("resyncIndex = %d, want 3", got)
	}
}

func TestResyncMatchesNameSubstitutedPrompt(t *testing.T) {
	sc := script.DefaultScript()
	transcript := []models.Turn{
		assistantTurn("Thanks Priya. What's worrying you most about your money at the moment?"),
	}
	if got := resyncIndex(sc, transcript, 0); got != 1 {
		t.Errorf("resyncIndex = %d, want 1", got)
	}
}

func TestResyncMatchesReaskPhrasing(t *testing.T) {
	sc := script.DefaultScript()
	transcript := []models.Turn{
		assistantTurn("Sorry, I didn't catch that. What should I call you?"),
	}
	if got := resyncIndex(sc, transcript, 0); got != 0 {
		t.Errorf("resyncIndex = %d, want 0", got)
	}
}

func TestResyncForwardOnly(t *testing.T) {
	sc := script.DefaultScript()
	transcript := []models.Turn{
		assistantTurn(renderPrompt(sc.Step(1), models.Slots{Name: "Bob"})),
	}

	// A declared index ahead of the transcript is kept.
	if got := resyncIndex(sc, transcript, 4); got != 4 {
		t.Errorf("declared ahead: resyncIndex = %d, want 4", got)
	}
	// A declared index behind the transcript is corrected forward.
	if got := resyncIndex(sc, transcript, 0); got != 1 {
		t.Errorf("declared behind: resyncIndex = %d, want 1", got)
	}
}

func TestResyncKindHeuristic(t *testing.T) {
	sc := script.DefaultScript()
	// Paraphrased wording no fingerprint will match.
	transcript := []models.Turn{
		assistantTurn("So roughly how much goes towards what you owe monthly, and what could you afford instead?"),
	}
	if got := resyncIndex(sc, transcript, 0); got != 3 {
		t.Errorf("resyncIndex = %d, want amounts step 3", got)
	}
}

func TestResyncNoSignalDefaultsToDeclared(t *testing.T) {
	sc := script.DefaultScript()
	transcript := []models.Turn{
		assistantTurn("Something entirely unrecognizable."),
		userTurn("???"),
	}
	if got := resyncIndex(sc, transcript, 2); got != 2 {
		t.Errorf("resyncIndex = %d, want declared 2", got)
	}
	if got := resyncIndex(sc, transcript, 0); got != 0 {
		t.Errorf("resyncIndex = %d, want 0", got)
	}
}

func TestResyncClampsToLastIndex(t *testing.T) {
	sc := script.DefaultScript()
	if got := resyncIndex(sc, []models.Turn{assistantTurn("hi")}, 99); got != sc.LastIndex() {
		t.Errorf("resyncIndex = %d, want clamped %d", got, sc.LastIndex())
	}
}

func TestResyncIdempotent(t *testing.T) {
	sc := script.DefaultScript()
	transcript := []models.Turn{
		assistantTurn(renderPrompt(sc.Step(0), models.Slots{})),
		userTurn("Bob"),
		assistantTurn(renderPrompt(sc.Step(1), models.Slots{Name: "Bob"})),
	}
	first := resyncIndex(sc, transcript, 0)
	for i := 0; i < 5; i++ {
		if got := resyncIndex(sc, transcript, 0); got != first {
			t.Fatalf("run %d: resyncIndex = %d, want stable %d", i, got, first)
		}
	}
}

func TestResyncWindowBounded(t *testing.T) {
	sc := script.DefaultScript()
	// An old high-index prompt followed by enough filler pushes it out of the window.
	transcript := []models.Turn{
		assistantTurn(renderPrompt(sc.Step(5), models.Slots{})),
	}
	for i := 0; i < models.TranscriptWindow; i++ {
		transcript = append(transcript, userTurn("filler"))
	}
	if got := resyncIndex(sc, transcript, 1); got != 1 {
		t.Errorf("resyncIndex = %d, want 1 once the match left the window", got)
	}
}

func TestVaryReply(t *testing.T) {
	prompt := "Could you tell me your name?"
	fp := Fingerprint(prompt)

	if got := varyReply(prompt, ""); got != prompt {
		t.Errorf("no prior fingerprint: got %q", got)
	}
	if got := varyReply("Something different entirely.", fp); got != "Something different entirely." {
		t.Errorf("different prompt should pass unchanged, got %q", got)
	}

	varied := varyReply(prompt, fp)
	if varied == prompt {
		t.Fatal("identical prompt should be rephrased")
	}
	if Fingerprint(varied) == fp {
		t.Error("varied reply should carry a new fingerprint")
	}
}
