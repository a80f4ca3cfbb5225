package directive

import "testing"

func TestParseSingleTag(t *testing.T) {
	clean, dirs := Parse("Hello [UI: popup=X] world")
	if clean != "Hello world" {
		t.Errorf("clean = %q, want %q", clean, "Hello world")
	}
	if dirs["popup"] != "X" {
		t.Errorf("directives = %v, want popup=X", dirs)
	}
}

func TestParseMultipleTagsAccumulate(t *testing.T) {
	clean, dirs := Parse("Start [UI: popup=signup; theme=dark] middle [UI: badge=beta] end")
	if clean != "Start middle end" {
		t.Errorf("clean = %q", clean)
	}
	want := map[string]string{"popup": "signup", "theme": "dark", "badge": "beta"}
	for k, v := range want {
		if dirs[k] != v {
			t.Errorf("directive %q = %q, want %q", k, dirs[k], v)
		}
	}
}

func TestParseIdempotentOnCleanText(t *testing.T) {
	in := "Just a plain prompt with no tags."
	clean, dirs := Parse(in)
	if clean != in {
		t.Errorf("clean text changed: %q", clean)
	}
	if len(dirs) != 0 {
		t.Errorf("directives on clean text: %v", dirs)
	}

	// Parsing the output of a parse must also be stable.
	once, _ := Parse("A [UI: k=v] B")
	twice, dirs2 := Parse(once)
	if once != twice {
		t.Errorf("second parse changed text: %q vs %q", once, twice)
	}
	if len(dirs2) != 0 {
		t.Errorf("second parse produced directives: %v", dirs2)
	}
}

func TestParseBareKeyAndDuplicates(t *testing.T) {
	_, dirs := Parse("x [UI: hide_input] y [UI: popup=a] z [UI: popup=b]")
	if _, ok := dirs["hide_input"]; !ok {
		t.Error("bare key dropped")
	}
	if dirs["popup"] != "b" {
		t.Errorf("later duplicate should win, got %q", dirs["popup"])
	}
}

func TestParseCollapsesWhitespace(t *testing.T) {
	clean, _ := Parse("  Hello   [UI: a=1]   there  ")
	if clean != "Hello there" {
		t.Errorf("clean = %q", clean)
	}
}

func TestStrip(t *testing.T) {
	if got := Strip("Hi [UI: popup=now] friend"); got != "Hi friend" {
		t.Errorf("Strip = %q", got)
	}
}
