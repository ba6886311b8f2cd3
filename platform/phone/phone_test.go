package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	cases := map[string]string{
		"612 345 678":     "+34612345678",
		"+34 612 345 678": "+34612345678",
		"  912345678  ":   "+34912345678",
		"not a number":    "not a number",
		"":                "",
	}
	for input, want := range cases {
		if got := NormalizeE164(input); got != want {
			t.Fatalf("NormalizeE164(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestIsValid(t *testing.T) {
	if !IsValid("612345678") {
		t.Fatal("expected Spanish mobile to be valid")
	}
	if IsValid("12") {
		t.Fatal("expected short number to be invalid")
	}
	if IsValid("") {
		t.Fatal("expected empty input to be invalid")
	}
}
