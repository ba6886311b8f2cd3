package service

import (
	"regexp"
	"testing"
	"time"
)

var contractNumberPattern = regexp.MustCompile(`^SC-\d{8}-[A-Z2-7]{16}$`)

func TestNewContractNumber_Format(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	number, err := NewContractNumber(now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !contractNumberPattern.MatchString(number) {
		t.Fatalf("contract number %q does not match expected format", number)
	}
	if number[3:11] != "20260314" {
		t.Fatalf("expected date segment 20260314, got %q", number[3:11])
	}
}

func TestNewContractNumber_Unique(t *testing.T) {
	seen := make(map[string]bool)
	now := time.Now()
	for i := 0; i < 1000; i++ {
		number, err := NewContractNumber(now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if seen[number] {
			t.Fatalf("duplicate contract number %q", number)
		}
		seen[number] = true
	}
}
