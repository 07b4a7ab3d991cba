package queue

import "testing"

func TestParseStatus(t *testing.T) {
	if status, ok := ParseStatus("  Narrating "); !ok || status != StatusNarrating {
		t.Fatalf("expected narrating, got %q ok=%v", status, ok)
	}
	if _, ok := ParseStatus("publishing"); ok {
		t.Fatal("expected unknown status to be rejected")
	}
	if _, ok := ParseStatus(""); ok {
		t.Fatal("expected blank status to be rejected")
	}
}

func TestFingerprintNormalizesWhitespace(t *testing.T) {
	a := Fingerprint("Blessed are\nthe meek")
	b := Fingerprint("  Blessed   are the\tmeek ")
	if a == "" || a != b {
		t.Fatalf("expected equal fingerprints, got %q and %q", a, b)
	}
	if Fingerprint("   ") != "" {
		t.Fatal("expected empty fingerprint for blank text")
	}
}

func TestEveryProcessingStatusHasRollback(t *testing.T) {
	for status := range processingStatuses {
		if RollbackStatus(status) == status {
			t.Fatalf("processing status %s has no rollback", status)
		}
	}
}
