package integrity

import "testing"

type samplePayload struct {
	Subject string `json:"subject"`
	Action  string `json:"action"`
	Count   int    `json:"count"`
}

func TestDigestDeterministic(t *testing.T) {
	p := samplePayload{Subject: "agent-1", Action: "tool_invoked", Count: 3}

	a, err := Digest(p, GenesisHash)
	if err != nil {
		t.Fatalf("digest error: %v", err)
	}
	b, err := Digest(p, GenesisHash)
	if err != nil {
		t.Fatalf("digest error: %v", err)
	}
	if a != b {
		t.Fatalf("expected identical digests, got %s and %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected 64-char sha256 hex digest, got %d chars", len(a))
	}
}

func TestDigestDependsOnPrevHash(t *testing.T) {
	p := samplePayload{Subject: "agent-1", Action: "tool_invoked"}

	a, err := Digest(p, GenesisHash)
	if err != nil {
		t.Fatalf("digest error: %v", err)
	}
	b, err := Digest(p, a)
	if err != nil {
		t.Fatalf("digest error: %v", err)
	}
	if a == b {
		t.Fatalf("expected digest to change with previous hash")
	}
}

func TestDigestDependsOnPayload(t *testing.T) {
	a, err := Digest(samplePayload{Subject: "agent-1"}, GenesisHash)
	if err != nil {
		t.Fatalf("digest error: %v", err)
	}
	b, err := Digest(samplePayload{Subject: "agent-2"}, GenesisHash)
	if err != nil {
		t.Fatalf("digest error: %v", err)
	}
	if a == b {
		t.Fatalf("expected different payloads to produce different digests")
	}
}

func TestCanonicalizeStableKeyOrder(t *testing.T) {
	a, err := Canonicalize([]byte(`{"b":2,"a":1}`))
	if err != nil {
		t.Fatalf("canonicalize error: %v", err)
	}
	b, err := Canonicalize([]byte(`{ "a":1, "b":2 }`))
	if err != nil {
		t.Fatalf("canonicalize error: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("expected same canonical form, got %s and %s", a, b)
	}
}

func TestDigestUnmarshalablePayload(t *testing.T) {
	if _, err := Digest(make(chan int), GenesisHash); err == nil {
		t.Fatalf("expected error for unmarshalable payload")
	}
}
