package authgate

import "testing"

func TestIssueNonce(t *testing.T) {
	nonce, binding, err := IssueNonce("test-secret")
	if err != nil {
		t.Fatalf("IssueNonce failed: %v", err)
	}
	if len(nonce) != 32 {
		t.Errorf("expected 16 random bytes hex encoded, got %d chars", len(nonce))
	}
	if binding == "" || binding == nonce {
		t.Errorf("expected a keyed binding distinct from the nonce, got %q", binding)
	}

	nonce2, _, err := IssueNonce("test-secret")
	if err != nil {
		t.Fatalf("IssueNonce failed: %v", err)
	}
	if nonce2 == nonce {
		t.Error("expected each issued nonce to be unique")
	}
}

func TestConsumeNonce(t *testing.T) {
	nonce, binding, err := IssueNonce("test-secret")
	if err != nil {
		t.Fatalf("IssueNonce failed: %v", err)
	}

	cases := []struct {
		name      string
		presented string
		binding   string
		secret    string
		want      bool
	}{
		{"matching", nonce, binding, "test-secret", true},
		{"wrong nonce", "deadbeef", binding, "test-secret", false},
		{"wrong binding", nonce, "deadbeef", "test-secret", false},
		{"wrong secret", nonce, binding, "other-secret", false},
		{"empty nonce", "", binding, "test-secret", false},
		{"empty binding", nonce, "", "test-secret", false},
		{"both empty", "", "", "test-secret", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ConsumeNonce(tc.presented, tc.binding, tc.secret); got != tc.want {
				t.Errorf("ConsumeNonce = %v, want %v", got, tc.want)
			}
		})
	}
}
