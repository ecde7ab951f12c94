package crypto

import (
	"encoding/base64"
	"encoding/hex"
	"strings"
	"testing"
)

func TestGenerateHashedToken(t *testing.T) {
	// Act
	pair, err := GenerateHashedToken()

	// Assert
	if err != nil {
		t.Fatalf("GenerateHashedToken() error = %v", err)
	}
	if pair.Token == "" {
		t.Fatal("GenerateHashedToken() returned empty token")
	}
	if pair.Hash != HashToken(pair.Token) {
		t.Error("Hash does not match HashToken(Token)")
	}

	decoded, err := base64.RawURLEncoding.DecodeString(pair.Token)
	if err != nil {
		t.Fatalf("failed to decode token: %v", err)
	}
	if len(decoded) != DefaultTokenLength {
		t.Errorf("token length = %d bytes, want %d", len(decoded), DefaultTokenLength)
	}
	if strings.ContainsAny(pair.Token, "+/= ") {
		t.Errorf("token contains URL-unsafe characters: %q", pair.Token)
	}
}

func TestGenerateHashedToken_Unique(t *testing.T) {
	tokens := make(map[string]bool)
	iterations := 1000

	for i := 0; i < iterations; i++ {
		pair, err := GenerateHashedToken()
		if err != nil {
			t.Fatalf("iteration %d: GenerateHashedToken() error = %v", i, err)
		}
		if tokens[pair.Token] {
			t.Fatalf("duplicate token generated: %q", pair.Token)
		}
		tokens[pair.Token] = true
	}
}

func TestGenerateState(t *testing.T) {
	state, err := GenerateState()
	if err != nil {
		t.Fatalf("GenerateState() error = %v", err)
	}

	decoded, err := base64.RawURLEncoding.DecodeString(state)
	if err != nil {
		t.Fatalf("failed to decode state: %v", err)
	}
	if len(decoded) != StateLength {
		t.Errorf("state length = %d bytes, want %d", len(decoded), StateLength)
	}
}

func TestHashToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{name: "simple token", token: "my-token"},
		{name: "empty token", token: ""},
		{name: "long token", token: strings.Repeat("a", 512)},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			// Act
			hash := HashToken(test.token)

			// Assert: hex-encoded sha256, and deterministic
			if _, err := hex.DecodeString(hash); err != nil {
				t.Errorf("HashToken() returned non-hex output: %v", err)
			}
			if len(hash) != 64 {
				t.Errorf("hash length = %d, want 64", len(hash))
			}
			if HashToken(test.token) != hash {
				t.Error("HashToken() is not deterministic")
			}
		})
	}
}

func TestVerifyToken(t *testing.T) {
	pair, err := GenerateHashedToken()
	if err != nil {
		t.Fatalf("GenerateHashedToken() error = %v", err)
	}

	tests := []struct {
		name    string
		token   string
		hash    string
		wantOk  bool
		wantErr bool
	}{
		{name: "valid pair", token: pair.Token, hash: pair.Hash, wantOk: true},
		{name: "wrong token", token: "forged", hash: pair.Hash, wantOk: false},
		{name: "wrong hash", token: pair.Token, hash: HashToken("other"), wantOk: false},
		{name: "empty token", token: "", hash: pair.Hash, wantErr: true},
		{name: "empty hash", token: pair.Token, hash: "", wantErr: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ok, err := VerifyToken(test.token, test.hash)
			if (err != nil) != test.wantErr {
				t.Fatalf("VerifyToken() error = %v, wantErr %v", err, test.wantErr)
			}
			if ok != test.wantOk {
				t.Errorf("VerifyToken() = %v, want %v", ok, test.wantOk)
			}
		})
	}
}
