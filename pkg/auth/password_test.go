package auth

import "testing"

func TestGenerateAndVerify(t *testing.T) {
	hash, salt, err := GenerateHashAndSalt("hunter2")
	if err != nil {
		t.Fatalf("GenerateHashAndSalt() error = %v", err)
	}
	if len(salt) != 32 {
		t.Errorf("salt length = %d, want 32 hex chars", len(salt))
	}
	if !VerifyPassword("hunter2", salt, hash) {
		t.Error("VerifyPassword() rejected the right password")
	}
	if VerifyPassword("hunter3", salt, hash) {
		t.Error("VerifyPassword() accepted the wrong password")
	}
	if VerifyPassword("hunter2", "other-salt", hash) {
		t.Error("VerifyPassword() accepted the wrong salt")
	}
}

func TestVerifyPasswordEmptyHash(t *testing.T) {
	if VerifyPassword("", "", "") {
		t.Error("an empty hash must never verify")
	}
}

func TestHashPasswordWithSaltKnownValue(t *testing.T) {
	// sha256("abc")
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := HashPasswordWithSalt("a", "bc"); got != want {
		t.Errorf("HashPasswordWithSalt() = %s, want %s", got, want)
	}
}
