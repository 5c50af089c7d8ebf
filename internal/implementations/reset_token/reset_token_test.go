package resettoken

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGeneratedTokensAreUnique(t *testing.T) {
	tokenizer := NewHMAC("test-secret-key")

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		token := tokenizer.GenerateResetToken()
		require.NotEmpty(t, token)
		_, duplicate := seen[string(token)]
		require.False(t, duplicate)
		seen[string(token)] = struct{}{}
	}
}

func TestDigestIsStable(t *testing.T) {
	tokenizer := NewHMAC("test-secret-key")
	token := tokenizer.GenerateResetToken()

	require.Equal(t, tokenizer.DigestResetToken(token), tokenizer.DigestResetToken(token))
	require.NotEqual(t, string(token), string(tokenizer.DigestResetToken(token)))
}

func TestDigestDependsOnSecretKey(t *testing.T) {
	tokenizer := NewHMAC("test-secret-key")
	otherTokenizer := NewHMAC("other-secret-key")
	token := tokenizer.GenerateResetToken()

	require.NotEqual(t, tokenizer.DigestResetToken(token), otherTokenizer.DigestResetToken(token))
}
