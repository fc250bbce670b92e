package experiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHash(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  uint32
	}{
		{name: "empty string is the seed", input: "", want: 5381},
		{name: "single ascii char", input: "a", want: 177604},
		{name: "short ascii", input: "abc", want: 193409669},
		{name: "bucket key", input: "onboarding_cta_copy:user-1", want: 2863200698},
		{name: "latin-1 char is one code unit", input: "héllo", want: 182521323},
		{name: "astral char hashes both surrogates", input: "😀", want: 5308056},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Hash(tt.input))
		})
	}
}

func TestHash_IsRepeatable(t *testing.T) {
	t.Parallel()

	key := bucketKey("onboarding_cta_copy", "m2x8k1qz_4f9a0zk2")

	assert.Equal(t, "onboarding_cta_copy:m2x8k1qz_4f9a0zk2", key)
	assert.Equal(t, Hash(key), Hash(key))
}
