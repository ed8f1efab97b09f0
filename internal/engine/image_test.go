package engine

import "testing"

func TestNormalizeImage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "tag and digest", input: "nginx:1.27@sha256:abc123def456", want: "nginx:1.27"},
		{name: "registry path with digest", input: "ghcr.io/acme/api:v2@sha256:0123456789abcdef", want: "ghcr.io/acme/api:v2"},
		{name: "plain tag", input: "redis:7", want: "redis:7"},
		{name: "digest only", input: "postgres@sha256:ffff", want: "postgres"},
		{name: "bare image id", input: "sha256:4f1b8a2c9d3e5f60718293a4b5c6d7e8f9", want: "4f1b8a2c9d3e"},
		{name: "short image id", input: "sha256:abc", want: "abc"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeImage(tt.input); got != tt.want {
				t.Fatalf("NormalizeImage(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
