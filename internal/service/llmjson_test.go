package service

import "testing"

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "bare object",
			input: `{"message": "hi"}`,
			want:  `{"message": "hi"}`,
		},
		{
			name:  "json fence",
			input: "```json\n{\"message\": \"hi\"}\n```",
			want:  `{"message": "hi"}`,
		},
		{
			name:  "bare fence",
			input: "```\n{\"message\": \"hi\"}\n```",
			want:  `{"message": "hi"}`,
		},
		{
			name:  "surrounding prose",
			input: "Here is the plan you asked for:\n{\"message\": \"hi\"}\nLet me know!",
			want:  `{"message": "hi"}`,
		},
		{
			name:  "no object",
			input: "I could not produce a plan.",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSONObject(tt.input); got != tt.want {
				t.Errorf("extractJSONObject(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExtractJSONArray(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "bare array",
			input: `["a", "b"]`,
			want:  `["a", "b"]`,
		},
		{
			name:  "fenced array",
			input: "```json\n[{\"channelId\": \"c1\"}]\n```",
			want:  `[{"channelId": "c1"}]`,
		},
		{
			name:  "no array",
			input: "nothing here",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSONArray(tt.input); got != tt.want {
				t.Errorf("extractJSONArray(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
