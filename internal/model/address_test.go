package model

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    CanonicalAddress
		wantErr error
	}{
		{
			name: "bare hostname",
			raw:  "lemmy.ml",
			want: "lemmy.ml",
		},
		{
			name: "https scheme stripped",
			raw:  "https://lemmy.ml",
			want: "lemmy.ml",
		},
		{
			name: "http scheme stripped",
			raw:  "http://lemmy.ml",
			want: "lemmy.ml",
		},
		{
			name: "path stripped",
			raw:  "lemmy.ml/api/v3/site",
			want: "lemmy.ml",
		},
		{
			name: "trailing slash stripped",
			raw:  "https://lemmy.ml/",
			want: "lemmy.ml",
		},
		{
			name: "query and fragment stripped",
			raw:  "lemmy.ml?foo=1#bar",
			want: "lemmy.ml",
		},
		{
			name: "userinfo stripped",
			raw:  "admin@lemmy.ml",
			want: "lemmy.ml",
		},
		{
			name: "at sign in path kept out of host",
			raw:  "mastodon.social/@gargron",
			want: "mastodon.social",
		},
		{
			name: "userinfo and profile path together",
			raw:  "https://admin@mastodon.social/@gargron#main",
			want: "mastodon.social",
		},
		{
			name: "host lowercased",
			raw:  "Lemmy.ML",
			want: "lemmy.ml",
		},
		{
			name: "trailing dot stripped",
			raw:  "lemmy.ml.",
			want: "lemmy.ml",
		},
		{
			name: "explicit port preserved",
			raw:  "lemmy.ml:8536",
			want: "lemmy.ml:8536",
		},
		{
			name: "unicode hostname converted to punycode",
			raw:  "féddit.example",
			want: "xn--fddit-csa.example",
		},
		{
			name: "ipv4 literal passes through",
			raw:  "192.0.2.10",
			want: "192.0.2.10",
		},
		{
			name: "bracketed ipv6 literal with port",
			raw:  "[2001:db8::1]:8080",
			want: "[2001:db8::1]:8080",
		},
		{
			name:    "empty input",
			raw:     "",
			wantErr: ErrEmptyAddress,
		},
		{
			name:    "whitespace only",
			raw:     "   ",
			wantErr: ErrEmptyAddress,
		},
		{
			name:    "scheme only",
			raw:     "https://",
			wantErr: ErrEmptyAddress,
		},
		{
			name:    "path only",
			raw:     "/instances",
			wantErr: ErrEmptyAddress,
		},
		{
			name:    "invalid port",
			raw:     "lemmy.ml:99999",
			wantErr: ErrInvalidAddress,
		},
		{
			name:    "non-numeric port",
			raw:     "lemmy.ml:abc",
			wantErr: ErrInvalidAddress,
		},
		{
			name:    "invalid label",
			raw:     "exa mple.com",
			wantErr: ErrInvalidAddress,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Normalize(tt.raw)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Normalize(%q) error = %v, want %v", tt.raw, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize(%q) unexpected error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

// TestNormalizeDeterministic verifies the purity contract the visited-set
// deduplication depends on: identical input yields identical output.
func TestNormalizeDeterministic(t *testing.T) {
	t.Parallel()

	inputs := []string{"lemmy.ml", "https://Sopuli.XYZ/path", "féddit.example", "lemmy.ml:8536"}
	for _, raw := range inputs {
		first, err1 := Normalize(raw)
		second, err2 := Normalize(raw)
		if err1 != nil || err2 != nil {
			t.Fatalf("Normalize(%q) errored: %v / %v", raw, err1, err2)
		}
		if first != second {
			t.Errorf("Normalize(%q) not deterministic: %q vs %q", raw, first, second)
		}
	}
}

// TestNormalizeFixedPoint verifies that normalizing canonical output is a
// fixed point: Normalize(Normalize(x)) == Normalize(x).
func TestNormalizeFixedPoint(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"https://Lemmy.ML/instances",
		"beehaw.org",
		"féddit.example",
		"[2001:db8::1]:8080",
		"mastodon.social:443",
	}
	for _, raw := range inputs {
		once, err := Normalize(raw)
		if err != nil {
			t.Fatalf("Normalize(%q) unexpected error: %v", raw, err)
		}
		twice, err := Normalize(once.String())
		if err != nil {
			t.Fatalf("Normalize(%q) unexpected error: %v", once, err)
		}
		if once != twice {
			t.Errorf("Normalize not a fixed point for %q: %q vs %q", raw, once, twice)
		}
	}
}
