package service

import (
	"errors"
	"strings"
	"testing"
)

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"User@Example.COM", "user@example.com"},
		{"  padded@example.com  ", "padded@example.com"},
		{"already@example.com", "already@example.com"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeEmail(tt.input); got != tt.want {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
		missing bool
	}{
		{name: "valid email", email: "user@example.com"},
		{name: "valid with dots and dashes", email: "first.last@my-host.example.co"},
		{name: "empty is missing", email: "", wantErr: true, missing: true},
		{name: "whitespace only is missing", email: "   ", wantErr: true, missing: true},
		{name: "no at sign", email: "userexample.com", wantErr: true},
		{name: "no domain", email: "user@", wantErr: true},
		{name: "single-letter tld", email: "user@example.c", wantErr: true},
		{name: "spaces inside", email: "us er@example.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateEmail(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
			if tt.missing {
				var missing *MissingFieldError
				if !errors.As(err, &missing) {
					t.Errorf("expected MissingFieldError, got %T", err)
				}
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{name: "valid", username: "some_user42"},
		{name: "minimum length", username: "abc"},
		{name: "maximum length", username: strings.Repeat("a", 30)},
		{name: "empty", username: "", wantErr: true},
		{name: "too short", username: "ab", wantErr: true},
		{name: "too long", username: strings.Repeat("a", 31), wantErr: true},
		{name: "spaces", username: "some user", wantErr: true},
		{name: "punctuation", username: "user!", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateUsername(%q) error = %v, wantErr %v", tt.username, err, tt.wantErr)
			}
		})
	}
}
