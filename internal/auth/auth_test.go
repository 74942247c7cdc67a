package auth

import (
	"errors"
	"testing"

	logs "github.com/danmuck/tpkit/internal/logging"
	"github.com/danmuck/tpkit/internal/testutil/testlog"
)

func TestStaticTokenValidate(t *testing.T) {
	testlog.Start(t)
	tests := []struct {
		name    string
		stored  string
		input   string
		wantErr error
	}{
		{name: "empty token denied", stored: "", input: "abc", wantErr: ErrUnauthorized},
		{name: "mismatched token denied", stored: "abc", input: "xyz", wantErr: ErrUnauthorized},
		{name: "matching token accepted", stored: "abc", input: "abc", wantErr: nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := (StaticToken{Token: tc.stored}).Validate(tc.input)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected err %v, got %v", tc.wantErr, err)
			}
			logs.Logf("auth/static-token: stored=%q input=%q err=%v", tc.stored, tc.input, err)
		})
	}
}

func TestCheckHeader(t *testing.T) {
	testlog.Start(t)
	v := StaticToken{Token: "s3cret"}
	cases := []struct {
		header string
		want   error
	}{
		{"Bearer s3cret", nil},
		{"bearer   s3cret ", nil},
		{"Bearer wrong", ErrUnauthorized},
		{"Basic s3cret", ErrMissingToken},
		{"Bearer ", ErrMissingToken},
		{"", ErrMissingToken},
	}
	for _, tc := range cases {
		if err := CheckHeader(v, tc.header); !errors.Is(err, tc.want) {
			t.Fatalf("header %q: expected %v, got %v", tc.header, tc.want, err)
		}
	}
}
