package util

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("FILIATIE_TEST_STRING", "value")
	t.Setenv("FILIATIE_TEST_NUMBER", "2.5")
	t.Setenv("FILIATIE_TEST_BAD_NUMBER", "many")
	t.Setenv("FILIATIE_TEST_BOOL", "true")
	t.Setenv("FILIATIE_TEST_BAD_BOOL", "yes")
	t.Setenv("FILIATIE_TEST_DURATION", "1500ms")
	t.Setenv("FILIATIE_TEST_BAD_DURATION", "soon")

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"string set", GetEnvString("FILIATIE_TEST_STRING", "x"), "value"},
		{"string unset", GetEnvString("FILIATIE_TEST_UNSET", "x"), "x"},
		{"numeric", GetEnvNumeric("FILIATIE_TEST_NUMBER", 1), 2.5},
		{"numeric invalid", GetEnvNumeric("FILIATIE_TEST_BAD_NUMBER", 7), 7.0},
		{"bool", GetEnvBool("FILIATIE_TEST_BOOL", false), true},
		{"bool invalid", GetEnvBool("FILIATIE_TEST_BAD_BOOL", false), false},
		{"duration", GetEnvDuration("FILIATIE_TEST_DURATION", 0), 1500 * time.Millisecond},
		{"duration invalid", GetEnvDuration("FILIATIE_TEST_BAD_DURATION", time.Second), time.Second},
		{"duration unset", GetEnvDuration("FILIATIE_TEST_UNSET", time.Minute), time.Minute},
		{"get unset", GetEnv("FILIATIE_TEST_UNSET"), ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Fatalf("got %v (%T), want %v (%T)", tc.got, tc.got, tc.want, tc.want)
			}
		})
	}
}

func TestLoadEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("FILIATIE_TEST_FROM_FILE=loaded\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FILIATIE_TEST_FROM_FILE", "")
	os.Unsetenv("FILIATIE_TEST_FROM_FILE")

	LoadEnv(path)

	if got := GetEnv("FILIATIE_TEST_FROM_FILE"); got != "loaded" {
		t.Fatalf("got %q, want %q", got, "loaded")
	}
}
