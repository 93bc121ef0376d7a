package helper

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/relloyd/bronze/logger"
)

func TestGetStringFromInterface(t *testing.T) {
	log := logger.NewLogger("bronze", "info", true)
	cases := []struct {
		in       interface{}
		expected string
	}{
		{int64(42), "42"},
		{"abc", "abc"},
		{float64(1.25), "1.25"},
		{float64(1e21), "1000000000000000000000"},
		{true, "true"},
		{nil, ""},
		{[]uint8("bytes"), "bytes"},
		{time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC), "20230102T030405+0000"},
	}
	for idx, c := range cases {
		got := GetStringFromInterface(log, c.in, true)
		if got != c.expected {
			t.Fatalf("case %v: expected %q; got %q", idx, c.expected, got)
		}
	}
}

func TestSplitRight(t *testing.T) {
	l, r := SplitRight("snapshot_date:2023-01-01", ":")
	if l != "snapshot_date" || r != "2023-01-01" {
		t.Fatalf("unexpected split result %q, %q", l, r)
	}
	l, r = SplitRight("no-separator", ":")
	if l != "no-separator" || r != "" {
		t.Fatalf("unexpected split result without separator %q, %q", l, r)
	}
	l, r = SplitRight("a/b/c", "/")
	if l != "a/b" || r != "c" {
		t.Fatalf("unexpected split right result %q, %q", l, r)
	}
}

func TestGetTrueFalseStringAsBool(t *testing.T) {
	if !GetTrueFalseStringAsBool(" TRUE ") {
		t.Fatal("expected true for TRUE")
	}
	if GetTrueFalseStringAsBool("untrue") {
		t.Fatal("expected false for untrue")
	}
	if GetTrueFalseStringAsBool("") {
		t.Fatal("expected false for empty string")
	}
}

func TestEnvHelpers(t *testing.T) {
	name := GetPrefixedEnvVarName("snapshot-date")
	if name != "BRONZE_SNAPSHOT_DATE" {
		t.Fatalf("unexpected env var name %q", name)
	}
	_ = os.Unsetenv(name)
	if v := ReadValueFromEnvWithDefault(name, "dflt"); v != "dflt" {
		t.Fatalf("expected default value; got %q", v)
	}
	var missing string
	if err := ReadValueFromEnv(name, &missing); err == nil {
		t.Fatal("expected error for missing env var")
	}
	_ = os.Setenv(name, "2023-01-01")
	defer os.Unsetenv(name)
	var v string
	if err := ReadValueFromEnv(name, &v); err != nil || v != "2023-01-01" {
		t.Fatalf("expected value from env; got %q, %v", v, err)
	}
}

type validationTarget struct {
	SnapshotDate string `errorTxt:"snapshot date" mandatory:"yes"`
	OutputDir    string `errorTxt:"output directory" mandatory:"yes"`
	Table        string `errorTxt:"table name"`
}

func TestValidateStructIsPopulated(t *testing.T) {
	err := ValidateStructIsPopulated(&validationTarget{SnapshotDate: "2023-01-01"})
	if err == nil {
		t.Fatal("expected error for missing output directory")
	}
	if !strings.Contains(err.Error(), "output directory") || strings.Contains(err.Error(), "table name") {
		t.Fatalf("unexpected error text: %v", err)
	}
	if err := ValidateStructIsPopulated(validationTarget{SnapshotDate: "x", OutputDir: "y"}); err != nil {
		t.Fatalf("expected nil error; got %v", err)
	}
}

func TestAtomBool(t *testing.T) {
	var b AtomBool
	if b.Get() {
		t.Fatal("expected false by default")
	}
	b.Set(true)
	if !b.Get() {
		t.Fatal("expected true after Set(true)")
	}
}
