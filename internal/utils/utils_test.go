package utils

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestIsIP(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"127.0.0.1", true},
		{"[::1]", true},
		{"::1", true},
		{"localhost", false},
		{"example.org", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsIP(tt.in); got != tt.want {
			t.Errorf("IsIP(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetLogLevel(t *testing.T) {
	defer Log.SetLevel(logrus.InfoLevel)

	tests := []struct {
		in      string
		want    logrus.Level
		wantErr bool
	}{
		{"debug", logrus.DebugLevel, false},
		{"WARN", logrus.WarnLevel, false},
		{"warning", logrus.WarnLevel, false},
		{" error ", logrus.ErrorLevel, false},
		{"trace", logrus.ErrorLevel, true},
	}
	for _, tt := range tests {
		err := SetLogLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("SetLogLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if Log.GetLevel() != tt.want {
			t.Errorf("after SetLogLevel(%q) level = %v, want %v", tt.in, Log.GetLevel(), tt.want)
		}
	}
}

func TestFileLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	l, err := NewFileLock(path)
	if err != nil {
		t.Fatalf("NewFileLock: %v", err)
	}
	if err := l.Lock(); err != nil {
		t.Fatalf("Lock: %v", err)
	}

	other, _ := NewFileLock(path)
	locked, err := other.lock.TryLock()
	if err != nil {
		t.Fatalf("TryLock: %v", err)
	}
	if locked {
		t.Fatal("second lock on the same file should not be acquired")
	}

	if err := l.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if err := other.Lock(); err != nil {
		t.Fatalf("Lock after release: %v", err)
	}
	_ = other.Unlock()
}

func TestGetAbsDBPath(t *testing.T) {
	p, err := GetAbsDBPath("rel.sqlite")
	if err != nil || !filepath.IsAbs(p) {
		t.Fatalf("GetAbsDBPath = %q, %v", p, err)
	}
	p, err = GetAbsDBPath("")
	if err != nil || filepath.Base(p) != "versemark.sqlite" {
		t.Fatalf("default path = %q, %v", p, err)
	}
}
