package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/amobagan/nutristream/mockbackend"
)

func TestIssueToken(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yml")
	yml := "server:\n  secret: mock-test-secret-0123456\n  token_ttl: 2h\n"
	if err := os.WriteFile(cfgPath, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}

	var out, errOut bytes.Buffer
	if err := run(context.Background(), []string{"-config", cfgPath, "-issue-token", "alice"}, &out, &errOut); err != nil {
		t.Fatalf("run: %v (%s)", err, errOut.String())
	}
	claims, err := mockbackend.NewTokenVerifier("mock-test-secret-0123456", "nutrition-mock").
		Verify(strings.TrimSpace(out.String()))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "alice" {
		t.Errorf("subject = %q", claims.Subject)
	}
	if ttl := time.Until(claims.ExpiresAt.Time); ttl < time.Hour || ttl > 2*time.Hour {
		t.Errorf("ttl = %s", ttl)
	}
}

func TestRunRejectsBadConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(cfgPath, []byte("server:\n  secret: short\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	var out, errOut bytes.Buffer
	if err := run(context.Background(), []string{"-config", cfgPath, "-issue-token", "x"}, &out, &errOut); err == nil {
		t.Error("short secret should fail validation")
	}
}

func TestRunVersion(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), []string{"-version"}, &out, &out); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), serviceName+"/") {
		t.Errorf("out = %q", out.String())
	}
}
