// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package utils

import (
	"context"
	"testing"
)

func TestGetPrincipalFromContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), PrincipalCtxKey, "alice@example.com")

	principal, ok := GetPrincipalFromContext(ctx)
	if !ok {
		t.Fatal("expected principal to be present")
	}
	if principal != "alice@example.com" {
		t.Errorf("expected alice@example.com, got %q", principal)
	}
}

func TestGetPrincipalFromContext_Missing(t *testing.T) {
	if _, ok := GetPrincipalFromContext(context.Background()); ok {
		t.Error("expected ok=false on empty context")
	}
}

func TestGetPrincipalFromContext_WrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), PrincipalCtxKey, 42)
	if _, ok := GetPrincipalFromContext(ctx); ok {
		t.Error("expected ok=false on wrong value type")
	}
}

func TestGetSessionTokenFromContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), SessionTokenCtxKey, "tok-123")

	token, ok := GetSessionTokenFromContext(ctx)
	if !ok || token != "tok-123" {
		t.Errorf("expected tok-123/true, got %q/%v", token, ok)
	}

	if _, ok := GetSessionTokenFromContext(context.Background()); ok {
		t.Error("expected ok=false on empty context")
	}
}

func TestContextKey_String(t *testing.T) {
	if PrincipalCtxKey.String() != "principal" {
		t.Errorf("unexpected key string: %s", PrincipalCtxKey.String())
	}
}
