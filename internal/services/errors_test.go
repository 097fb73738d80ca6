package services_test

import (
	"errors"
	"strings"
	"testing"

	"kmzgen/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	cause := errors.New("exit status 1")
	err := services.Wrap(services.ErrExternalTool, "export", "convert", "D01_Interstates", cause)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatal("expected ErrExternalTool marker")
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to be wrapped")
	}
	if !strings.Contains(err.Error(), "export: convert: D01_Interstates") {
		t.Fatalf("unexpected detail: %v", err)
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "export", "", "", nil)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected default marker, got %v", err)
	}
}

func TestFatalClassification(t *testing.T) {
	fatal := services.Wrap(services.ErrConfiguration, "discovery", "list", "layer dir missing", nil)
	if !services.Fatal(fatal) {
		t.Fatal("configuration errors must be fatal")
	}
	perItem := services.Wrap(services.ErrExternalTool, "export", "convert", "one layer", nil)
	if services.Fatal(perItem) {
		t.Fatal("export errors must not abort the run")
	}
}
