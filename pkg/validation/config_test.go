package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestConfigValidator_Fluent(t *testing.T) {
	err := NewConfigValidator("ExportConfig").
		Required("Theme", "default").
		RangeInt("Width", 1200, 1, 10000).
		RangeFloat("Threshold", 0.5, 0, 1).
		OneOf("Format", "json", []string{"json", "d3", "svg"}).
		NonNegative("Seed", 0).
		Validate()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestConfigValidator_CollectsAll(t *testing.T) {
	cv := NewConfigValidator("LayoutConfig").
		RangeInt("BaseSize", -1, 0, 1000).
		RangeFloat("Threshold", 1.5, 0, 1).
		OneOf("Layout", "spiral", []string{"circular", "force"})

	if len(cv.Errors()) != 3 {
		t.Fatalf("expected 3 errors, got %d", len(cv.Errors()))
	}
	err := cv.Validate()
	if err == nil || !strings.Contains(err.Error(), "LayoutConfig.BaseSize") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestConfigValidator_CustomAndWhen(t *testing.T) {
	sentinel := errors.New("bad")
	cv := NewConfigValidator("C").
		Custom("X", func() error { return sentinel }).
		When(false, func(cv *ConfigValidator) { cv.Required("Y", "") }).
		When(true, func(cv *ConfigValidator) { cv.Required("Z", "") })

	if len(cv.Errors()) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(cv.Errors()))
	}
	if !errors.Is(cv.Validate(), sentinel) {
		t.Error("expected joined error to wrap the custom error")
	}
}

func TestDefaults(t *testing.T) {
	if DefaultOr("", "default") != "default" || DefaultOr("dark", "default") != "dark" {
		t.Error("DefaultOr")
	}
	if DefaultOrInt(0, 30) != 30 || DefaultOrInt(-2, 30) != 30 || DefaultOrInt(12, 30) != 12 {
		t.Error("DefaultOrInt")
	}
	if DefaultOrFloat(0, 0.5) != 0.5 || DefaultOrFloat(0.25, 0.5) != 0.25 {
		t.Error("DefaultOrFloat")
	}
	if ClampInt(-1, 0, 10) != 0 || ClampInt(11, 0, 10) != 10 || ClampInt(5, 0, 10) != 5 {
		t.Error("ClampInt")
	}
}
