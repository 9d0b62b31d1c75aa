package assets

import (
	"errors"
	"testing"
)

func TestLoadScript(t *testing.T) {
	t.Parallel()

	got, err := LoadScript(DefaultWorkerScript)
	if err != nil {
		t.Fatalf("LoadScript() error = %v", err)
	}
	if got == "" {
		t.Error("LoadScript() returned empty script")
	}

	if _, err := LoadScript(""); !errors.Is(err, ErrInvalidAssetName) {
		t.Errorf("LoadScript(\"\") error = %v, want ErrInvalidAssetName", err)
	}
}

func TestLoadTemplate(t *testing.T) {
	t.Parallel()

	got, err := LoadTemplate(DefaultPageTemplate)
	if err != nil {
		t.Fatalf("LoadTemplate() error = %v", err)
	}
	if got == "" {
		t.Error("LoadTemplate() returned empty template")
	}
}
