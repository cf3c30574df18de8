package config

import "testing"

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.ProjectsDir != "projects" {
		t.Errorf("ProjectsDir = %q, want \"projects\"", cfg.ProjectsDir)
	}
	if cfg.FPS != 60 {
		t.Errorf("FPS = %v, want 60", cfg.FPS)
	}
	if cfg.PreviewWidth != 640 {
		t.Errorf("PreviewWidth = %d, want 640", cfg.PreviewWidth)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("ANIMKIT_PROJECT", "demo.yaml")
	t.Setenv("ANIMKIT_FPS", "24")
	t.Setenv("ANIMKIT_STATS", "true")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.ProjectPath != "demo.yaml" {
		t.Errorf("ProjectPath = %q", cfg.ProjectPath)
	}
	if cfg.FPS != 24 {
		t.Errorf("FPS = %v, want 24", cfg.FPS)
	}
	if !cfg.ShowStats {
		t.Error("ShowStats should be true")
	}
}

func TestFromEnvRejectsMalformed(t *testing.T) {
	t.Setenv("ANIMKIT_FPS", "fast")
	if _, err := FromEnv(); err == nil {
		t.Error("non-numeric FPS should fail")
	}
}
