package config

import "testing"

func TestZeroConfigIsStrictMode(t *testing.T) {
	var c Config
	if c.DisableFixes || c.DisableHRDVerifier || c.HDMV.ForceRetiming {
		t.Fatalf("expected a zero Config to disable nothing: %+v", c)
	}
}

func TestDefaultLogConfigMatchesTeacherRotationSettings(t *testing.T) {
	lc := DefaultLogConfig("/var/log/escore/escore.log")
	if lc.MaxSizeMB != 500 || lc.MaxBackups != 10 || lc.MaxAgeDays != 28 {
		t.Errorf("unexpected rotation settings: %+v", lc)
	}
	if !lc.Suppress {
		t.Errorf("expected Suppress to default true")
	}
}
