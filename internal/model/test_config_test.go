package model

import "testing"

func TestDisplayNameFallbackChain(t *testing.T) {
	sessionID := "3f8a9c12-0000-0000-0000-000000000000"

	cases := []struct {
		name string
		cfg  *TestConfig
		want string
	}{
		{
			"explicit name wins",
			&TestConfig{TestName: "Morning mock", CustomConfig: &CustomConfig{TestName: "Ignored"}},
			"Morning mock",
		},
		{
			"custom config name",
			&TestConfig{CustomConfig: &CustomConfig{TestName: "Physics drill"}},
			"Physics drill",
		},
		{
			"session id prefix",
			&TestConfig{},
			"Test: 3f8a9c12",
		},
		{
			"nil config",
			nil,
			"Test: 3f8a9c12",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.cfg.DisplayName(sessionID); got != tc.want {
				t.Errorf("DisplayName = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDisplayNameShortSessionID(t *testing.T) {
	var cfg *TestConfig
	if got := cfg.DisplayName("abc"); got != "Test: abc" {
		t.Errorf("DisplayName = %q, want %q", got, "Test: abc")
	}
}
