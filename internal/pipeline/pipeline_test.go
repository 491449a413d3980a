package pipeline

import "testing"

func TestStateString(t *testing.T) {
	tt := []struct {
		state State
		want  string
	}{
		{Selected, "Selected"},
		{Cloned, "Cloned"},
		{Packaged, "Packaged"},
		{CleanedUp, "CleanedUp"},
	}
	for _, tc := range tt {
		if got := tc.state.String(); got != tc.want {
			t.Errorf("State(%d).String() = %q, want %q", tc.state, got, tc.want)
		}
	}
}

func TestRunPhaseNoCommandsIsNoOp(t *testing.T) {
	if err := runPhase("/nonexistent", nil); err != nil {
		t.Errorf("runPhase with no commands should be a no-op, got %v", err)
	}
}

func TestChrootPath(t *testing.T) {
	tt := []struct {
		name        string
		sandboxRoot string
		hostPath    string
		want        string
	}{
		{name: "build dir", sandboxRoot: "/home/user/.cache/nxpkg/nxpkg-build-1", hostPath: "/home/user/.cache/nxpkg/nxpkg-build-1/build", want: "/build"},
		{name: "nested source dir", sandboxRoot: "/home/user/.cache/nxpkg/nxpkg-build-1", hostPath: "/home/user/.cache/nxpkg/nxpkg-build-1/build/demo-src", want: "/build/demo-src"},
		{name: "sandbox root itself", sandboxRoot: "/sandbox", hostPath: "/sandbox", want: "/"},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			if got := chrootPath(tc.sandboxRoot, tc.hostPath); got != tc.want {
				t.Errorf("chrootPath(%q, %q) = %q, want %q", tc.sandboxRoot, tc.hostPath, got, tc.want)
			}
		})
	}
}

func TestLooksLikeGitURL(t *testing.T) {
	tt := []struct {
		source string
		want   bool
	}{
		{"https://example.test/repo.git", true},
		{"git@example.test:repo.git", true},
		{"/local/path/to/source", false},
		{"./relative/source", false},
	}
	for _, tc := range tt {
		if got := looksLikeGitURL(tc.source); got != tc.want {
			t.Errorf("looksLikeGitURL(%q) = %v, want %v", tc.source, got, tc.want)
		}
	}
}
