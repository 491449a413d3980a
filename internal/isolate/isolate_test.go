//go:build linux

package isolate

import "testing"

func TestResolveCommandPath(t *testing.T) {
	tt := []struct {
		name    string
		command string
		want    string
	}{
		{name: "slash path used verbatim", command: "/build/configure", want: "/build/configure"},
		{name: "relative slash path used verbatim", command: "./configure", want: "./configure"},
		{name: "bare name falls back when absent from usr/bin and bin", command: "nxpkg-test-no-such-tool", want: "nxpkg-test-no-such-tool"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got := resolveCommandPath(tc.command)
			if got != tc.want {
				t.Errorf("resolveCommandPath(%q) = %q, want %q", tc.command, got, tc.want)
			}
		})
	}
}

func TestExitCodesAreDistinct(t *testing.T) {
	codes := []int{
		ExitUnshareFailed, ExitMountProcFailed, ExitChrootFailed, ExitChdirRootFailed,
		ExitExecFailed, ExitPrivatePropFailed, ExitSetgidFailed, ExitSetuidFailed,
		ExitNonAbsoluteCwd, ExitCwdChdirFailed,
	}
	seen := make(map[int]bool)
	for _, c := range codes {
		if seen[c] {
			t.Fatalf("exit code %d used more than once", c)
		}
		seen[c] = true
	}
}
