package cli

import (
	"testing"

	"github.com/spf13/cobra"
)

func TestCompleteScenario(t *testing.T) {
	exts, dir := completeScenario(nil, nil, "")
	if dir != cobra.ShellCompDirectiveFilterFileExt || len(exts) != 2 {
		t.Errorf("first argument should complete scenario files, got %v %v", exts, dir)
	}
	if _, dir := completeScenario(nil, []string{"s.json"}, ""); dir == cobra.ShellCompDirectiveFilterFileExt {
		t.Error("only one scenario argument is accepted")
	}
}
