package cmd

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestMustGetFlags(t *testing.T) {
	c := &cobra.Command{Use: "test"}
	c.Flags().Bool("json", false, "")
	c.Flags().Int("limit", 10, "")
	c.Flags().String("title", "", "")
	c.Flags().Float64("tolerance", 0.6, "")
	if err := c.Flags().Parse([]string{"--json", "--limit", "3", "--title", "irisu"}); err != nil {
		t.Fatal(err)
	}

	if !mustGetBool(c, "json") {
		t.Error("mustGetBool() = false, want true")
	}
	if got := mustGetInt(c, "limit"); got != 3 {
		t.Errorf("mustGetInt() = %d, want 3", got)
	}
	if got := mustGetString(c, "title"); got != "irisu" {
		t.Errorf("mustGetString() = %q, want irisu", got)
	}
	if got := mustGetFloat64(c, "tolerance"); got != 0.6 {
		t.Errorf("mustGetFloat64() = %v, want 0.6", got)
	}
}

func TestMustGetFlags_UnknownPanics(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic for an unregistered flag")
		}
		if msg, _ := r.(string); !strings.Contains(msg, "--missing") {
			t.Errorf("panic = %v, want it to name the flag", r)
		}
	}()
	mustGetInt(&cobra.Command{Use: "test"}, "missing")
}
