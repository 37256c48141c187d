// Command gobdd is a small standalone runner for projects that would rather
// invoke a binary than write a *_test.go file around gobdd.NewSuite: it
// binds the spec.md §6 flag table via package cli and runs every feature
// under --input with no steps of its own registered. It exists to exercise
// cli.BindFlags end to end; real projects register their own steps by
// importing gobdd directly from a test file, or by vendoring this command
// and adding AddStep calls before cmd.Execute().
package main

import (
	"fmt"
	"os"
	"testing"

	"github.com/spf13/cobra"

	"github.com/anuragh27crony/gobdd"
	"github.com/anuragh27crony/gobdd/cli"
)

// cliT adapts gobdd.TestingT to a plain CLI run, where there is no *testing.T
// driving the process: failures are reported by exiting non-zero rather
// than by calling t.Fatal.
type cliT struct {
	failed bool
}

func (t *cliT) Log(args ...interface{})                 { fmt.Println(args...) }
func (t *cliT) Logf(format string, args ...interface{}) { fmt.Printf(format+"\n", args...) }
func (t *cliT) Fatal(args ...interface{})               { fmt.Println(args...); t.failed = true }
func (t *cliT) Fatalf(format string, args ...interface{}) {
	fmt.Printf(format+"\n", args...)
	t.failed = true
}
func (t *cliT) Errorf(format string, args ...interface{}) {
	fmt.Printf(format+"\n", args...)
	t.failed = true
}
func (t *cliT) Error(args ...interface{}) { fmt.Println(args...); t.failed = true }
func (t *cliT) Fail()                     { t.failed = true }
func (t *cliT) FailNow()                  { t.failed = true }
func (t *cliT) Parallel()                 {}

// Run never calls fn, since there is no *testing.T to give it outside a
// real `go test` binary, and always reports true.
func (t *cliT) Run(name string, fn func(*testing.T)) bool {
	return true
}

func main() {
	root := &cobra.Command{
		Use:   "gobdd",
		Short: "Run Gherkin features against registered steps",
	}
	flags := cli.BindFlags(root)

	root.RunE = func(cmd *cobra.Command, args []string) error {
		if err := flags.Validate(); err != nil {
			return err
		}

		t := &cliT{}
		suite := gobdd.NewSuite(t, flags.SuiteOptions()...)
		suite.Run()

		if t.failed {
			return fmt.Errorf("one or more scenarios failed")
		}
		return nil
	}

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
