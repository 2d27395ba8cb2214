package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/srg/chemion/internal/testutils"
	"github.com/srg/chemion/internal/transport"
)

// CommandTestSuite runs the real command tree against the fake transport.
type CommandTestSuite struct {
	testutils.FakeTransportSuite

	originalTransport func(*logrus.Logger) transport.Manager

	// Stderr holds the log output of the last executed command
	Stderr *bytes.Buffer
}

func (s *CommandTestSuite) SetupTest() {
	s.FakeTransportSuite.SetupTest()

	s.originalTransport = newTransport
	newTransport = func(*logrus.Logger) transport.Manager { return s.Transport }
	resetFlags(rootCmd)
}

func (s *CommandTestSuite) TearDownTest() {
	newTransport = s.originalTransport
	s.FakeTransportSuite.TearDownTest()
}

// ExecuteCommand runs the root command with args and stdin, returns stdout and error.
func (s *CommandTestSuite) ExecuteCommand(stdin string, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	s.Stderr = new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(s.Stderr)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	s.T().Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(io.Reader(nil))
	})

	err := rootCmd.Execute()
	return buf.String(), err
}

// WriteConfig writes a YAML config file and returns its path.
func (s *CommandTestSuite) WriteConfig(yaml string) string {
	path := filepath.Join(s.T().TempDir(), "chemion.yaml")
	s.Require().NoError(os.WriteFile(path, []byte(yaml), 0o600))
	return path
}

// AssertOutput compares command output ignoring color codes and surrounding whitespace.
func (s *CommandTestSuite) AssertOutput(actual, expected string) {
	testutils.NewTextAsserter(s.T()).WithOptions(testutils.WithStripANSI(true)).Assert(actual, expected)
}

// resetFlags restores every flag in the tree to its default between executions.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
