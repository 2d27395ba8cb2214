package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/srg/chemion/internal/protocol"
	"github.com/stretchr/testify/suite"
)

const zeroFrame4x4 = `{"glasses_frame": [[0,0,0,0],[0,0,0,0],[0,0,0,0],[0,0,0,0]]}`

type EncodeCommandSuite struct {
	CommandTestSuite
}

func (s *EncodeCommandSuite) TestHexFromStdin() {
	out, err := s.ExecuteCommand(zeroFrame4x4, "encode", "-")

	s.Require().NoError(err)
	s.AssertOutput(out, "fa030039010006000000000755a9")
}

func (s *EncodeCommandSuite) TestHexSplitsPackets() {
	// 17 rows of 4 pixels: 17 payload bytes, 27 bytes in total
	rows := "[0,0,0,0]"
	for i := 1; i < 17; i++ {
		rows += ",[0,0,0,0]"
	}

	out, err := s.ExecuteCommand("["+rows+"]", "encode", "-")

	s.Require().NoError(err)
	s.AssertOutput(out, `
fa03003901000600000000000000000000000000
000000000755a9
`)
}

func (s *EncodeCommandSuite) TestJSONFromFile() {
	path := filepath.Join(s.T().TempDir(), "frame.json")
	s.Require().NoError(os.WriteFile(path, []byte(`[[0,1,2,3]]`), 0o600))

	out, err := s.ExecuteCommand("", "encode", path, "--format", "json")

	s.Require().NoError(err)
	s.JSONEq(`{"glasses_frame": [[250, 3, 0, 57, 1, 0, 6, 27, 28, 85, 169]]}`, out)
}

func (s *EncodeCommandSuite) TestPreview() {
	out, err := s.ExecuteCommand(`[[0,1,2,3]]`, "encode", "-", "--preview", "--no-color")

	s.Require().NoError(err)
	s.AssertOutput(out, `
·░▒█

fa0300390100061b1c55a9
`)
}

func (s *EncodeCommandSuite) TestInvalidPixel() {
	_, err := s.ExecuteCommand(`[[0,1,2,9]]`, "encode", "-")

	s.ErrorIs(err, protocol.ErrInvalidPixelValue)
}

func (s *EncodeCommandSuite) TestInvalidFormat() {
	_, err := s.ExecuteCommand(zeroFrame4x4, "encode", "-", "--format", "csv")

	s.ErrorContains(err, "invalid format 'csv'")
}

func (s *EncodeCommandSuite) TestEmptyInput() {
	_, err := s.ExecuteCommand("  \n", "encode", "-")

	s.ErrorIs(err, ErrNoFrame)
}

func (s *EncodeCommandSuite) TestMalformedJSON() {
	_, err := s.ExecuteCommand(`{"glasses_frame": [[0,1]`, "encode", "-")

	s.ErrorContains(err, "invalid frame JSON")
}

func TestEncodeCommandSuite(t *testing.T) {
	suite.Run(t, new(EncodeCommandSuite))
}
