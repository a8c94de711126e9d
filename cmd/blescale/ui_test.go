package main

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type UITestSuite struct {
	CommandTestSuite
}

func (s *UITestSuite) TestRequiresTerminal() {
	_, err := s.ExecuteCommand("ui")
	s.ErrorIs(err, ErrNotTerminal)
	s.Equal(0, s.Manager.StartCalls())
}

func TestUITestSuite(t *testing.T) {
	suite.Run(t, new(UITestSuite))
}
