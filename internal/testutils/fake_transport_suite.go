package testutils

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"
)

const (
	DefaultGlassesAddress = "C8:FD:19:3A:2F:01"
	DefaultGlassesName    = "CHEMION_3F2A"
)

// FakeTransportSuite provides a reusable test suite backed by an in-memory BLE transport.
//
// By default each test gets one adapter advertising a single pair of glasses
// at DefaultGlassesAddress. Configure a different topology before calling the
// parent SetupTest:
//
//	func (s *SessionSuite) SetupTest() {
//	    s.WithTransport().
//	        WithGlasses(testutils.DefaultGlassesAddress, testutils.DefaultGlassesName).
//	        WithPeripheral("11:22:33:44:55:66", "")
//
//	    s.FakeTransportSuite.SetupTest() // Call parent last to apply configuration
//	}
type FakeTransportSuite struct {
	suite.Suite

	Helper *TestHelper
	Logger *logrus.Logger

	TestTimeout time.Duration

	Builder   *FakeTransportBuilder
	Transport *FakeManager
}

// SetupSuite runs once before all tests in the suite.
func (s *FakeTransportSuite) SetupSuite() {
	s.Helper = NewTestHelper(s.T())
	s.Logger = s.Helper.Logger
	s.TestTimeout = 5 * time.Second
}

// SetupTest builds the fake transport before each test.
func (s *FakeTransportSuite) SetupTest() {
	if s.Builder == nil {
		s.Builder = NewFakeTransportBuilder().
			WithGlasses(DefaultGlassesAddress, DefaultGlassesName)
	}
	s.Transport = s.Builder.Build()
}

// TearDownTest drops the transport so every test starts clean.
func (s *FakeTransportSuite) TearDownTest() {
	s.Builder = nil
	s.Transport = nil
}

// WithTransport returns the builder for fluent configuration in SetupTest.
func (s *FakeTransportSuite) WithTransport() *FakeTransportBuilder {
	if s.Builder == nil {
		s.Builder = NewFakeTransportBuilder()
	}
	return s.Builder
}

// Adapter is a shortcut for the first fake adapter.
func (s *FakeTransportSuite) Adapter() *FakeAdapter {
	return s.Transport.Adapter(0)
}

// Glasses is a shortcut for the default glasses peripheral.
func (s *FakeTransportSuite) Glasses() *FakePeripheral {
	p := s.Adapter().Fake(DefaultGlassesAddress)
	s.Require().NotNil(p, "default glasses are not part of this transport")
	return p
}
