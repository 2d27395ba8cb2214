package api_test

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/srg/chemion/internal/api"
	"github.com/srg/chemion/internal/dispatch"
	"github.com/srg/chemion/internal/protocol"
	"github.com/srg/chemion/internal/session"
	"github.com/srg/chemion/internal/testutils"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type APISuite struct {
	testutils.FakeTransportSuite

	session *session.Session
	server  *httptest.Server
}

func (s *APISuite) SetupTest() {
	s.WithTransport().
		WithGlasses(testutils.DefaultGlassesAddress, testutils.DefaultGlassesName).
		WithPeripheral("11:22:33:44:55:66", "")
	s.FakeTransportSuite.SetupTest()

	s.session = session.New(s.Transport, &session.Options{ScanWindow: time.Millisecond}, s.Logger)
	router := api.NewRouter(s.session, dispatch.New(s.session, 0, s.Logger), s.Logger)
	s.server = httptest.NewServer(router)
}

func (s *APISuite) TearDownTest() {
	s.server.Close()
	s.FakeTransportSuite.TearDownTest()
}

func (s *APISuite) do(method, path, contentType, body string) (int, string, http.Header) {
	req, err := http.NewRequest(method, s.server.URL+path, strings.NewReader(body))
	s.Require().NoError(err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp.StatusCode, string(data), resp.Header
}

func (s *APISuite) connectForm() {
	form := url.Values{
		"device_name":    {testutils.DefaultGlassesName},
		"device_address": {testutils.DefaultGlassesAddress},
	}
	code, body, _ := s.do(http.MethodPost, "/connect", "application/x-www-form-urlencoded", form.Encode())
	s.Require().Equal(http.StatusOK, code, body)
}

func (s *APISuite) assertJSON(body, expected string) {
	testutils.NewJSONAsserter(s.T()).Assert(body, expected)
}

func (s *APISuite) TestDiscover() {
	code, body, _ := s.do(http.MethodGet, "/discover", "", "")

	s.Equal(http.StatusOK, code)
	s.assertJSON(body, `[{"device_address": "C8:FD:19:3A:2F:01", "device_name": "CHEMION_3F2A"}]`)
}

func (s *APISuite) TestDiscover_ScanFailure() {
	s.Adapter().SetScanError(errors.New("hci: command disallowed"))

	code, body, _ := s.do(http.MethodGet, "/discover", "", "")

	s.Equal(http.StatusInternalServerError, code)
	s.Contains(body, session.ErrScanFailed.Error())
}

func (s *APISuite) TestConnect_Form() {
	s.connectForm()

	code, body, _ := s.do(http.MethodGet, "/status", "", "")
	s.Equal(http.StatusOK, code)
	s.assertJSON(body, `{"connected": true, "device_address": "C8:FD:19:3A:2F:01"}`)
}

func (s *APISuite) TestConnect_JSON() {
	code, body, _ := s.do(http.MethodPost, "/connect", "application/json",
		`{"device_name": "CHEMION_3F2A", "device_address": "C8:FD:19:3A:2F:01"}`)

	s.Equal(http.StatusOK, code, body)
	s.True(s.session.IsConnected())
}

func (s *APISuite) TestConnect_MissingAddress() {
	code, body, _ := s.do(http.MethodPost, "/connect", "application/x-www-form-urlencoded", "device_name=CHEMION")

	s.Equal(http.StatusBadRequest, code)
	s.assertJSON(body, `{"message": "device_address is required"}`)
}

func (s *APISuite) TestConnect_UnknownPeripheral() {
	code, body, _ := s.do(http.MethodPost, "/connect", "application/x-www-form-urlencoded", "device_address=00:00:00:00:00:00")

	s.Equal(http.StatusInternalServerError, code)
	s.assertJSON(body, `{"message": "peripheral not found: 00:00:00:00:00:00"}`)
}

func (s *APISuite) TestDisconnect() {
	s.connectForm()

	code, _, _ := s.do(http.MethodGet, "/disconnect", "", "")
	s.Equal(http.StatusOK, code)

	_, body, _ := s.do(http.MethodGet, "/status", "", "")
	s.assertJSON(body, `{"connected": false}`)
}

func (s *APISuite) TestDisconnect_WhenDisconnected() {
	code, body, _ := s.do(http.MethodGet, "/disconnect", "", "")

	s.Equal(http.StatusInternalServerError, code)
	s.assertJSON(body, `{"message": "not connected to any peripheral"}`)
}

func (s *APISuite) TestDisplay_WritesPackets() {
	s.connectForm()

	code, body, _ := s.do(http.MethodPost, "/display", "application/json",
		`{"glasses_frame": [[250, 3, 0, 57, 1, 0, 6], [7, 85, 169]]}`)

	s.Equal(http.StatusOK, code, body)
	s.Equal([][]byte{
		{0xfa, 0x03, 0x00, 0x39, 0x01, 0x00, 0x06},
		{0x07, 0x55, 0xa9},
	}, s.Glasses().Characteristic(protocol.WriteCharacteristicUUID).Writes())
}

func (s *APISuite) TestDisplay_NotConnected() {
	code, body, _ := s.do(http.MethodPost, "/display", "application/json", `{"glasses_frame": [[250]]}`)

	s.Equal(http.StatusInternalServerError, code)
	s.assertJSON(body, `{"message": "not connected to any glasses"}`)
	s.Zero(s.Glasses().Characteristic(protocol.WriteCharacteristicUUID).Attempts())
}

func (s *APISuite) TestDisplay_MalformedBody() {
	code, body, _ := s.do(http.MethodPost, "/display", "application/json", `{"glasses_frame": [[256]]}`)

	s.Equal(http.StatusBadRequest, code)
	s.Contains(body, "out of range")
}

func (s *APISuite) TestDisplay_OversizedPacketRejected() {
	code, body, _ := s.do(http.MethodPost, "/display", "application/json",
		`{"glasses_frame": [[0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0]]}`)

	s.Equal(http.StatusBadRequest, code)
	s.Contains(body, "at most 20")
	s.Zero(s.Glasses().Characteristic(protocol.WriteCharacteristicUUID).Attempts())
}

func (s *APISuite) TestEncode() {
	code, body, _ := s.do(http.MethodPost, "/encode", "application/json",
		`{"glasses_frame": [[0,0,0,0],[0,0,0,0],[0,0,0,0],[0,0,0,0]]}`)

	s.Equal(http.StatusOK, code)
	s.assertJSON(body, `{"glasses_frame": [[250, 3, 0, 57, 1, 0, 6, 0, 0, 0, 0, 7, 85, 169]]}`)
	s.False(s.session.IsConnected(), "encoding never touches the session")
}

func (s *APISuite) TestEncode_InvalidPixel() {
	code, body, _ := s.do(http.MethodPost, "/encode", "application/json", `{"glasses_frame": [[0, 1, 2, 7]]}`)

	s.Equal(http.StatusInternalServerError, code)
	s.Contains(body, "wrong value in frame")
}

func (s *APISuite) TestRequestID() {
	_, _, header := s.do(http.MethodGet, "/status", "", "")
	s.NotEmpty(header.Get(api.RequestIDHeader))

	req, err := http.NewRequest(http.MethodGet, s.server.URL+"/status", nil)
	s.Require().NoError(err)
	req.Header.Set(api.RequestIDHeader, "trace-42")
	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	resp.Body.Close()
	s.Equal("trace-42", resp.Header.Get(api.RequestIDHeader))
}

func (s *APISuite) TestWrongMethod() {
	code, _, _ := s.do(http.MethodPost, "/discover", "", "")
	s.Equal(http.StatusMethodNotAllowed, code)
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func TestServeListener_StopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- api.ServeListener(ctx, ln, http.NotFoundHandler(), testutils.SilentLogger())
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
