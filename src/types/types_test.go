package types

import (
	"encoding/json"
	"testing"
)

func TestSecurityOrigin(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"http://a.com/x/y", "http://a.com"},
		{"https://a.com:8443/x", "https://a.com:8443"},
		{"data:image/png;base64,AAAA", ""},
		{"://bad url", ""},
		{"", ""},
	}
	for _, c := range cases {
		r := &NetworkRecord{URL: c.url}
		if got := r.SecurityOrigin(); got != c.want {
			t.Fatalf("SecurityOrigin(%q) = %q want %q", c.url, got, c.want)
		}
	}
}

func TestIsSecure(t *testing.T) {
	if (&NetworkRecord{URL: "http://a.com/"}).IsSecure() {
		t.Fatalf("http is not secure")
	}
	if !(&NetworkRecord{URL: "https://a.com/"}).IsSecure() {
		t.Fatalf("https is secure")
	}
	if !(&NetworkRecord{URL: "wss://a.com/socket"}).IsSecure() {
		t.Fatalf("wss is secure")
	}
}

func TestRequestTimingUnmarshalDefaults(t *testing.T) {
	var tm RequestTiming
	if err := json.Unmarshal([]byte(`{"connect_start":5}`), &tm); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if tm.ConnectStart != 5 {
		t.Fatalf("connect_start: %v", tm.ConnectStart)
	}
	if tm.ConnectEnd != TimingUnavailable || tm.SSLStart != TimingUnavailable ||
		tm.SendStart != TimingUnavailable || tm.ReceiveHeadersEnd != TimingUnavailable {
		t.Fatalf("omitted fields must default to the sentinel: %+v", tm)
	}
}

func TestRequestTimingZeroIsValid(t *testing.T) {
	var tm RequestTiming
	if err := json.Unmarshal([]byte(`{"connect_start":0,"connect_end":0}`), &tm); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if tm.ConnectStart != 0 || tm.ConnectEnd != 0 {
		t.Fatalf("explicit zeros must survive: %+v", tm)
	}
}
