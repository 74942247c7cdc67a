package protocol

import (
	"errors"
	"strings"
	"testing"

	"github.com/danmuck/tpkit/internal/testutil/testlog"
	"github.com/danmuck/tpkit/protocol/schema"
)

func TestDecodeKnownTypes(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		frame string
		check func(t *testing.T, msg Inbound)
	}{
		{`{"type":"closePlugin","pluginId":"p1"}`, func(t *testing.T, msg Inbound) {
			m, ok := msg.(ClosePlugin)
			if !ok || m.PluginID != "p1" {
				t.Fatalf("unexpected closePlugin: %#v", msg)
			}
		}},
		{`{"type":"info","status":"paired","sdkVersion":6,"tpVersionString":"4.1","settings":[{"Poll":"5"}]}`, func(t *testing.T, msg Inbound) {
			m, ok := msg.(Info)
			if !ok || m.SDKVersion != 6 || len(m.Settings) != 1 || m.Settings[0]["Poll"] != "5" {
				t.Fatalf("unexpected info: %#v", msg)
			}
		}},
		{`{"type":"settings","values":[{"Poll":"10"}]}`, func(t *testing.T, msg Inbound) {
			m, ok := msg.(Settings)
			if !ok || len(m.Values) != 1 {
				t.Fatalf("unexpected settings: %#v", msg)
			}
		}},
		{`{"type":"down","pluginId":"p1","actionId":"a1","data":[{"id":"d","value":"1"}]}`, func(t *testing.T, msg Inbound) {
			m, ok := msg.(Action)
			if !ok || m.MsgType() != schema.TypeDown || m.ActionID != "a1" || m.Data[0].Value != "1" {
				t.Fatalf("unexpected down: %#v", msg)
			}
		}},
		{`{"type":"connectorChange","connectorId":"pc_p1_vol","value":42}`, func(t *testing.T, msg Inbound) {
			m, ok := msg.(ConnectorChange)
			if !ok || m.Value != 42 {
				t.Fatalf("unexpected connectorChange: %#v", msg)
			}
		}},
		{`{"type":"shortConnectorIdNotification","shortId":"s1","connectorId":"pc_p1_vol"}`, func(t *testing.T, msg Inbound) {
			if _, ok := msg.(ShortConnectorIDNotification); !ok {
				t.Fatalf("unexpected short id notice: %#v", msg)
			}
		}},
	}
	for _, tc := range cases {
		msg, err := Decode([]byte(tc.frame))
		if err != nil {
			t.Fatalf("decode %s: %v", tc.frame, err)
		}
		if string(msg.Raw()) != tc.frame {
			t.Fatalf("raw mismatch: %q", msg.Raw())
		}
		tc.check(t, msg)
	}
}

func TestDecodeUnknownTypeKeepsPayload(t *testing.T) {
	testlog.Start(t)
	msg, err := Decode([]byte(`{"type":"pageChange","pageName":"main"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	u, ok := msg.(Unknown)
	if !ok || u.MsgType() != "pageChange" {
		t.Fatalf("expected Unknown, got %#v", msg)
	}
	fields, err := u.Fields()
	if err != nil || fields["pageName"] != "main" {
		t.Fatalf("unexpected fields=%v err=%v", fields, err)
	}
}

func TestDecodeMalformed(t *testing.T) {
	testlog.Start(t)
	for _, frame := range []string{
		`{"type":"info"`,
		`not json`,
		`[1,2]`,
		`null`,
		`{"pluginId":"p1"}`,
		`{"type":""}`,
		`{"type":7}`,
		`{"type":"connectorChange","value":"high"}`,
		`{"type":null}`,
	} {
		_, err := Decode([]byte(frame))
		if !errors.Is(err, ErrMalformedMessage) {
			t.Fatalf("frame %q: expected ErrMalformedMessage, got %v", frame, err)
		}
	}
}

func TestDecodeRejectsMissingRequiredFields(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		frame string
		field string
	}{
		{`{"type":"closePlugin"}`, "pluginId"},
		{`{"type":"closePlugin","pluginId":null}`, "pluginId"},
		{`{"type":"connectorChange","value":42}`, "connectorId"},
		{`{"type":"connectorChange","connectorId":"pc_p1_vol"}`, "value"},
		{`{"type":"settings"}`, "values"},
		{`{"type":"listChange","actionId":"a"}`, "listId"},
		{`{"type":"broadcast","pageName":"main"}`, "event"},
		{`{"type":"up","pluginId":"p1"}`, "actionId"},
	}
	for _, tc := range cases {
		msg, err := Decode([]byte(tc.frame))
		if !errors.Is(err, ErrMalformedMessage) {
			t.Fatalf("frame %s: expected ErrMalformedMessage, got msg=%#v err=%v", tc.frame, msg, err)
		}
		if !strings.Contains(err.Error(), tc.field) {
			t.Fatalf("frame %s: error %q does not name %q", tc.frame, err, tc.field)
		}
	}
}

func TestDecodeWrongFieldKind(t *testing.T) {
	testlog.Start(t)
	_, err := Decode([]byte(`{"type":"closePlugin","pluginId":7}`))
	if !errors.Is(err, ErrMalformedMessage) {
		t.Fatalf("expected ErrMalformedMessage, got %v", err)
	}
}

func TestDecodeRawDoesNotAliasFrame(t *testing.T) {
	testlog.Start(t)
	frame := []byte(`{"type":"broadcast","event":"pageChange"}`)
	msg, err := Decode(frame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	frame[2] = 'X'
	if string(msg.Raw()) != `{"type":"broadcast","event":"pageChange"}` {
		t.Fatalf("raw aliases input: %q", msg.Raw())
	}
}
