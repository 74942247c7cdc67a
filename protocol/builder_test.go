package protocol

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/danmuck/tpkit/internal/testutil/testlog"
	"github.com/danmuck/tpkit/protocol/schema"
)

func decodeFields(t *testing.T, payload []byte) map[string]json.RawMessage {
	t.Helper()
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		t.Fatalf("decode payload %q: %v", payload, err)
	}
	return fields
}

func TestConnectorIDDeterministic(t *testing.T) {
	testlog.Start(t)
	b := NewBuilder("p1")
	data := []DataItem{{ID: "a", Value: "1"}, {ID: "b", Value: "2"}}
	msg, err := b.ConnectorUpdate("vol", "50", data, false)
	if err != nil {
		t.Fatalf("connector update: %v", err)
	}
	if msg.ConnectorID != "pc_p1_vol|a=1|b=2" || msg.ShortID != "" || msg.Value != 50 {
		t.Fatalf("unexpected connector update: %+v", msg)
	}
	again, _ := b.ConnectorUpdate("vol", "50", data, false)
	if again != msg {
		t.Fatalf("derivation not deterministic: %+v vs %+v", again, msg)
	}
	swapped := b.ConnectorID("vol", []DataItem{data[1], data[0]})
	if swapped != "pc_p1_vol|b=2|a=1" {
		t.Fatalf("derivation must follow item order: %q", swapped)
	}
	if got := b.ConnectorID("vol", nil); got != "pc_p1_vol" {
		t.Fatalf("no-data id mismatch: %q", got)
	}
}

func TestConnectorUpdateRange(t *testing.T) {
	testlog.Start(t)
	b := NewBuilder("p1")
	if _, err := b.ConnectorUpdate("x", "150", nil, false); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if _, err := b.ConnectorUpdate("x", "-1", nil, false); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange for -1, got %v", err)
	}
	if _, err := b.ConnectorUpdate("x", "fifty", nil, false); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
	msg, err := b.ConnectorUpdate("x", "100", nil, false)
	if err != nil || msg.Value != 100 {
		t.Fatalf("100 should be accepted: msg=%+v err=%v", msg, err)
	}
	msg, err = b.ConnectorUpdate("x", "0", nil, false)
	if err != nil || msg.Value != 0 {
		t.Fatalf("0 should be accepted: msg=%+v err=%v", msg, err)
	}
}

func TestConnectorUpdateShortID(t *testing.T) {
	testlog.Start(t)
	msg, err := NewBuilder("p1").ConnectorUpdate("abc123", "7", []DataItem{{ID: "ignored", Value: "x"}}, true)
	if err != nil {
		t.Fatalf("short id update: %v", err)
	}
	if msg.ShortID != "abc123" || msg.ConnectorID != "" {
		t.Fatalf("unexpected short id update: %+v", msg)
	}
	payload, err := Encode(msg)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := schema.Validate(schema.TypeConnectorUpdate, decodeFields(t, payload)); err != nil {
		t.Fatalf("short id payload invalid: %v", err)
	}
}

func TestConnectorUpdatesMixedBatch(t *testing.T) {
	testlog.Start(t)
	b := NewBuilder("p1")
	msgs, err := b.ConnectorUpdates([]Connector{
		{ID: "vol", Value: "10"},
		{ShortID: "s9", Value: "20"},
	})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if msgs[0].ConnectorID != "pc_p1_vol" || msgs[1].ShortID != "s9" {
		t.Fatalf("unexpected batch: %+v", msgs)
	}
	_, err = b.ConnectorUpdates([]Connector{{ID: "vol", Value: "10"}, {ID: "bad", Value: "101"}})
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("batch should fail on out of range entry, got %v", err)
	}
	if _, err := b.ConnectorUpdates(nil); !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("expected ErrEmptyBatch, got %v", err)
	}
}

func TestLongConnectorRequiresPluginID(t *testing.T) {
	testlog.Start(t)
	if _, err := NewBuilder("").ConnectorUpdate("vol", "1", nil, false); !errors.Is(err, ErrMissingPluginID) {
		t.Fatalf("expected ErrMissingPluginID, got %v", err)
	}
	if _, err := NewBuilder("").ConnectorUpdate("short", "1", nil, true); err != nil {
		t.Fatalf("short id needs no plugin id: %v", err)
	}
}

func TestCreateStateParentGroupOnlyWhenSet(t *testing.T) {
	testlog.Start(t)
	b := NewBuilder("p1")
	msg, err := b.CreateState(StateSpec{ID: "s1", Description: "State 1", DefaultValue: "0"})
	if err != nil {
		t.Fatalf("create state: %v", err)
	}
	payload, _ := Encode(msg)
	fields := decodeFields(t, payload)
	if _, ok := fields["parentGroup"]; ok {
		t.Fatalf("parentGroup should be omitted: %s", payload)
	}
	if err := schema.Validate(schema.TypeCreateState, fields); err != nil {
		t.Fatalf("createState payload invalid: %v", err)
	}

	msg, _ = b.CreateState(StateSpec{ID: "s2", Description: "State 2", DefaultValue: "0", ParentGroup: "Group"})
	payload, _ = Encode(msg)
	if string(decodeFields(t, payload)["parentGroup"]) != `"Group"` {
		t.Fatalf("parentGroup missing: %s", payload)
	}
}

func TestIdentifierValidation(t *testing.T) {
	testlog.Start(t)
	b := NewBuilder("p1")
	checks := map[string]error{}
	_, checks["createState"] = b.CreateState(StateSpec{ID: " "})
	_, checks["removeState"] = b.RemoveState("")
	_, checks["stateUpdate"] = b.StateUpdate("", "v")
	_, checks["choiceUpdate"] = b.ChoiceUpdate("", []string{"a"})
	_, checks["settingUpdate"] = b.SettingUpdate("", "v")
	_, checks["connectorUpdate"] = b.ConnectorUpdate("", "1", nil, false)
	_, checks["notification"] = b.Notification("", "t", "m", []NotificationOption{{ID: "o", Title: "O"}})
	_, checks["updateActionData"] = b.UpdateActionData("", ActionData{ID: "f", Type: "number", MaxValue: 1})
	_, checks["choiceUpdateSpecific"] = b.ChoiceUpdateSpecific("list", []string{"a"}, "")
	for op, err := range checks {
		if !errors.Is(err, ErrMissingRequiredField) {
			t.Fatalf("%s: expected ErrMissingRequiredField, got %v", op, err)
		}
	}
}

func TestEmptyLists(t *testing.T) {
	testlog.Start(t)
	b := NewBuilder("p1")
	if _, err := b.ChoiceUpdate("list", nil); !errors.Is(err, ErrEmptyList) {
		t.Fatalf("choiceUpdate: expected ErrEmptyList, got %v", err)
	}
	if _, err := b.ChoiceUpdateSpecific("list", []string{}, "inst"); !errors.Is(err, ErrEmptyList) {
		t.Fatalf("choiceUpdateSpecific: expected ErrEmptyList, got %v", err)
	}
	if _, err := b.Notification("n1", "t", "m", nil); !errors.Is(err, ErrEmptyList) {
		t.Fatalf("notification: expected ErrEmptyList, got %v", err)
	}
}

func TestChoiceUpdateSpecificSetsInstance(t *testing.T) {
	testlog.Start(t)
	msg, err := NewBuilder("p1").ChoiceUpdateSpecific("list", []string{"a", "b"}, "inst-1")
	if err != nil {
		t.Fatalf("choiceUpdateSpecific: %v", err)
	}
	if msg.InstanceID != "inst-1" || msg.MsgType() != schema.TypeChoiceUpdate {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestUpdateActionData(t *testing.T) {
	testlog.Start(t)
	b := NewBuilder("p1")
	msg, err := b.UpdateActionData("inst", ActionData{ID: "field", Type: "number", MinValue: 0, MaxValue: 10})
	if err != nil {
		t.Fatalf("update action data: %v", err)
	}
	payload, _ := Encode(msg)
	if err := schema.Validate(schema.TypeUpdateActionData, decodeFields(t, payload)); err != nil {
		t.Fatalf("payload invalid: %v", err)
	}
	if _, err := b.UpdateActionData("inst", ActionData{ID: "field", Type: "text", MaxValue: 1}); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
	if _, err := b.UpdateActionData("inst", ActionData{ID: "field", Type: "number", MaxValue: math.Inf(1)}); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
	if _, err := b.UpdateActionData("inst", ActionData{Type: "number"}); !errors.Is(err, ErrMissingRequiredField) {
		t.Fatalf("expected ErrMissingRequiredField, got %v", err)
	}
}

func TestPairRequiresPluginID(t *testing.T) {
	testlog.Start(t)
	if _, err := NewBuilder(" ").Pair(); !errors.Is(err, ErrMissingPluginID) {
		t.Fatalf("expected ErrMissingPluginID, got %v", err)
	}
	msg, err := NewBuilder("p1").Pair()
	if err != nil || msg.ID != "p1" || msg.Type != schema.TypePair {
		t.Fatalf("unexpected pair: %+v err=%v", msg, err)
	}
}

func TestStateUpdatesBatchStrict(t *testing.T) {
	testlog.Start(t)
	b := NewBuilder("p1")
	msgs, err := b.StateUpdates([]StateValue{{ID: "a", Value: "1"}, {ID: "b", Value: "2"}})
	if err != nil || len(msgs) != 2 || msgs[1].Value != "2" {
		t.Fatalf("unexpected batch: %+v err=%v", msgs, err)
	}
	if _, err := b.StateUpdates([]StateValue{{ID: "a"}, {ID: ""}}); !errors.Is(err, ErrMissingRequiredField) {
		t.Fatalf("expected ErrMissingRequiredField, got %v", err)
	}
	if _, err := b.StateUpdates(nil); !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("expected ErrEmptyBatch, got %v", err)
	}
	if _, err := b.CreateStates(nil); !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("expected ErrEmptyBatch, got %v", err)
	}
}
