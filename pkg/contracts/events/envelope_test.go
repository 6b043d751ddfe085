package events

import (
	"encoding/json"
	"testing"
)

func TestWrap(t *testing.T) {
	env, err := Wrap(TypeCounterChanged, "counter", CounterChanged{Action: "increment", Value: 3})
	if err != nil {
		t.Fatal(err)
	}
	if env.Type != TypeCounterChanged || env.TsUnixMs == 0 {
		t.Fatalf("unexpected envelope %+v", env)
	}
	var got CounterChanged
	if err := json.Unmarshal(env.Payload, &got); err != nil {
		t.Fatal(err)
	}
	if got.Value != 3 || got.Action != "increment" {
		t.Fatalf("payload = %+v", got)
	}
	if !Known(TypeGameFinished) || Known("odds_update") {
		t.Fatal("Known mismatch")
	}
}
