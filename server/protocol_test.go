package server

import (
	"testing"

	"hexduel/game"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	b, err := Encode(MsgAction, ActionMessage{Target: &game.Hex{Q: 1, R: -1}, Shoot: true})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	env, err := DecodeEnvelope(b)
	if err != nil || env.Type != MsgAction {
		t.Fatalf("DecodeEnvelope = %+v, %v", env, err)
	}
	msg, err := DecodePayload[ActionMessage](env)
	if err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if msg.Target == nil || *msg.Target != (game.Hex{Q: 1, R: -1}) || !msg.Shoot {
		t.Fatalf("payload = %+v", msg)
	}
}

func TestDecodeEnvelopeErrors(t *testing.T) {
	cases := map[string]string{
		"empty":        "",
		"not json":     "{",
		"missing type": `{"payload":{}}`,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodeEnvelope([]byte(in)); err == nil {
				t.Fatalf("expected error for %q", in)
			}
		})
	}
	if _, err := Encode("", nil); err == nil {
		t.Fatalf("expected error for empty type")
	}
}

func TestDecodePayloadDefaults(t *testing.T) {
	env, err := DecodeEnvelope([]byte(`{"type":"join"}`))
	if err != nil {
		t.Fatal(err)
	}
	msg, err := DecodePayload[JoinMessage](env)
	if err != nil || msg.Room != "" {
		t.Fatalf("join without payload = %+v, %v", msg, err)
	}

	env, _ = DecodeEnvelope([]byte(`{"type":"action","payload":{"shoot":true}}`))
	act, err := DecodePayload[ActionMessage](env)
	if err != nil || act.Target != nil {
		t.Fatalf("action without target = %+v, %v", act, err)
	}

	env, _ = DecodeEnvelope([]byte(`{"type":"action","payload":{"target":"x"}}`))
	if _, err := DecodePayload[ActionMessage](env); err == nil {
		t.Fatalf("expected error for malformed target")
	}
}
