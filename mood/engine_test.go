package mood

import (
	"testing"
	"time"
)

func mustTrigger(t *testing.T, id string) Trigger {
	t.Helper()
	trig, ok := TriggerFromID(id)
	if !ok {
		t.Fatalf("trigger %q not found", id)
	}
	return trig
}

func TestStateFromID(t *testing.T) {
	cases := []struct {
		id   string
		want State
	}{
		{"happy", StateHappy},
		{"HAPPY", StateHappy},
		{" angry ", StateAngry},
		{"nonsense", StateNeutral},
		{"", StateNeutral},
	}
	for _, tc := range cases {
		if got := StateFromID(tc.id); got != tc.want {
			t.Errorf("StateFromID(%q) = %q, want %q", tc.id, got, tc.want)
		}
	}
}

func TestTriggerFromIDUnknownFails(t *testing.T) {
	if _, ok := TriggerFromID("no_such_trigger"); ok {
		t.Fatal("unknown trigger id should not resolve")
	}
	if _, ok := TriggerFromID("Attacked"); !ok {
		t.Fatal("trigger lookup should be case-insensitive")
	}
}

func TestNewEngineDefaults(t *testing.T) {
	e := NewEngine("arona")
	snap := e.Snapshot()
	if snap.State != StateNeutral {
		t.Errorf("initial state = %q, want neutral", snap.State)
	}
	if snap.Intensity != 0.5 {
		t.Errorf("initial intensity = %v, want 0.5", snap.Intensity)
	}
	if got := e.Describe(); got != "情绪平静" {
		t.Errorf("Describe() = %q, want neutral phrase", got)
	}
}

func TestInvariantsHoldUnderAnySequence(t *testing.T) {
	e := NewEngine("arona")
	attacked := mustTrigger(t, TriggerAttacked)
	gift := mustTrigger(t, TriggerReceivedFavoriteGift)

	check := func(step string) {
		snap := e.Snapshot()
		if snap.Intensity < 0 || snap.Intensity > 1 {
			t.Fatalf("%s: intensity %v out of [0,1]", step, snap.Intensity)
		}
		if snap.Valence < -1 || snap.Valence > 1 {
			t.Fatalf("%s: valence %v out of [-1,1]", step, snap.Valence)
		}
	}

	for i := 0; i < 30; i++ {
		e.ApplyTrigger(attacked, 3.0)
		check("attacked")
	}
	for i := 0; i < 30; i++ {
		e.ApplyTrigger(gift, 3.0)
		check("gift")
	}
	e.SetState(StateExcited, 7.5)
	check("setstate high")
	e.SetState(StateSad, -2)
	check("setstate low")
	e.Decay(time.Hour)
	check("decay")
}

func TestDecayZeroElapsedIsNoop(t *testing.T) {
	e := NewEngine("arona")
	e.ApplyTrigger(mustTrigger(t, TriggerAttacked), 1.0)
	before := e.Snapshot()

	e.Decay(0)

	after := e.Snapshot()
	if after.State != before.State || after.Intensity != before.Intensity || after.Valence != before.Valence {
		t.Fatalf("Decay(0) mutated state: before=%+v after=%+v", before, after)
	}
}

func TestRepeatedAttacksTurnAngryThenDecayToNeutral(t *testing.T) {
	e := NewEngine("arona")
	attacked := mustTrigger(t, TriggerAttacked)

	for i := 0; i < 20 && e.Snapshot().State != StateAngry; i++ {
		e.ApplyTrigger(attacked, 1.0)
	}
	if got := e.Snapshot().State; got != StateAngry {
		t.Fatalf("state after repeated attacks = %q, want angry", got)
	}

	e.Decay(time.Hour)
	snap := e.Snapshot()
	if snap.State != StateNeutral {
		t.Errorf("state after long decay = %q, want neutral", snap.State)
	}
	if snap.Intensity != 0.1 {
		t.Errorf("intensity after long decay = %v, want floor 0.1", snap.Intensity)
	}
	if snap.Valence != 0 {
		t.Errorf("valence after long decay = %v, want 0", snap.Valence)
	}
}

func TestSetStateDerivesValence(t *testing.T) {
	e := NewEngine("arona")
	e.SetState(StateAngry, 0.5)
	snap := e.Snapshot()
	if snap.State != StateAngry {
		t.Fatalf("state = %q, want angry", snap.State)
	}
	want := StateAngry.BaseValence() * 0.5
	if snap.Valence != want {
		t.Errorf("valence = %v, want %v", snap.Valence, want)
	}
}

func TestDescribeBuckets(t *testing.T) {
	cases := []struct {
		intensity float64
		want      string
	}{
		{0.2, "轻微开心"},
		{0.5, "一般开心"},
		{0.7, "明显开心"},
		{0.9, "强烈开心"},
	}
	for _, tc := range cases {
		e := NewEngine("arona")
		e.SetState(StateHappy, tc.intensity)
		if got := e.Describe(); got != tc.want {
			t.Errorf("Describe() at %v = %q, want %q", tc.intensity, got, tc.want)
		}
	}
}

func TestSubscribeReceivesTransitions(t *testing.T) {
	e := NewEngine("arona")
	var events []ChangeEvent
	sub := e.Subscribe(func(ev ChangeEvent) { events = append(events, ev) })

	e.SetState(StateHappy, 0.8)
	e.SetState(StateHappy, 0.9) // same state, no event
	e.SetState(StateSad, 0.6)

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Previous != StateNeutral || events[0].Current != StateHappy {
		t.Errorf("first event = %+v, want neutral->happy", events[0])
	}
	if events[1].Previous != StateHappy || events[1].Current != StateSad {
		t.Errorf("second event = %+v, want happy->sad", events[1])
	}
	if events[0].PersonaID != "arona" {
		t.Errorf("event persona = %q, want arona", events[0].PersonaID)
	}

	e.Unsubscribe(sub)
	e.SetState(StateAngry, 0.7)
	if len(events) != 2 {
		t.Fatalf("handler called after Unsubscribe: %d events", len(events))
	}
}

func TestDecayNotifiesOnReturnToNeutral(t *testing.T) {
	e := NewEngine("arona")
	e.SetState(StateExcited, 0.9)

	var events []ChangeEvent
	e.Subscribe(func(ev ChangeEvent) { events = append(events, ev) })

	e.Decay(10 * time.Hour)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Current != StateNeutral {
		t.Errorf("decay event current = %q, want neutral", events[0].Current)
	}
}

func TestKeywordClassifierMechanism(t *testing.T) {
	c := KeywordClassifier{}

	// Strongly positive text yields a trigger-based reaction.
	reaction, ok := c.Classify("太好了，老师！")
	if !ok {
		t.Fatal("positive text should classify")
	}
	if reaction.Trigger == nil {
		t.Fatal("positive reaction should carry a trigger")
	}
	e := NewEngine("arona")
	before := e.Snapshot().Valence
	reaction.Apply(e)
	if e.Snapshot().Valence <= before {
		t.Error("positive reaction should raise valence")
	}

	// Strongly negative text yields a direct state override.
	reaction, ok = c.Classify("呜呜，好伤心……")
	if !ok {
		t.Fatal("sad text should classify")
	}
	reaction.Apply(e)
	if got := e.Snapshot().State; got != StateSad {
		t.Errorf("state after sad reaction = %q, want sad", got)
	}

	// Flat text yields nothing.
	if _, ok := c.Classify("1234567890"); ok {
		t.Error("neutral text should not classify")
	}
}
