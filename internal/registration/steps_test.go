package registration

import (
	"context"
	"testing"
	"time"
)

func TestTransitionsAreLinear(t *testing.T) {
	step := StepAwaitingName
	seen := map[Field]bool{}

	for i := 0; step != StepComplete; i++ {
		spec, ok := transitions[step]
		if !ok {
			t.Fatalf("step %s has no transition", step)
		}
		if spec.next != step+1 {
			t.Fatalf("step %s jumps to %s", step, spec.next)
		}
		if seen[spec.field] {
			t.Fatalf("field %s collected twice", spec.field)
		}
		if orderedFields[i] != spec.field {
			t.Fatalf("step %s stores %s, want %s", step, spec.field, orderedFields[i])
		}
		seen[spec.field] = true
		step = spec.next
	}

	if len(seen) != len(orderedFields) {
		t.Fatalf("collected %d fields, want %d", len(seen), len(orderedFields))
	}
	for _, terminal := range []Step{StepComplete, StepCancelled} {
		if _, ok := transitions[terminal]; ok {
			t.Fatalf("terminal step %s must not have a transition", terminal)
		}
		if terminal.Active() {
			t.Fatalf("terminal step %s reported active", terminal)
		}
	}
}

func TestStepString(t *testing.T) {
	tests := map[Step]string{
		StepAwaitingName:      "awaiting_name",
		StepAwaitingPhone:     "awaiting_phone",
		StepAwaitingRegion:    "awaiting_region",
		StepAwaitingDirection: "awaiting_direction",
		StepAwaitingBranch:    "awaiting_branch",
		StepComplete:          "complete",
		StepCancelled:         "cancelled",
		Step(99):              "unknown",
	}
	for step, want := range tests {
		if got := step.String(); got != want {
			t.Fatalf("Step(%d).String() = %q, want %q", int(step), got, want)
		}
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "+998901234567", want: "+998901234567"},
		{in: "998901234567", want: "+998901234567"},
		{in: "+998 (90) 123-45-67", want: "+998901234567"},
		{in: "  ", want: ""},
	}
	for _, tt := range tests {
		if got := NormalizePhone(tt.in); got != tt.want {
			t.Fatalf("NormalizePhone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRecordRowOrder(t *testing.T) {
	rec := Record{
		FullName:    "Aziz Aliyev",
		Phone:       "+998901234567",
		Region:      "Toshkent shahar",
		Direction:   "Pediatriya",
		Branch:      "Andijon",
		SubmittedAt: time.Date(2025, 8, 15, 14, 5, 9, 0, time.UTC),
	}

	want := []string{"Aziz Aliyev", "+998901234567", "Toshkent shahar", "Pediatriya", "Andijon", "2025-08-15 14:05:09"}
	got := rec.Row()
	if len(got) != len(want) {
		t.Fatalf("row has %d cells, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("cell %d: got %q want %q", i, got[i], want[i])
		}
	}
}

func TestNewRecordRequiresBranchStep(t *testing.T) {
	now := time.Now()
	s := newSession("u", now)

	if _, err := newRecord(s, "Andijon", now); err == nil {
		t.Fatal("expected error for session at name step")
	}

	s.Step = StepAwaitingBranch
	s.Fields[FieldName] = "Aziz Aliyev"
	s.Fields[FieldPhone] = "+998901234567"
	s.Fields[FieldRegion] = "Navoiy"
	if _, err := newRecord(s, "Andijon", now); err == nil {
		t.Fatal("expected error for missing direction")
	}

	s.Fields[FieldDirection] = "Pediatriya"
	rec, err := newRecord(s, "Andijon", now)
	if err != nil {
		t.Fatalf("newRecord err: %v", err)
	}
	if rec.Branch != "Andijon" || rec.Direction != "Pediatriya" {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestMemoryStoreIsolatesCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	s := newSession("u", time.Now())
	s.Fields[FieldName] = "Aziz Aliyev"
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("Save err: %v", err)
	}

	s.Fields[FieldName] = "changed"
	loaded, ok, err := store.Load(ctx, "u")
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if loaded.Fields[FieldName] != "Aziz Aliyev" {
		t.Fatalf("store shares map with caller: %q", loaded.Fields[FieldName])
	}

	loaded.Fields[FieldPhone] = "+1"
	again, _, _ := store.Load(ctx, "u")
	if _, ok := again.Fields[FieldPhone]; ok {
		t.Fatal("store shares map with loaded copy")
	}

	if err := store.Delete(ctx, "u"); err != nil {
		t.Fatalf("Delete err: %v", err)
	}
	if _, ok, _ := store.Load(ctx, "u"); ok {
		t.Fatal("session still present after Delete")
	}
}

func TestKeyedMutexReleasesEntries(t *testing.T) {
	k := keyedMutex{locks: make(map[string]*refMutex)}

	unlock := k.lock("a")
	if len(k.locks) != 1 {
		t.Fatalf("expected one lock entry, got %d", len(k.locks))
	}
	unlock()
	if len(k.locks) != 0 {
		t.Fatalf("expected lock entry released, got %d", len(k.locks))
	}
}
