package syncq

import "testing"

func TestQueueRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	loaded, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 0 {
		t.Fatalf("fresh queue has %d commands", len(loaded))
	}

	if err := Push(Command{
		Method:         "POST",
		Path:           "/v1/ships/buy",
		Body:           map[string]any{"ship_type_id": float64(3)},
		IdempotencyKey: "key-1",
	}); err != nil {
		t.Fatal(err)
	}
	if err := Push(Command{Method: "POST", Path: "/v1/ships/assign", IdempotencyKey: "key-2"}); err != nil {
		t.Fatal(err)
	}

	loaded, err = Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 2 {
		t.Fatalf("got %d commands, want 2", len(loaded))
	}
	if loaded[0].IdempotencyKey != "key-1" || loaded[1].IdempotencyKey != "key-2" {
		t.Fatalf("commands out of order: %+v", loaded)
	}
	if loaded[0].Body["ship_type_id"] != float64(3) {
		t.Fatalf("body lost in round trip: %+v", loaded[0].Body)
	}
	if loaded[0].QueuedAt.IsZero() {
		t.Fatal("enqueue time not stamped")
	}

	if err := Save(nil); err != nil {
		t.Fatal(err)
	}
	loaded, err = Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 0 {
		t.Fatalf("cleared queue has %d commands", len(loaded))
	}
}
