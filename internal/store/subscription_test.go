package store

import "testing"

func TestSubscriptionAddRemove(t *testing.T) {
	db := setupTestDB(t)
	reader := mustUser(t, db, "reader")
	author := mustUser(t, db, "author")

	ss := NewSubscriptionStore(db)
	if err := ss.Add(reader.ID, author.ID); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := ss.Add(reader.ID, author.ID); err != ErrAlreadyExists {
		t.Errorf("duplicate add err = %v, want ErrAlreadyExists", err)
	}
	if ok, _ := ss.Exists(reader.ID, author.ID); !ok {
		t.Error("expected subscription to exist")
	}
	if ok, _ := ss.Exists(author.ID, reader.ID); ok {
		t.Error("subscriptions are directional")
	}

	removed, err := ss.Remove(reader.ID, author.ID)
	if err != nil || !removed {
		t.Errorf("remove = %v, %v; want true, nil", removed, err)
	}
	removed, _ = ss.Remove(reader.ID, author.ID)
	if removed {
		t.Error("second remove should report false")
	}
}

func TestSubscriptionSelfRejected(t *testing.T) {
	db := setupTestDB(t)
	u := mustUser(t, db, "narcissus")

	if err := NewSubscriptionStore(db).Add(u.ID, u.ID); err == nil {
		t.Error("expected check constraint to reject self subscription")
	}
}

func TestSubscriptionListAuthors(t *testing.T) {
	db := setupTestDB(t)
	reader := mustUser(t, db, "reader")
	a := mustUser(t, db, "a")
	b := mustUser(t, db, "b")
	c := mustUser(t, db, "c")

	ss := NewSubscriptionStore(db)
	ss.Add(reader.ID, c.ID)
	ss.Add(reader.ID, a.ID)
	ss.Add(reader.ID, b.ID)

	authors, err := ss.ListAuthors(reader.ID, 2, 0)
	if err != nil {
		t.Fatalf("list authors: %v", err)
	}
	if len(authors) != 2 || authors[0].ID != a.ID || authors[1].ID != b.ID {
		t.Errorf("first page = %+v, want a, b", authors)
	}

	n, err := ss.CountAuthors(reader.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Errorf("count = %d, want 3", n)
	}
}
