// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import "testing"

func TestSubscriberUpsert(t *testing.T) {
	db := testDB(t)
	s := NewSubscriberStore(db)

	email := "upsert@store-test.local"
	t.Cleanup(func() { cleanSubscribers(t, db, email) })

	first, err := s.Upsert("First Name", email)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if !first.IsActive {
		t.Error("new subscriber must be active")
	}

	// Same email refreshes the row instead of creating a duplicate.
	second, err := s.Upsert("Second Name", email)
	if err != nil {
		t.Fatalf("Upsert again: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected same subscriber, got %s and %s", first.ID, second.ID)
	}
	if second.Name != "Second Name" {
		t.Errorf("name: got %q, want updated name", second.Name)
	}

	if err := s.Deactivate(first.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	// Re-subscribing reactivates.
	third, err := s.Upsert("Third Name", email)
	if err != nil {
		t.Fatalf("Upsert after deactivate: %v", err)
	}
	if !third.IsActive {
		t.Error("re-subscribing must reactivate")
	}
}

func TestSubscriberConvertGuest(t *testing.T) {
	db := testDB(t)
	s := NewSubscriberStore(db)

	guestEmail := "reader-converttest" + GuestEmailDomain
	realEmail := "convert@store-test.local"
	takenEmail := "taken@store-test.local"
	t.Cleanup(func() {
		for _, e := range []string{guestEmail, realEmail, takenEmail} {
			cleanSubscribers(t, db, e)
		}
	})

	guest, err := s.Upsert("Reader", guestEmail)
	if err != nil {
		t.Fatalf("Upsert guest: %v", err)
	}
	if err := s.Deactivate(guest.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	// The guest row converts in place, keeping its id.
	sub, err := s.ConvertGuest(guest.ID, "Real Name", realEmail)
	if err != nil {
		t.Fatalf("ConvertGuest: %v", err)
	}
	if sub == nil {
		t.Fatal("expected guest to convert")
	}
	if sub.ID != guest.ID {
		t.Errorf("id: got %s, want the guest's %s", sub.ID, guest.ID)
	}
	if sub.Email != realEmail || !sub.IsActive {
		t.Errorf("converted row: got %q active=%v", sub.Email, sub.IsActive)
	}

	// A converted row is no longer a guest and does not convert again.
	if again, err := s.ConvertGuest(guest.ID, "X", "other@store-test.local"); err != nil || again != nil {
		t.Errorf("non-guest conversion: got %v, %v, want nil, nil", again, err)
	}

	// A guest cannot take over an email that already has a subscriber.
	if _, err := s.Upsert("Taken", takenEmail); err != nil {
		t.Fatalf("Upsert taken: %v", err)
	}
	guest2, err := s.Upsert("Reader", "reader-converttest2"+GuestEmailDomain)
	if err != nil {
		t.Fatalf("Upsert second guest: %v", err)
	}
	t.Cleanup(func() { cleanSubscribers(t, db, guest2.Email) })
	if sub, err := s.ConvertGuest(guest2.ID, "Taken", takenEmail); err != nil || sub != nil {
		t.Errorf("collision conversion: got %v, %v, want nil, nil", sub, err)
	}
}

func TestContactMessages(t *testing.T) {
	db := testDB(t)
	s := NewContactStore(db)

	email := "contact@store-test.local"
	t.Cleanup(func() { cleanContacts(t, db, email) })

	m, err := s.Create("Curious Parent", email, nil, "When do you open?")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if m.IsRead {
		t.Error("new message must be unread")
	}

	unread, err := s.CountUnread()
	if err != nil {
		t.Fatalf("CountUnread: %v", err)
	}
	if unread < 1 {
		t.Errorf("expected at least one unread message, got %d", unread)
	}

	if err := s.MarkRead(m.ID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if err := s.Delete(m.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}
