// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"testing"

	"petitpress/internal/models"
)

func TestLikeUniquePerSubscriber(t *testing.T) {
	db := testDB(t)
	articles := NewArticleStore(db)
	subs := NewSubscriberStore(db)
	s := NewLikeStore(db)

	t.Cleanup(func() {
		cleanArticles(t, db, "store-test-likes")
		cleanSubscribers(t, db, "liker@store-test.local")
	})

	a, err := articles.Create(&models.Article{
		Title: "Store Test Likes", Slug: "store-test-likes",
		Content: "x", Status: models.ArticleStatusPublished,
	})
	if err != nil {
		t.Fatalf("create article: %v", err)
	}
	sub, err := subs.Upsert("Liker", "liker@store-test.local")
	if err != nil {
		t.Fatalf("create subscriber: %v", err)
	}

	created, err := s.Add(a.ID, sub.ID)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !created {
		t.Error("first like must report created")
	}

	// Second like from the same subscriber is a no-op.
	created, err = s.Add(a.ID, sub.ID)
	if err != nil {
		t.Fatalf("Add duplicate: %v", err)
	}
	if created {
		t.Error("duplicate like must not report created")
	}

	count, err := s.Count(a.ID)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Errorf("like count: got %d, want 1", count)
	}

	has, err := s.Has(a.ID, sub.ID)
	if err != nil {
		t.Fatalf("Has: %v", err)
	}
	if !has {
		t.Error("expected Has=true")
	}

	removed, err := s.Remove(a.ID, sub.ID)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if !removed {
		t.Error("expected removal of existing like")
	}
	count, err = s.Count(a.ID)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 0 {
		t.Errorf("like count after remove: got %d, want 0", count)
	}
}
