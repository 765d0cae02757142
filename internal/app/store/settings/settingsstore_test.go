package settingsstore_test

import (
	"errors"
	"testing"

	settingsstore "github.com/Pythagora-io/okrtracker/internal/app/store/settings"
	"github.com/Pythagora-io/okrtracker/internal/app/system/apperr"
	"github.com/Pythagora-io/okrtracker/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

func intp(v int) *int       { return &v }
func strp(v string) *string { return &v }

func TestGet_LazyDefault(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := settingsstore.New(db)

	s, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if s.DayOfWeek != 1 || s.Hour != 9 || s.Minute != 0 || s.Timezone != "UTC" {
		t.Errorf("default = %+v, want Monday 09:00 UTC", s)
	}

	// Repeated reads see the same single document.
	if _, err := store.Get(ctx); err != nil {
		t.Fatalf("second Get: %v", err)
	}
	n, err := db.Collection("settings").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("CountDocuments: %v", err)
	}
	if n != 1 {
		t.Errorf("settings documents = %d, want exactly 1", n)
	}
}

func TestUpdate_RoundTrip(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := settingsstore.New(db)

	s, err := store.Update(ctx, settingsstore.Patch{
		DayOfWeek: intp(3), Hour: intp(14), Minute: intp(45), Timezone: strp("Europe/Berlin"),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if s.DayOfWeek != 3 || s.Hour != 14 || s.Minute != 45 || s.Timezone != "Europe/Berlin" {
		t.Errorf("updated = %+v", s)
	}

	got, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get after Update: %v", err)
	}
	if got.Timezone != "Europe/Berlin" {
		t.Errorf("Get returned %+v, want the stored schedule", got)
	}
}

func TestUpdate_PartialMerge(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := settingsstore.New(db)

	if _, err := store.Update(ctx, settingsstore.Patch{
		DayOfWeek: intp(3), Hour: intp(14), Minute: intp(45), Timezone: strp("Europe/Berlin"),
	}); err != nil {
		t.Fatalf("seeding schedule: %v", err)
	}

	// Changing only the hour leaves the other fields alone.
	s, err := store.Update(ctx, settingsstore.Patch{Hour: intp(10)})
	if err != nil {
		t.Fatalf("partial Update: %v", err)
	}
	if s.DayOfWeek != 3 || s.Hour != 10 || s.Minute != 45 || s.Timezone != "Europe/Berlin" {
		t.Errorf("after partial update = %+v, want only the hour changed", s)
	}
}

func TestUpdate_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := settingsstore.New(db)

	cases := map[string]settingsstore.Patch{
		"day too high":     {DayOfWeek: intp(7)},
		"day negative":     {DayOfWeek: intp(-1)},
		"hour too high":    {Hour: intp(24)},
		"minute too high":  {Minute: intp(60)},
		"unknown timezone": {Timezone: strp("Nowhere/Special")},
		"empty timezone":   {Timezone: strp("")},
	}
	for name, p := range cases {
		_, err := store.Update(ctx, p)
		if err == nil {
			t.Errorf("%s: Update accepted %+v", name, p)
			continue
		}
		if !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("%s: error is not a validation failure: %v", name, err)
		}
	}

	// A rejected patch leaves the stored schedule untouched.
	got, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.DayOfWeek != 1 || got.Hour != 9 || got.Minute != 0 || got.Timezone != "UTC" {
		t.Errorf("settings after rejected updates = %+v, want the default", got)
	}
}
