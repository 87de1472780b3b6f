package firefox

import (
	"errors"
	"testing"

	"github.com/getsentry/simpleperf2firefox/internal/errorutil"
	"github.com/getsentry/simpleperf2firefox/internal/testutil"
)

func TestIndexForString(t *testing.T) {
	a := NewUniqueStringArray()
	for i, s := range []string{"foo", "bar", "baz"} {
		if got := a.IndexForString(s); got != i {
			t.Fatalf("expected index %d for %q, got %d", i, s, got)
		}
	}
	if got := a.IndexForString("bar"); got != 1 {
		t.Fatalf("expected the existing index 1, got %d", got)
	}
	if diff := testutil.Diff(a.Strings(), []string{"foo", "bar", "baz"}); diff != "" {
		t.Fatalf("Result mismatch: got - want +\n%s", diff)
	}
}

func TestNewUniqueStringArrayWithStrings(t *testing.T) {
	a := NewUniqueStringArray("a", "b", "a")
	if a.Len() != 2 {
		t.Fatalf("expected 2 strings, got %d", a.Len())
	}
	if !a.HasString("b") || a.HasString("c") {
		t.Fatal("unexpected HasString result")
	}
}

func TestGetString(t *testing.T) {
	a := NewUniqueStringArray("foo")

	s, err := a.GetString(0)
	if err != nil || s != "foo" {
		t.Fatalf("expected foo, got %q (%v)", s, err)
	}

	for _, i := range []int{-1, 1, 100} {
		_, err := a.GetString(i)
		if !errors.Is(err, ErrStringIndexOutOfRange) {
			t.Fatalf("expected %v for index %d, got %v", ErrStringIndexOutOfRange, i, err)
		}
		if !errors.Is(err, errorutil.ErrDataIntegrity) {
			t.Fatalf("expected a data integrity error, got %v", err)
		}
		if got := a.GetStringOr(i, "fallback"); got != "fallback" {
			t.Fatalf("expected the fallback, got %q", got)
		}
	}

	if got := a.GetStringOr(0, "fallback"); got != "foo" {
		t.Fatalf("expected foo, got %q", got)
	}
}

func TestStringsIsACopy(t *testing.T) {
	a := NewUniqueStringArray("foo")
	s := a.Strings()
	s[0] = "bar"
	if got, _ := a.GetString(0); got != "foo" {
		t.Fatalf("the string array should not be modified, got %q", got)
	}
}
