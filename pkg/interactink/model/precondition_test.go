package model_test

import (
	"testing"

	"github.com/mrwong99/interactink/pkg/interactink/model"
)

func pass(*model.Context) (bool, string)        { return true, "" }
func rejectWith(reason string) model.Precondition {
	return func(*model.Context) (bool, string) { return false, reason }
}

func TestAllOf_ShortCircuitsOnFirstRejection(t *testing.T) {
	t.Parallel()

	pre := model.AllOf(pass, rejectWith("no role"), rejectWith("never reached"))
	ok, reason := pre(&model.Context{})
	if ok || reason != "no role" {
		t.Fatalf("AllOf = (%v, %q), want (false, \"no role\")", ok, reason)
	}
}

func TestAllOf_PassesWhenAllPass(t *testing.T) {
	t.Parallel()

	pre := model.AllOf(pass, pass)
	ok, _ := pre(&model.Context{})
	if !ok {
		t.Fatalf("AllOf(pass, pass) = false, want true")
	}
}

func TestAnyOf_PassesIfOnePasses(t *testing.T) {
	t.Parallel()

	pre := model.AnyOf(rejectWith("not a DM"), pass)
	ok, reason := pre(&model.Context{})
	if !ok || reason != "" {
		t.Fatalf("AnyOf = (%v, %q), want (true, \"\")", ok, reason)
	}
}

func TestAnyOf_JoinsReasonsWhenAllRejected(t *testing.T) {
	t.Parallel()

	pre := model.AnyOf(rejectWith("not a DM"), rejectWith("not an admin"))
	ok, reason := pre(&model.Context{})
	if ok || reason != "not a DM; not an admin" {
		t.Fatalf("AnyOf = (%v, %q), want (false, \"not a DM; not an admin\")", ok, reason)
	}
}
