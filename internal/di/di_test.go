package di

import "testing"

type widget struct{ n int }

func TestContainer_FactoryBuiltOnce(t *testing.T) {
	c := NewContainer()
	calls := 0
	token := NewToken[*widget]("test.widget")
	RegisterToken(c, token, func(ServiceRegistry) *widget {
		calls++
		return &widget{n: calls}
	})

	first := GetToken(c, token)
	second := GetToken(c, token)

	if first != second {
		t.Error("expected the same instance on repeated resolution")
	}
	if calls != 1 {
		t.Errorf("factory called %d times, want 1", calls)
	}
}

func TestContainer_FactoryResolvesDependencies(t *testing.T) {
	c := NewContainer()
	c.Register("base", 40)
	token := NewToken[int]("test.sum")
	RegisterToken(c, token, func(sr ServiceRegistry) int {
		return sr.Get("base").(int) + 2
	})

	if got := GetToken(c, token); got != 42 {
		t.Errorf("got %d, want 42", got)
	}
	if !c.Has("test.sum") || c.Has("missing") {
		t.Error("Has reported wrong registration state")
	}
}

func TestContainer_UnknownServicePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unregistered service")
		}
	}()
	NewContainer().Get("missing")
}
