package selection

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreStartsEmpty(t *testing.T) {
	s := New()
	_, ok := s.Current()
	assert.False(t, ok)
	assert.False(t, s.IsSelected(""))
	assert.False(t, s.IsSelected("7"))
}

func TestSelectIsExclusive(t *testing.T) {
	s := New()
	s.Select("A")
	assert.True(t, s.IsSelected("A"))

	s.Select("B")
	assert.False(t, s.IsSelected("A"))
	assert.True(t, s.IsSelected("B"))

	cur, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, ID("B"), cur)
}

func TestClear(t *testing.T) {
	s := New()
	s.Select("A")
	s.Clear()
	for _, id := range []ID{"A", "B", ""} {
		assert.False(t, s.IsSelected(id))
	}
	s.Clear()
	_, ok := s.Current()
	assert.False(t, ok)
}

func TestComparesByValue(t *testing.T) {
	s := New()
	a := []byte("42")
	s.Select(ID(a))
	// a freshly built id with the same text is the same selection
	assert.True(t, s.IsSelected(ID(string([]byte{'4', '2'}))))
}

func TestEmptyStringIsSelectable(t *testing.T) {
	s := New()
	s.Select("")
	assert.True(t, s.IsSelected(""))
}

func TestSubscribeNotifiesOnChangeOnly(t *testing.T) {
	s := New()
	type call struct{ prev, next Change }
	var calls []call
	unsub := s.Subscribe(func(prev, next Change) {
		calls = append(calls, call{prev, next})
	})

	s.Select("A")
	s.Select("A")
	s.Select("B")
	s.Clear()
	s.Clear()

	require.Len(t, calls, 3)
	assert.Equal(t, call{Change{}, Change{ID: "A", Valid: true}}, calls[0])
	assert.Equal(t, call{Change{ID: "A", Valid: true}, Change{ID: "B", Valid: true}}, calls[1])
	assert.Equal(t, call{Change{ID: "B", Valid: true}, Change{}}, calls[2])

	unsub()
	s.Select("C")
	assert.Len(t, calls, 3)
}

func TestSubscribeOrderAndUnsubscribe(t *testing.T) {
	s := New()
	var order []string
	u1 := s.Subscribe(func(_, _ Change) { order = append(order, "first") })
	s.Subscribe(func(_, _ Change) { order = append(order, "second") })
	s.Select("x")
	assert.Equal(t, []string{"first", "second"}, order)

	u1()
	u1()
	order = nil
	s.Select("y")
	assert.Equal(t, []string{"second"}, order)
}

func TestObserverMayReadStore(t *testing.T) {
	s := New()
	var seen bool
	s.Subscribe(func(_, next Change) {
		seen = s.IsSelected(next.ID)
	})
	s.Select("z")
	assert.True(t, seen)
}

func TestConcurrentReadersSeeWholeIDs(t *testing.T) {
	s := New()
	valid := map[ID]bool{"": true, "alpha-building": true, "b": true}
	var wg sync.WaitGroup
	stop := make(chan struct{})
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				id, _ := s.Current()
				if !valid[id] {
					t.Errorf("torn read: %q", id)
					return
				}
			}
		}()
	}
	for i := 0; i < 2000; i++ {
		if i%2 == 0 {
			s.Select("alpha-building")
		} else {
			s.Select("b")
		}
		if i%7 == 0 {
			s.Clear()
		}
	}
	close(stop)
	wg.Wait()
}
