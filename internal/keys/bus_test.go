package keys

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		want    Key
		wantErr bool
	}{
		{name: "ArrowLeft", want: Left},
		{name: "ArrowRight", want: Right},
		{name: "Escape", want: Escape},
		{name: "esc", want: Escape},
		{name: " left ", want: Left},
		{name: "l", want: Right},
		{name: "Enter", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.name)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error for %q", tt.name)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("Expected %v, got %v (%v)", tt.want, got, err)
			}
		})
	}
}

func TestBusSubscribeDispatch(t *testing.T) {
	b := NewBus()
	if b.Dispatch(Left) {
		t.Error("Expected no listeners")
	}

	var got []Key
	unsubscribe := b.Subscribe(func(k Key) { got = append(got, k) })
	if !b.Dispatch(Right) {
		t.Error("Expected a listener")
	}
	unsubscribe()
	unsubscribe()
	b.Dispatch(Escape)

	if len(got) != 1 || got[0] != Right {
		t.Errorf("Expected [right], got %v", got)
	}
	if b.Listeners() != 0 {
		t.Errorf("Expected 0 listeners, got %d", b.Listeners())
	}
}

func TestBusListenerMayUnsubscribeDuringDispatch(t *testing.T) {
	b := NewBus()
	var unsubscribe func()
	calls := 0
	unsubscribe = b.Subscribe(func(Key) {
		calls++
		unsubscribe()
	})

	b.Dispatch(Escape)
	b.Dispatch(Escape)
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}
