package conv

import "testing"

func TestConfigGet(t *testing.T) {
	m := map[string]any{"addr": "127.0.0.1:6379", "db": 2}
	if got := ConfigGet(m, "addr", ""); got != "127.0.0.1:6379" {
		t.Errorf("ConfigGet(addr) = %q", got)
	}
	if got := ConfigGet(m, "db", "x"); got != "x" {
		t.Errorf("ConfigGet(db as string) = %q, want default", got)
	}
	if got := ConfigGet[string](nil, "addr", "d"); got != "d" {
		t.Errorf("ConfigGet(nil) = %q", got)
	}
}

func TestConfigGetInt64(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want int64
	}{
		{"yaml int", 3, 3},
		{"json float", float64(4), 4},
		{"int64", int64(5), 5},
		{"uint64", uint64(6), 6},
		{"string", "7", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ConfigGetInt64(map[string]any{"k": tt.v}, "k", -1); got != tt.want {
				t.Errorf("ConfigGetInt64() = %d, want %d", got, tt.want)
			}
		})
	}
}
