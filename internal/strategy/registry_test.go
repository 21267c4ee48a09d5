package strategy

import (
	"reflect"
	"testing"
)

func TestRegistry(t *testing.T) {
	names := List()
	if !reflect.DeepEqual(names, []string{"intraday", "swing"}) {
		t.Errorf("Expected [intraday swing], got %v", names)
	}

	s, err := Get("swing", DefaultConfig(), &fakeProvider{})
	if err != nil {
		t.Fatalf("Get swing: %v", err)
	}
	if s.Name() != "swing" {
		t.Errorf("Expected swing, got %s", s.Name())
	}

	if _, err := Get("nope", DefaultConfig(), &fakeProvider{}); err == nil {
		t.Error("Expected error for unknown strategy")
	}

	infos := AllInfo(DefaultConfig(), &fakeProvider{})
	if len(infos) != 2 || infos[0].Timeframe != "15m" || infos[1].Timeframe != "1d" {
		t.Errorf("Unexpected strategy info: %+v", infos)
	}
}
