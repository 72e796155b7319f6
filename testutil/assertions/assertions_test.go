package assertions_test

import (
	"errors"
	"testing"

	"github.com/prysmaticlabs/go-ssz/testutil/assertions"
)

// tbMock records the format of the most recently reported failure.
type tbMock struct {
	errorMsg string
	fatalMsg string
}

func (tb *tbMock) Errorf(format string, args ...interface{}) {
	tb.errorMsg = format
}

func (tb *tbMock) Fatalf(format string, args ...interface{}) {
	tb.fatalMsg = format
}

func TestEqual(t *testing.T) {
	tb := &tbMock{}
	assertions.Equal(tb.Errorf, 42, 42)
	if tb.errorMsg != "" {
		t.Errorf("unexpected failure: %s", tb.errorMsg)
	}
	assertions.Equal(tb.Errorf, 42, 41)
	if tb.errorMsg == "" {
		t.Error("expected failure on unequal values")
	}
}

func TestDeepEqual(t *testing.T) {
	tb := &tbMock{}
	assertions.DeepEqual(tb.Errorf, []byte{1, 2}, []byte{1, 2})
	if tb.errorMsg != "" {
		t.Errorf("unexpected failure: %s", tb.errorMsg)
	}
	assertions.DeepEqual(tb.Errorf, []byte{1, 2}, []byte{1, 3})
	if tb.errorMsg == "" {
		t.Error("expected failure on unequal slices")
	}
}

func TestErrorIs(t *testing.T) {
	sentinel := errors.New("sentinel")
	tb := &tbMock{}
	assertions.ErrorIs(tb.Errorf, sentinel, sentinel)
	if tb.errorMsg != "" {
		t.Errorf("unexpected failure: %s", tb.errorMsg)
	}
	assertions.ErrorIs(tb.Errorf, errors.New("other"), sentinel)
	if tb.errorMsg == "" {
		t.Error("expected failure on unrelated error")
	}
}

func TestErrorContains(t *testing.T) {
	tb := &tbMock{}
	assertions.ErrorContains(tb.Errorf, "boom", errors.New("kaboom"))
	if tb.errorMsg != "" {
		t.Errorf("unexpected failure: %s", tb.errorMsg)
	}
	assertions.ErrorContains(tb.Errorf, "missing", errors.New("kaboom"))
	if tb.errorMsg == "" {
		t.Error("expected failure on missing substring")
	}
}
