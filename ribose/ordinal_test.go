package ribose

import "testing"

func TestPackUnpackParameterized(t *testing.T) {
	cases := []struct {
		effector, parameter Ordinal
	}{
		{effPaste, 0},
		{effSelect, 0xFFFF},
		{effMscan, 12345},
	}
	for _, c := range cases {
		packed := packParameterized(c.effector, c.parameter)
		if packed < parameterizedBase {
			t.Fatalf("packParameterized(%d,%d) = %d, want >= %d", c.effector, c.parameter, packed, parameterizedBase)
		}
		gotEff, gotParam := unpackParameterized(packed)
		if gotEff != c.effector || gotParam != c.parameter {
			t.Fatalf("unpackParameterized(%d) = (%d,%d), want (%d,%d)", packed, gotEff, gotParam, c.effector, c.parameter)
		}
	}
}

func TestBuiltinEffectorNamesCoverAllOrdinals(t *testing.T) {
	for i := Ordinal(0); i < builtinEffectorCount; i++ {
		if builtinEffectorNames[i] == "" {
			t.Fatalf("builtin effector ordinal %d has no name", i)
		}
	}
}

func TestSignalOrdinalsAboveByteRange(t *testing.T) {
	if SignalNul < S0 {
		t.Fatalf("SignalNul = %d, want >= S0 (%d)", SignalNul, S0)
	}
	if SignalNil != SignalNul+1 || SignalEOL != SignalNil+1 || SignalEOS != SignalEOL+1 {
		t.Fatalf("built-in signals are not contiguous: nul=%d nil=%d eol=%d eos=%d", SignalNul, SignalNil, SignalEOL, SignalEOS)
	}
}
