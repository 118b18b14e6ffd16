package whatsapp

import (
	"strings"
	"testing"
)

func TestFormatPhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"(11) 99999-8888", "5511999998888"},
		{"+55 11 99999-8888", "5511999998888"},
		{"5511999998888", "5511999998888"},
		{"55 99999-8888", "55999998888"},
		{"+55 55 99999-8888", "5555999998888"},
		{"99887766", "5599887766"},
		{"1133334444", "551133334444"},
		{"", ""},
		{"abc", ""},
	}
	for _, tt := range tests {
		if got := FormatPhoneForMeta(tt.in); got != tt.want {
			t.Errorf("FormatPhoneForMeta(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if got := FormatPhoneForWaba(tt.in); got != tt.want {
			t.Errorf("FormatPhoneForWaba(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatPhone_Idempotent(t *testing.T) {
	inputs := []string{
		"11999998888", "5511999998888", "55999998888", "+55 (21) 3333-4444", "0800",
		"1", "5", "55", "5512345", "99887766", "999887766", "551199999", "(55) 3222-1111",
	}
	for _, in := range inputs {
		once := FormatPhoneForWaba(in)
		twice := FormatPhoneForWaba(once)
		if once != twice {
			t.Errorf("not idempotent for %q: %q then %q", in, once, twice)
		}
		if once == "" {
			continue
		}
		if !strings.HasPrefix(once, "55") {
			t.Errorf("missing country code for %q: %q", in, once)
		}
		if DigitsOnly(in) != strings.TrimPrefix(once, "55") && DigitsOnly(in) != once {
			t.Errorf("%q lost digits: %q", in, once)
		}
	}
}

func TestHasPhone(t *testing.T) {
	if HasPhone("") || HasPhone("  ") || HasPhone("12345") {
		t.Fatal("short numbers must not count as phones")
	}
	if !HasPhone("(11) 99999-8888") {
		t.Fatal("expected valid phone")
	}
}

func TestBuildParamsArray(t *testing.T) {
	vars := map[string]string{"nome": "Ana", "bloco": "", "apartamento": "101"}
	order := []string{"nome", "bloco", "apartamento", "codigo"}

	got := BuildParamsArray(vars, order)
	want := []string{"Ana", "", "101", ""}
	if len(got) != len(order) {
		t.Fatalf("len = %d, want %d", len(got), len(order))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("generic[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	meta := BuildMetaParams(vars, order)
	wantMeta := []string{"Ana", "-", "101", "-"}
	for i := range wantMeta {
		if meta[i] != wantMeta[i] {
			t.Fatalf("meta[%d] = %q, want %q", i, meta[i], wantMeta[i])
		}
	}
}

func TestBuildParamsArray_EmptyOrder(t *testing.T) {
	if got := BuildMetaParams(map[string]string{"a": "b"}, nil); len(got) != 0 {
		t.Fatalf("expected empty slice, got %v", got)
	}
}

func TestApplyVariables(t *testing.T) {
	content := "Olá {nome}, chegou uma encomenda para o apto {apartamento}. Código: {codigo_retirada} {desconhecido}"
	got := ApplyVariables(content, map[string]string{
		"nome":            "Ana",
		"apartamento":     "101",
		"codigo_retirada": "X1Y2",
	})
	want := "Olá Ana, chegou uma encomenda para o apto 101. Código: X1Y2 {desconhecido}"
	if got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
}

func TestIsValidWabaTemplateName(t *testing.T) {
	for _, bad := range []string{"", "  ", "hello_world", "Sample_Template", "test_encomenda"} {
		if IsValidWabaTemplateName(bad) {
			t.Errorf("%q should be rejected", bad)
		}
	}
	for _, ok := range []string{"encomenda_chegou", "aviso_reserva_salao"} {
		if !IsValidWabaTemplateName(ok) {
			t.Errorf("%q should be accepted", ok)
		}
	}
}
