package service

import "testing"

func TestContactNormalizer_Email(t *testing.T) {
	n := NewContactNormalizer("BR")

	tests := map[string]struct {
		raw     string
		want    string
		wantErr bool
	}{
		"lower cases":    {raw: " Contato@Acme.COM.br ", want: "contato@acme.com.br"},
		"idn domain":     {raw: "eventos@café.com", want: "eventos@xn--caf-dma.com"},
		"missing domain": {raw: "invalid@", wantErr: true},
		"missing local":  {raw: "@acme.com", wantErr: true},
		"no tld":         {raw: "user@localhost", wantErr: true},
		"dash label":     {raw: "user@-acme.com", wantErr: true},
		"not an email":   {raw: "plain", wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := n.Email(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestContactNormalizer_Phone(t *testing.T) {
	n := NewContactNormalizer("")

	got, err := n.Phone("(11) 91234-5678")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "+5511912345678" {
		t.Fatalf("expected E.164 number, got %q", got)
	}

	got, err = n.Phone("+1 415 555 1234")
	if err != nil || got != "+14155551234" {
		t.Fatalf("expected international number kept, got %q (%v)", got, err)
	}

	for _, raw := range []string{"", "12345", "not a phone"} {
		if _, err := n.Phone(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestContactNormalizer_Document(t *testing.T) {
	n := NewContactNormalizer("BR")

	got, err := n.Document("12.345.678/0001-99")
	if err != nil || got != "12345678000199" {
		t.Fatalf("unexpected document: %q (%v)", got, err)
	}
	if _, err := n.Document("--"); err == nil {
		t.Fatalf("expected error for document without digits")
	}
}
