package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Jonsrn/PDSI-LegislaNet-MVP-sub001/internal/auth"
)

func TestHashSenha(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), []string{"hash-senha", "segredo"}, &out); err != nil {
		t.Fatalf("hash-senha: %v", err)
	}
	hash := strings.TrimSpace(out.String())
	if ok, err := auth.Verify("segredo", hash); err != nil || !ok {
		t.Fatalf("hash impresso não confere: %q %v", hash, err)
	}

	if err := run(context.Background(), []string{"hash-senha"}, &out); err == nil {
		t.Fatalf("hash-senha sem argumento deveria falhar")
	}
}

func TestSeedDryRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	body := "camaras:\n  - id: 6f1d7f3a-5a39-4d8e-9a53-0f6a3b9a1c01\n    nome_camara: Câmara Teste\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := run(context.Background(), []string{"seed", "--file", path, "--dry-run"}, &bytes.Buffer{}); err != nil {
		t.Fatalf("dry-run: %v", err)
	}
	if err := run(context.Background(), []string{"seed", "-f", filepath.Join(t.TempDir(), "nao-existe.yaml"), "--dry-run"}, &bytes.Buffer{}); err == nil {
		t.Fatalf("arquivo ausente deveria falhar")
	}
}

func TestUnknownSubcommand(t *testing.T) {
	if err := run(context.Background(), []string{"deploy"}, &bytes.Buffer{}); err == nil {
		t.Fatalf("subcomando desconhecido aceito")
	}
	var out bytes.Buffer
	if err := run(context.Background(), []string{"help"}, &out); err != nil || !strings.Contains(out.String(), "hash-senha") {
		t.Fatalf("help: %v %q", err, out.String())
	}
}
