// Comando legisla reúne tarefas de operação: migração do schema, carga de seed e hash de senha.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/Jonsrn/PDSI-LegislaNet-MVP-sub001/internal/auth"
	"github.com/Jonsrn/PDSI-LegislaNet-MVP-sub001/internal/config"
	"github.com/Jonsrn/PDSI-LegislaNet-MVP-sub001/internal/db"
	"github.com/Jonsrn/PDSI-LegislaNet-MVP-sub001/internal/repo"
	"github.com/Jonsrn/PDSI-LegislaNet-MVP-sub001/internal/seed"
)

const usage = `legisla: ferramentas de operação da API de votação.

Uso:
  legisla migrate                 aplica o schema embutido (DB_DSN)
  legisla seed --file seed.yaml   carrega câmaras, partidos, vereadores, sessões e usuários
  legisla hash-senha <senha>      imprime o hash Argon2id da senha
`

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatal().Err(err).Msg("legisla")
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return errors.New("subcomando obrigatório")
	}

	switch cmd, rest := args[0], args[1:]; cmd {
	case "migrate":
		return runMigrate(ctx, rest)
	case "seed":
		return runSeed(ctx, rest)
	case "hash-senha":
		return runHashSenha(rest, stdout)
	case "-h", "--help", "help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		return fmt.Errorf("subcomando desconhecido: %s", cmd)
	}
}

func runMigrate(ctx context.Context, args []string) error {
	flagSet := pflag.NewFlagSet("migrate", pflag.ContinueOnError)
	dsn := flagSet.String("dsn", "", "DSN do Postgres (padrão: DB_DSN)")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	pool, err := openPool(ctx, *dsn)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Info().Msg("schema aplicado")
	return nil
}

func runSeed(ctx context.Context, args []string) error {
	flagSet := pflag.NewFlagSet("seed", pflag.ContinueOnError)
	file := flagSet.StringP("file", "f", "seed.yaml", "arquivo YAML de seed")
	dsn := flagSet.String("dsn", "", "DSN do Postgres (padrão: DB_DSN)")
	migrate := flagSet.Bool("migrate", false, "aplica o schema antes do seed")
	dryRun := flagSet.Bool("dry-run", false, "só valida o arquivo")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	data, err := seed.Load(*file)
	if err != nil {
		return err
	}
	if *dryRun {
		log.Info().Str("file", *file).Msg("seed válido")
		return nil
	}

	pool, err := openPool(ctx, *dsn)
	if err != nil {
		return err
	}
	defer pool.Close()

	if *migrate {
		if err := db.Migrate(ctx, pool); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return seed.Apply(ctx, repo.New(pool), data)
}

func runHashSenha(args []string, stdout io.Writer) error {
	flagSet := pflag.NewFlagSet("hash-senha", pflag.ContinueOnError)
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() != 1 {
		return errors.New("uso: legisla hash-senha <senha>")
	}

	hash, err := auth.Hash(flagSet.Arg(0))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, hash)
	return err
}

func openPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if dsn == "" {
		var err error
		if dsn, err = config.LoadDatabase(); err != nil {
			return nil, err
		}
	}
	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}
	return pool, nil
}
