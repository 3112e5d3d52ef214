package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/pkg/errors"

	"github.com/matkerbino/murim/core"
	"github.com/matkerbino/murim/core/api"
)

func (cli *commandLine) dashboard(token string) error {
	d, err := cli.svc.Dashboard.Get(context.Background(), token)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Alunos\t%d (%d ativos)\n", d.TotalAlunos, d.AlunosAtivos)
	fmt.Fprintf(w, "Personais\t%d\n", d.TotalPersonais)
	fmt.Fprintf(w, "Produtos\t%d\n", d.TotalProdutos)
	fmt.Fprintf(w, "Assinaturas ativas\t%d\n", d.AssinaturasAtivas)
	fmt.Fprintf(w, "Agendamentos pendentes\t%d\n", d.AgendamentosPendentes)
	fmt.Fprintf(w, "Contatos pendentes\t%d\n", d.ContatosPendentes)
	fmt.Fprintf(w, "Receita mensal\t%.2f\n", d.ReceitaMensal)
	return w.Flush()
}

func (cli *commandLine) exportAlunos(token string) error {
	ctx := context.Background()
	alunos, err := cli.svc.Alunos.List(ctx, token)
	if err != nil {
		return err
	}
	if err := cli.exporter.Export(ctx, api.AlunoSheetHeader, api.AlunoSheetRows(alunos)); err != nil {
		if errors.Is(err, core.ErrExportDisabled) {
			return errors.Wrap(err, "set <ENV>_SHEETS_SPREADSHEETID and <ENV>_SHEETS_CREDENTIALSFILE")
		}
		return errors.Wrap(err, "exporting alunos")
	}
	fmt.Fprintf(cli.out, "%d aluno(s) exported.\n", len(alunos))
	return nil
}
