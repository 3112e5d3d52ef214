package api

// AlunoSheetHeader is the header row of the student export.
var AlunoSheetHeader = []string{"ID", "Nome", "E-mail", "Telefone", "CPF", "Nascimento", "Plano", "Status"}

// AlunoSheetRows flattens students into sheet rows matching AlunoSheetHeader.
func AlunoSheetRows(alunos []Aluno) [][]interface{} {
	rows := make([][]interface{}, 0, len(alunos))
	for _, a := range alunos {
		var plano string
		if a.Plano != nil {
			plano = a.Plano.Nome
		}
		rows = append(rows, []interface{}{
			a.ID, a.Nome, a.Email, a.Telefone.String, a.CPF.String, a.DataNascimento.String, plano, a.Status,
		})
	}
	return rows
}
