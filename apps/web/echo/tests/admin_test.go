package tests

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/matkerbino/murim/core"
	"github.com/matkerbino/murim/core/api"
)

func seedAlunos(t *testing.T, app *testApp, n int) []int {
	alunos := make([]interface{}, 0, n)
	for i := 1; i <= n; i++ {
		alunos = append(alunos, api.Aluno{
			Nome:   fmt.Sprintf("Aluno %02d", i),
			Email:  fmt.Sprintf("aluno%02d@murim.com", i),
			Status: api.StatusAtivo,
		})
	}
	return app.backend.Seed(t, "alunos", alunos...)
}

func TestAdmin_access(t *testing.T) {
	app := setup(t)

	t.Run("anonymous", func(t *testing.T) {
		tests := []httpTest{
			{name: "dashboard", method: http.MethodGet, path: "/admin", wantCode: http.StatusSeeOther, wantLocation: "/login?next=%2Fadmin"},
			{name: "list", method: http.MethodGet, path: "/admin/alunos?page=2", wantCode: http.StatusSeeOther, wantLocation: "/login?next=%2Fadmin%2Falunos%3Fpage%3D2"},
			{name: "action", method: http.MethodPost, path: "/admin/alunos", form: url.Values{}, wantCode: http.StatusSeeOther, wantLocation: "/login"},
		}
		runHttpTests(t, app.browser(t), tests)
	})

	t.Run("not an admin", func(t *testing.T) {
		app.backend.ResetCalls()
		tests := []httpTest{
			{name: "dashboard", method: http.MethodGet, path: "/admin", wantCode: http.StatusForbidden, wantBody: []string{"Acesso restrito a administradores."}},
			{name: "delete", method: http.MethodPost, path: "/admin/alunos/1/excluir", form: url.Values{"confirmar": {"sim"}}, wantCode: http.StatusForbidden},
		}
		runHttpTests(t, app.userBrowser(t), tests)
		assert.Zero(t, app.backend.MutatingCalls())
	})

	t.Run("admin", func(t *testing.T) {
		seedAlunos(t, app, 2)
		rec := app.adminBrowser(t).get("/admin")
		checkResponse(t, httpTest{wantCode: http.StatusOK, wantBody: []string{"<strong>2</strong> alunos", "Bem-vindo(a), Admin!"}}, rec)
	})
}

func TestAdmin_list(t *testing.T) {
	app := setup(t)
	seedAlunos(t, app, 11)
	b := app.adminBrowser(t)

	t.Run("paginates", func(t *testing.T) {
		page1 := b.get("/admin/alunos").Body.String()
		page2 := b.get("/admin/alunos?page=2").Body.String()

		assert.Equal(t, 10, countRows(page1))
		assert.Equal(t, 1, countRows(page2))
		assert.Contains(t, page1, "11 registro(s)")
		assert.Contains(t, page1, `href="/admin/alunos?page=2"`)
	})

	t.Run("out of range page shows the last one", func(t *testing.T) {
		assert.Equal(t, 1, countRows(b.get("/admin/alunos?page=9").Body.String()))
	})

	t.Run("searches", func(t *testing.T) {
		body := b.get("/admin/alunos?search=aluno07").Body.String()
		assert.Equal(t, 1, countRows(body))
		assert.Contains(t, body, "Aluno 07")
	})

	t.Run("orders", func(t *testing.T) {
		body := b.get("/admin/alunos?ordering=-nome").Body.String()
		require.Equal(t, 10, countRows(body))
		assert.Contains(t, body, "Aluno 11")
		assert.NotContains(t, body, "Aluno 01")
		assert.Contains(t, body, "▼")
		assert.Contains(t, body, `href="/admin/alunos?ordering=nome"`)
	})

	t.Run("every resource lists", func(t *testing.T) {
		for _, path := range []string{
			"personais", "produtos", "planos", "pagamentos", "dicas", "categorias-dicas", "usuarios",
			"agendamentos", "contatos", "comentarios", "assinaturas",
		} {
			rec := b.get("/admin/" + path)
			assert.Equal(t, http.StatusOK, rec.Code, path)
		}
	})
}

func TestAdmin_create(t *testing.T) {
	app := setup(t)
	b := app.adminBrowser(t)

	checkResponse(t, httpTest{wantCode: http.StatusOK, wantBody: []string{"Novo aluno", `name="nome"`}}, b.get("/admin/alunos/novo"))

	t.Run("required fields make no backend call", func(t *testing.T) {
		app.backend.ResetCalls()
		rec := b.post("/admin/alunos", url.Values{"nome": {"  "}, "email": {"bruce@murim.com"}})

		checkResponse(t, httpTest{
			wantCode: http.StatusUnprocessableEntity,
			wantBody: []string{"este campo é obrigatório", `value="bruce@murim.com"`},
		}, rec)
		assert.Zero(t, app.backend.MutatingCalls())
		assert.Empty(t, app.backend.Items("alunos"))
	})

	t.Run("invalid cpf", func(t *testing.T) {
		rec := b.post("/admin/alunos", url.Values{"nome": {"Bruce"}, "email": {"bruce@murim.com"}, "cpf": {"123"}})
		checkResponse(t, httpTest{wantCode: http.StatusUnprocessableEntity, wantBody: []string{"CPF inválido"}}, rec)
	})

	t.Run("ok", func(t *testing.T) {
		rec := b.post("/admin/alunos", url.Values{"nome": {"  Bruce Lee "}, "email": {"Bruce@Murim.com"}, "status": {"ativo"}})
		checkResponse(t, httpTest{wantCode: http.StatusSeeOther, wantLocation: "/admin/alunos"}, rec)

		ids := app.backend.Items("alunos")
		require.Len(t, ids, 1)
		item := app.backend.Item("alunos", ids[0])
		assert.Equal(t, "Bruce Lee", item["nome"])
		assert.Equal(t, "bruce@murim.com", item["email"])

		checkResponse(t, httpTest{wantCode: http.StatusOK, wantBody: []string{"Aluno criado(a) com sucesso.", "Bruce Lee"}}, b.get("/admin/alunos"))
	})

	t.Run("usuario passwords must match", func(t *testing.T) {
		rec := b.post("/admin/usuarios", url.Values{
			"name": {"Novo"}, "email": {"novo@murim.com"}, "password": {"Dragon2024x"}, "password_confirmation": {"Dragon2024y"},
		})
		checkResponse(t, httpTest{wantCode: http.StatusUnprocessableEntity}, rec)
	})

	t.Run("usuario password is required on creation", func(t *testing.T) {
		rec := b.post("/admin/usuarios", url.Values{"name": {"Novo"}, "email": {"novo@murim.com"}})
		checkResponse(t, httpTest{wantCode: http.StatusUnprocessableEntity, wantBody: []string{"a senha é obrigatória"}}, rec)
	})
}

func TestAdmin_update(t *testing.T) {
	app := setup(t)
	ids := app.backend.Seed(t, "produtos", api.Produto{Nome: "Luva", Preco: 150, Estoque: 3, Ativo: true})
	path := "/admin/produtos/" + strconv.Itoa(ids[0])
	b := app.adminBrowser(t)

	checkResponse(t, httpTest{wantCode: http.StatusOK, wantBody: []string{"Editar produto", `value="Luva"`, `value="150"`}}, b.get(path+"/editar"))

	rec := b.post(path, url.Values{"nome": {"Luva"}, "preco": {"0"}, "estoque": {"3"}})
	checkResponse(t, httpTest{wantCode: http.StatusUnprocessableEntity}, rec)
	assert.EqualValues(t, 150, app.backend.Item("produtos", ids[0])["preco"])

	rec = b.post(path, url.Values{"nome": {"Luva de boxe"}, "preco": {"175.5"}, "estoque": {"2"}, "ativo": {"true"}})
	checkResponse(t, httpTest{wantCode: http.StatusSeeOther, wantLocation: "/admin/produtos"}, rec)

	item := app.backend.Item("produtos", ids[0])
	assert.Equal(t, "Luva de boxe", item["nome"])
	assert.EqualValues(t, 175.5, item["preco"])
	assert.Equal(t, true, item["ativo"])

	checkResponse(t, httpTest{wantCode: http.StatusNotFound}, b.get("/admin/produtos/9999/editar"))
}

func TestAdmin_delete(t *testing.T) {
	app := setup(t)
	ids := seedAlunos(t, app, 2)
	path := "/admin/alunos/" + strconv.Itoa(ids[0])
	b := app.adminBrowser(t)

	checkResponse(t, httpTest{
		wantCode: http.StatusOK,
		wantBody: []string{"Excluir aluno", "Aluno 01", `name="confirmar" value="sim"`},
	}, b.get(path+"/excluir"))

	t.Run("without confirmation", func(t *testing.T) {
		app.backend.ResetCalls()
		rec := b.post(path+"/excluir", nil)

		checkResponse(t, httpTest{wantCode: http.StatusSeeOther, wantLocation: "/admin/alunos"}, rec)
		assert.Len(t, app.backend.Items("alunos"), 2)
		assert.Zero(t, app.backend.CallCount(http.MethodDelete, "/alunos/"+strconv.Itoa(ids[0])))
		assert.Contains(t, b.get("/admin/alunos").Body.String(), "Exclusão cancelada.")
	})

	t.Run("backend failure", func(t *testing.T) {
		app.backend.Fail(http.MethodDelete, "/alunos/"+strconv.Itoa(ids[1]), http.StatusInternalServerError)
		rec := b.post("/admin/alunos/"+strconv.Itoa(ids[1])+"/excluir", url.Values{"confirmar": {"sim"}})

		checkResponse(t, httpTest{wantCode: http.StatusSeeOther, wantLocation: "/admin/alunos"}, rec)
		assert.Len(t, app.backend.Items("alunos"), 2)
		assert.Contains(t, b.get("/admin/alunos").Body.String(), "Erro ao excluir aluno: falha simulada")
	})

	t.Run("confirmed", func(t *testing.T) {
		rec := b.post(path+"/excluir", url.Values{"confirmar": {"sim"}})

		checkResponse(t, httpTest{wantCode: http.StatusSeeOther, wantLocation: "/admin/alunos"}, rec)
		assert.Equal(t, []int{ids[1]}, app.backend.Items("alunos"))
		assert.Contains(t, b.get("/admin/alunos").Body.String(), "Aluno excluído(a) com sucesso.")
	})
}

func TestAdmin_agendamentos(t *testing.T) {
	app := setup(t)
	ids := app.backend.Seed(t, "agendamentos",
		api.Agendamento{PersonalID: 1, Nome: null.StringFrom("Ana"), DataHora: "2030-01-10 10:00:00", Status: api.StatusPendente},
		api.Agendamento{PersonalID: 1, Nome: null.StringFrom("Bia"), DataHora: "2030-01-11 10:00:00", Status: api.StatusAprovado},
	)
	b := app.adminBrowser(t)

	body := b.get("/admin/agendamentos").Body.String()
	assert.Equal(t, 2, countRows(body))
	assert.Contains(t, body, "/admin/agendamentos/"+strconv.Itoa(ids[0])+"/aprovar")
	assert.NotContains(t, body, "/admin/agendamentos/"+strconv.Itoa(ids[1])+"/aprovar")
	assert.Contains(t, body, "10/01/2030 10:00")
	assert.NotContains(t, body, "/admin/agendamentos/novo")

	rec := b.post("/admin/agendamentos/"+strconv.Itoa(ids[0])+"/aprovar", nil)
	checkResponse(t, httpTest{wantCode: http.StatusSeeOther, wantLocation: "/admin/agendamentos"}, rec)
	assert.Equal(t, api.StatusAprovado, app.backend.Item("agendamentos", ids[0])["status"])
}

func TestAdmin_responderContato(t *testing.T) {
	app := setup(t)
	ids := app.backend.Seed(t, "contatos", api.Contato{
		Nome: "Ana", Email: "ana@murim.com", Mensagem: "Vocês abrem no domingo?", Status: api.StatusPendente,
	})
	path := "/admin/contatos/" + strconv.Itoa(ids[0])
	b := app.adminBrowser(t)

	checkResponse(t, httpTest{wantCode: http.StatusOK, wantBody: []string{"Vocês abrem no domingo?", "Pendente"}}, b.get(path))

	rec := b.post(path+"/responder", url.Values{"resposta": {" "}})
	checkResponse(t, httpTest{wantCode: http.StatusUnprocessableEntity}, rec)
	assert.Empty(t, app.mail.SentMessages())

	rec = b.post(path+"/responder", url.Values{"resposta": {"Sim, das 8h às 12h."}})
	checkResponse(t, httpTest{wantCode: http.StatusSeeOther, wantLocation: path}, rec)

	item := app.backend.Item("contatos", ids[0])
	assert.Equal(t, api.StatusRespondido, item["status"])
	assert.Equal(t, "Sim, das 8h às 12h.", item["resposta"])

	sent := app.mail.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "resposta", sent[0].TemplateName)
	assert.Equal(t, "ana@murim.com", sent[0].To[0].Address)
	assert.Contains(t, sent[0].TextContent, "Sim, das 8h às 12h.")

	checkResponse(t, httpTest{wantCode: http.StatusOK, wantBody: []string{"Resposta enviada", "Respondido"}}, b.get(path))
}

func TestAdmin_exportAlunos(t *testing.T) {
	app := setup(t)
	ids := seedAlunos(t, app, 3)
	b := app.adminBrowser(t)

	assert.Contains(t, b.get("/admin/alunos").Body.String(), "Exportar para planilha")

	rec := b.post("/admin/alunos/exportar", nil)
	checkResponse(t, httpTest{wantCode: http.StatusSeeOther, wantLocation: "/admin/alunos"}, rec)

	assert.Equal(t, api.AlunoSheetHeader, app.exporter.header)
	require.Len(t, app.exporter.rows, 3)
	assert.Equal(t, ids[0], app.exporter.rows[0][0])
	assert.Equal(t, "Aluno 01", app.exporter.rows[0][1])
	assert.Contains(t, b.get("/admin/alunos").Body.String(), "3 aluno(s) exportado(s) para a planilha.")

	t.Run("not configured", func(t *testing.T) {
		app.exporter.err = errors.WithStack(core.ErrExportDisabled)
		b.post("/admin/alunos/exportar", nil)
		assert.Contains(t, b.get("/admin/alunos").Body.String(), "Exportação para planilha não configurada.")
	})

	t.Run("failure", func(t *testing.T) {
		app.exporter.err = errors.New("quota exceeded")
		b.post("/admin/alunos/exportar", nil)
		assert.Contains(t, b.get("/admin/alunos").Body.String(), "Erro ao exportar alunos para a planilha.")
	})
}
