package echoweb

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matkerbino/murim/core"
	"github.com/matkerbino/murim/core/api"
	appfs "github.com/matkerbino/murim/fs"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "R$ 0,00"},
		{9.9, "R$ 9,90"},
		{99.999, "R$ 100,00"},
		{1234.5, "R$ 1.234,50"},
		{1234567.891, "R$ 1.234.567,89"},
		{-50, "-R$ 50,00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatMoney(tt.in))
	}
}

func TestFormatDate(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want string
	}{
		{"date", "2024-03-05", "05/03/2024"},
		{"datetime", "2024-03-05 14:30:00", "05/03/2024 14:30"},
		{"rfc3339", "2024-03-05T14:30:00.000000Z", "05/03/2024 14:30"},
		{"time", time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC), "05/03/2024 14:30"},
		{"zero time", time.Time{}, ""},
		{"unparseable", "amanhã", "amanhã"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatDate(tt.in))
		})
	}
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "Concluído", statusLabel(api.StatusConcluido))
	assert.Equal(t, "desconhecido", statusLabel("desconhecido"))
}

func TestDict(t *testing.T) {
	m, err := dict("Action", "/loja", "Search", "luva")
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"Action": "/loja", "Search": "luva"}, m)

	_, err = dict("Action")
	assert.Error(t, err)
	_, err = dict(1, "x")
	assert.Error(t, err)
}

func TestNewRenderer(t *testing.T) {
	r, err := newRenderer(appfs.FS)
	require.NoError(t, err)

	for _, name := range []string{"pages/home", "pages/error", "pages/contato", "admin/list", "admin/form", "admin/confirm"} {
		assert.Contains(t, r.templates, name)
	}
	assert.Error(t, r.Render(httptest.NewRecorder(), "pages/nope", nil, nil))
}

func TestListQuery(t *testing.T) {
	bind := func(rawQuery string) ListQuery {
		req := httptest.NewRequest(http.MethodGet, "/admin/alunos?"+rawQuery, nil)
		ctx := echo.New().NewContext(req, httptest.NewRecorder())
		var q ListQuery
		q.Bind(ctx)
		return q
	}

	t.Run("defaults", func(t *testing.T) {
		q := bind("")
		assert.Equal(t, 1, q.Page)
		assert.Empty(t, q.Orderings)
		assert.Equal(t, "/admin/alunos", q.PageURL("/admin/alunos", 1))
	})

	t.Run("invalid page", func(t *testing.T) {
		assert.Equal(t, 1, bind("page=-3").Page)
		assert.Equal(t, 1, bind("page=abc").Page)
	})

	t.Run("page url keeps search and ordering", func(t *testing.T) {
		q := bind("search=+ana+&ordering=-nome&page=2")
		assert.Equal(t, "ana", q.Search)
		assert.Equal(t, []core.Ordering{{Field: "nome", Ascending: false}}, q.Orderings)
		assert.Equal(t, "/admin/alunos?ordering=-nome&page=3&search=ana", q.PageURL("/admin/alunos", 3))
		assert.Equal(t, "/admin/alunos?ordering=-nome&search=ana", q.PageURL("/admin/alunos", 1))
	})

	t.Run("sort url toggles direction and resets page", func(t *testing.T) {
		q := bind("ordering=nome&page=4")
		assert.Equal(t, "/x?ordering=-nome", q.SortURL("/x", "nome"))
		assert.Equal(t, "/x?ordering=email", q.SortURL("/x", "email"))
		assert.Equal(t, "/x?ordering=nome", bind("ordering=-nome").SortURL("/x", "nome"))
	})

	t.Run("extra params", func(t *testing.T) {
		q := bind("page=2")
		q.Extra = url.Values{"categoria": {"3"}}
		assert.Equal(t, "/dicas?categoria=3&page=2", q.PageURL("/dicas", 2))
	})
}

func TestPager(t *testing.T) {
	page := core.Paginate([]int{1, 2, 3, 4, 5}, 2, 2)
	p := newPager(page, ListQuery{}, "/loja")

	assert.True(t, p.HasPrev())
	assert.True(t, p.HasNext())
	assert.Equal(t, 1, p.Prev())
	assert.Equal(t, 3, p.Next())
	assert.Equal(t, []int{1, 2, 3}, p.Numbers())
	assert.Equal(t, "/loja?page=3", p.URL(3))
}

func TestSafeNext(t *testing.T) {
	tests := []struct {
		next string
		want string
	}{
		{"", "/"},
		{"/carrinho", "/carrinho"},
		{"//evil.com", "/"},
		{"https://evil.com", "/"},
		{"carrinho", "/"},
		{`/\evil.example`, "/"},
		{"/\t/evil.example", "/"},
		{"/dicas?categoria=2", "/dicas?categoria=2"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, safeNext(tt.next, "/"), tt.next)
	}
}

func TestGroupHorarios(t *testing.T) {
	dias := []api.DiaSemana{{ID: 2, Nome: "Terça", Ordem: 2}, {ID: 1, Nome: "Segunda", Ordem: 1}}
	horarios := []api.Horario{
		{ID: 1, DiaSemanaID: 1, Atividade: "Judô", HoraInicio: "19:00"},
		{ID: 2, DiaSemanaID: 1, Atividade: "Muay Thai", HoraInicio: "07:00"},
		{ID: 3, DiaSemanaID: 9, Atividade: "Órfão", HoraInicio: "08:00"},
	}

	grouped := groupHorarios(dias, horarios)
	require.Len(t, grouped, 2)
	assert.Equal(t, "Segunda", grouped[0].Dia.Nome)
	require.Len(t, grouped[0].Horarios, 2)
	assert.Equal(t, "Muay Thai", grouped[0].Horarios[0].Atividade)
	assert.Equal(t, "Terça", grouped[1].Dia.Nome)
	assert.Empty(t, grouped[1].Horarios)
}

func TestTodayHorarios(t *testing.T) {
	grouped := []diaHorarios{
		{Dia: api.DiaSemana{ID: 1, Nome: "Segunda", Ordem: 1}},
		{Dia: api.DiaSemana{ID: 7, Nome: "Domingo", Ordem: 7}},
	}
	monday := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	sunday := time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC)
	tuesday := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

	if got := todayHorarios(grouped, monday); assert.NotNil(t, got) {
		assert.Equal(t, "Segunda", got.Dia.Nome)
	}
	if got := todayHorarios(grouped, sunday); assert.NotNil(t, got) {
		assert.Equal(t, "Domingo", got.Dia.Nome)
	}
	assert.Nil(t, todayHorarios(grouped, tuesday))

	zeroSunday := []diaHorarios{{Dia: api.DiaSemana{ID: 9, Nome: "Domingo", Ordem: 0}}}
	assert.NotNil(t, todayHorarios(zeroSunday, sunday))
}

func TestFirstError(t *testing.T) {
	assert.Equal(t, "", firstError(nil))
	assert.Equal(t, "b", firstError(map[string]string{"quantidade": "c", "produto_id": "b"}))
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Aluno", capitalize("aluno"))
	assert.Equal(t, "Usuário", capitalize("usuário"))
	assert.Equal(t, "", capitalize(""))
}
