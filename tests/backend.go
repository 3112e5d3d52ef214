package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/matkerbino/murim/core/api"
)

type (
	// Call is one request received by the Backend, path relative to /api.
	Call struct {
		Method string
		Path   string
	}

	object map[string]interface{}

	account struct {
		usr      api.Usuario
		password string
	}

	// Backend is an in-memory fake of the gym REST API, wrapping every payload in a
	// `{status, data}` envelope and recording every call.
	Backend struct {
		URL string

		mu       sync.Mutex
		srv      *httptest.Server
		tables   map[string][]object
		nextID   int
		accounts map[string]account // by email
		tokens   map[string]api.Usuario
		calls    []Call
		failures map[string]int
	}
)

var publicReads = map[string]bool{
	"planos": true, "personais": true, "produtos": true, "dicas": true,
	"categorias-dicas": true, "horarios": true, "dias-semana": true,
}

func NewBackend(t *testing.T) *Backend {
	b := &Backend{
		tables:   make(map[string][]object),
		accounts: make(map[string]account),
		tokens:   make(map[string]api.Usuario),
		failures: make(map[string]int),
	}

	e := echo.New()
	e.HideBanner = true
	g := e.Group("/api", b.record)
	g.POST("/login", b.login)
	g.POST("/register", b.register)
	g.POST("/logout", b.logout, b.auth)
	g.GET("/admin/dashboard", b.dashboard, b.auth)
	g.Any("/*", b.dispatch, b.auth)

	b.srv = httptest.NewServer(e)
	b.URL = b.srv.URL + "/api"
	t.Cleanup(b.srv.Close)
	return b
}

// Middlewares

func (b *Backend) record(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		path := strings.TrimPrefix(ctx.Request().URL.Path, "/api")
		method := ctx.Request().Method

		b.mu.Lock()
		b.calls = append(b.calls, Call{Method: method, Path: path})
		status, fail := b.failures[method+" "+path]
		b.mu.Unlock()

		if fail {
			return ctx.JSON(status, echo.Map{"message": "falha simulada"})
		}
		return next(ctx)
	}
}

func (b *Backend) auth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		res, _, _ := splitPath(ctx.Request().URL.Path)
		method := ctx.Request().Method
		public := (method == http.MethodGet && publicReads[res]) || (method == http.MethodPost && res == "contatos")

		token := strings.TrimPrefix(ctx.Request().Header.Get("Authorization"), "Bearer ")
		b.mu.Lock()
		usr, ok := b.tokens[token]
		b.mu.Unlock()

		if !ok && !public {
			return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthenticated."})
		}
		if ok {
			ctx.Set("user", usr)
		}
		return next(ctx)
	}
}

// Auth endpoints

func (b *Backend) login(ctx echo.Context) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := ctx.Bind(&body); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	acc, ok := b.accounts[body.Email]
	if !ok || acc.password != body.Password {
		return ctx.JSON(http.StatusUnprocessableEntity, echo.Map{"message": "Credenciais inválidas"})
	}
	token := fmt.Sprintf("token-%d-%d", acc.usr.ID, len(b.tokens)+1)
	b.tokens[token] = acc.usr
	return envelope(ctx, http.StatusOK, echo.Map{"token": token, "user": acc.usr})
}

func (b *Backend) register(ctx echo.Context) error {
	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := ctx.Bind(&body); err != nil {
		return err
	}

	b.mu.Lock()
	if _, exists := b.accounts[body.Email]; exists {
		b.mu.Unlock()
		return ctx.JSON(http.StatusUnprocessableEntity, echo.Map{
			"message": "Dados inválidos",
			"errors":  echo.Map{"email": []string{"O e-mail já está em uso."}},
		})
	}
	b.mu.Unlock()

	usr := api.Usuario{Name: body.Name, Email: body.Email}
	token := b.AddAccount(&usr, body.Password)
	return envelope(ctx, http.StatusCreated, echo.Map{"access_token": token, "user": usr})
}

func (b *Backend) logout(ctx echo.Context) error {
	token := strings.TrimPrefix(ctx.Request().Header.Get("Authorization"), "Bearer ")
	b.mu.Lock()
	delete(b.tokens, token)
	b.mu.Unlock()
	return ctx.NoContent(http.StatusNoContent)
}

func (b *Backend) dashboard(ctx echo.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return envelope(ctx, http.StatusOK, api.Dashboard{
		TotalAlunos:    len(b.tables["alunos"]),
		TotalPersonais: len(b.tables["personais"]),
		TotalProdutos:  len(b.tables["produtos"]),
	})
}

// Resources

// splitPath splits `/api/<res>[/<id>[/<action>]]`; `/api/admin/usuarios` maps to `usuarios`.
func splitPath(path string) (res string, id int, action string) {
	path = strings.TrimPrefix(path, "/api/")
	path = strings.TrimPrefix(path, "admin/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	res = parts[0]
	if len(parts) > 1 {
		id, _ = strconv.Atoi(parts[1])
	}
	if len(parts) > 2 {
		action = parts[2]
	}
	return res, id, action
}

func (b *Backend) dispatch(ctx echo.Context) error {
	res, id, action := splitPath(ctx.Request().URL.Path)
	method := ctx.Request().Method

	var body object
	if method == http.MethodPost || method == http.MethodPut {
		raw, _ := io.ReadAll(ctx.Request().Body)
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &body); err != nil {
				return ctx.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
			}
		}
		if body == nil {
			body = object{}
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case res == "checkout" && method == http.MethodPost:
		return b.checkout(ctx)
	case action != "":
		return b.action(ctx, res, id, action, body)
	case id == 0 && method == http.MethodGet:
		return envelope(ctx, http.StatusOK, b.list(res, ctx.QueryParams()))
	case id == 0 && method == http.MethodPost:
		if res == "carrinho" {
			body["produto"] = b.find("produtos", toInt(body["produto_id"]))
		}
		if usr, ok := ctx.Get("user").(api.Usuario); ok && res == "agendamentos" {
			body["user_id"] = usr.ID
		}
		return envelope(ctx, http.StatusCreated, b.insert(res, body))
	}

	idx := b.index(res, id)
	if idx < 0 {
		return ctx.JSON(http.StatusNotFound, echo.Map{"message": "Registro não encontrado"})
	}
	switch method {
	case http.MethodGet:
		return envelope(ctx, http.StatusOK, b.tables[res][idx])
	case http.MethodPut:
		for k, v := range body {
			b.tables[res][idx][k] = v
		}
		return envelope(ctx, http.StatusOK, b.tables[res][idx])
	case http.MethodDelete:
		b.tables[res] = append(b.tables[res][:idx], b.tables[res][idx+1:]...)
		return ctx.NoContent(http.StatusNoContent)
	}
	return ctx.NoContent(http.StatusMethodNotAllowed)
}

func (b *Backend) action(ctx echo.Context, res string, id int, action string, body object) error {
	key := res + "/" + action
	if key == "dicas/comentarios" {
		if ctx.Request().Method == http.MethodGet {
			comentarios := make([]object, 0)
			for _, c := range b.tables["comentarios"] {
				if toInt(c["dica_id"]) == id {
					comentarios = append(comentarios, c)
				}
			}
			return envelope(ctx, http.StatusOK, comentarios)
		}
		body["dica_id"] = id
		return envelope(ctx, http.StatusCreated, b.insert("comentarios", body))
	}

	idx := b.index(res, id)
	if idx < 0 {
		return ctx.JSON(http.StatusNotFound, echo.Map{"message": "Registro não encontrado"})
	}
	item := b.tables[res][idx]

	switch key {
	case "agendamentos/aprovar":
		item["status"] = api.StatusAprovado
		return envelope(ctx, http.StatusOK, item)
	case "contatos/responder":
		item["resposta"] = body["resposta"]
		item["status"] = api.StatusRespondido
		return envelope(ctx, http.StatusOK, item)
	case "dicas/curtir":
		item["curtidas"] = toInt(item["curtidas"]) + 1
		return envelope(ctx, http.StatusOK, echo.Map{"curtidas": item["curtidas"]})
	case "planos/assinar":
		usr, _ := ctx.Get("user").(api.Usuario)
		assinatura := b.insert("assinaturas", object{
			"user_id": usr.ID, "plano_id": id, "plano": item, "status": api.StatusAtivo,
			"data_inicio": "2024-01-01", "valor_pago": item["preco"],
		})
		return envelope(ctx, http.StatusCreated, assinatura)
	}
	return ctx.JSON(http.StatusNotFound, echo.Map{"message": "Rota não encontrada"})
}

func (b *Backend) checkout(ctx echo.Context) error {
	var total float64
	for _, item := range b.tables["carrinho"] {
		switch p := item["produto"].(type) {
		case object:
			total += toFloat(p["preco"]) * toFloat(item["quantidade"])
		case map[string]interface{}:
			total += toFloat(p["preco"]) * toFloat(item["quantidade"])
		}
	}
	b.tables["carrinho"] = nil
	b.nextID++
	return envelope(ctx, http.StatusCreated, echo.Map{"id": b.nextID, "total": total, "status": api.StatusPendente})
}

func (b *Backend) list(res string, query map[string][]string) []object {
	items := make([]object, 0, len(b.tables[res]))
	cat := toInt(firstOf(query["categoria_id"]))
	for _, item := range b.tables[res] {
		if cat > 0 && toInt(item["categoria_id"]) != cat {
			continue
		}
		items = append(items, item)
	}
	return items
}

func (b *Backend) insert(res string, obj object) object {
	if obj == nil {
		obj = object{}
	}
	if toInt(obj["id"]) == 0 {
		b.nextID++
		obj["id"] = b.nextID
	} else if id := toInt(obj["id"]); id > b.nextID {
		b.nextID = id
	}
	b.tables[res] = append(b.tables[res], obj)
	return obj
}

func (b *Backend) index(res string, id int) int {
	for i, item := range b.tables[res] {
		if toInt(item["id"]) == id {
			return i
		}
	}
	return -1
}

func (b *Backend) find(res string, id int) object {
	if idx := b.index(res, id); idx >= 0 {
		return b.tables[res][idx]
	}
	return nil
}

func envelope(ctx echo.Context, status int, data interface{}) error {
	return ctx.JSON(status, echo.Map{"status": "success", "data": data})
}

// Test helpers

// Seed stores items (any JSON-marshalable value) under res and returns their IDs.
func (b *Backend) Seed(t *testing.T, res string, items ...interface{}) []int {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()

	ids := make([]int, 0, len(items))
	for _, item := range items {
		raw, err := json.Marshal(item)
		if err != nil {
			t.Fatalf("Seed() failed: %v", err)
		}
		var obj object
		if err = json.Unmarshal(raw, &obj); err != nil {
			t.Fatalf("Seed() failed: %v", err)
		}
		ids = append(ids, toInt(b.insert(res, obj)["id"]))
	}
	return ids
}

// AddAccount registers a user able to log in with password and returns a valid token for it.
func (b *Backend) AddAccount(usr *api.Usuario, password string) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if usr.ID == 0 {
		b.nextID++
		usr.ID = b.nextID
	}
	b.accounts[usr.Email] = account{usr: *usr, password: password}
	token := fmt.Sprintf("token-%d-%d", usr.ID, len(b.tokens)+1)
	b.tokens[token] = *usr
	return token
}

// RevokeTokens invalidates every issued token, so the next authenticated call gets a 401.
func (b *Backend) RevokeTokens() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens = make(map[string]api.Usuario)
}

// Fail makes `method path` (relative to /api) answer with status.
func (b *Backend) Fail(method, path string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[method+" "+path] = status
}

func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Call(nil), b.calls...)
}

// CallCount counts the calls to `method path`.
func (b *Backend) CallCount(method, path string) int {
	var n int
	for _, c := range b.Calls() {
		if c.Method == method && c.Path == path {
			n++
		}
	}
	return n
}

// MutatingCalls counts POST, PUT and DELETE calls, excluding auth endpoints.
func (b *Backend) MutatingCalls() int {
	var n int
	for _, c := range b.Calls() {
		if c.Method != http.MethodGet && c.Path != "/login" && c.Path != "/logout" {
			n++
		}
	}
	return n
}

func (b *Backend) ResetCalls() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = nil
}

// Items returns the IDs currently stored under res, sorted.
func (b *Backend) Items(res string) []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := make([]int, 0, len(b.tables[res]))
	for _, item := range b.tables[res] {
		ids = append(ids, toInt(item["id"]))
	}
	sort.Ints(ids)
	return ids
}

// Item returns the stored JSON object res/id, nil when absent.
func (b *Backend) Item(res string, id int) map[string]interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.find(res, id)
}

func toInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	case string:
		i, _ := strconv.Atoi(n)
		return i
	}
	return 0
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case float64:
		return n
	}
	return 0
}

func firstOf(vals []string) string {
	if len(vals) > 0 {
		return vals[0]
	}
	return ""
}
