package api

import (
	"strings"
	"testing"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matkerbino/murim/core"
)

func newValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)
	return validate, translator
}

func fieldErrors(t *testing.T, err error, translator ut.Translator) map[string]string {
	t.Helper()
	if err == nil {
		return nil
	}
	vErr, ok := core.TranslateValidation(err, translator).(*core.ValidationError)
	require.True(t, ok, "expected a validation error, got %v", err)
	return vErr.FieldMap()
}

func TestContatoForm_Validate(t *testing.T) {
	validate, translator := newValidator()

	tests := []struct {
		name       string
		form       ContatoForm
		wantFields map[string]string
	}{
		{
			name:       "short message",
			form:       ContatoForm{Nome: "Ana", Email: "ana@murim.com", Mensagem: "Olá!!"},
			wantFields: map[string]string{"mensagem": "A mensagem deve ter pelo menos 10 caracteres"},
		},
		{
			name:       "exactly 10 chars",
			form:       ContatoForm{Nome: "Ana", Email: "ana@murim.com", Mensagem: "0123456789"},
			wantFields: nil,
		},
		{
			name: "missing fields",
			form: ContatoForm{Email: "ana"},
			wantFields: map[string]string{
				"nome":     "este campo é obrigatório",
				"email":    "e-mail inválido",
				"mensagem": "este campo é obrigatório",
			},
		},
		{
			name:       "accented message counts runes",
			form:       ContatoForm{Nome: "Ana", Email: "ana@murim.com", Mensagem: "ação ação!"},
			wantFields: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := tt.form
			err := form.Validate(validate)
			assert.Equal(t, tt.wantFields, fieldErrors(t, err, translator))
		})
	}
}

func TestRegisterForm_Validate(t *testing.T) {
	validate, translator := newValidator()

	tests := []struct {
		name      string
		password  string
		confirm   string
		wantError string
	}{
		{name: "too short", password: "Ab1", confirm: "Ab1", wantError: pwdMinLenText},
		{name: "spaces", password: "Abc 12345", confirm: "Abc 12345", wantError: pwdNoSpaceText},
		{name: "all numeric", password: "12345678", confirm: "12345678", wantError: pwdNotAllNumText},
		{name: "no complexity", password: "abcdefgh1", confirm: "abcdefgh1", wantError: pwdComplexityText},
		{name: "similar to email", password: "Lutador2024", confirm: "Lutador2024", wantError: pwdAttrSimText},
		{name: "valid", password: "Kx9#mQz!w", confirm: "Kx9#mQz!w"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := RegisterForm{Name: "Bruce Lee", Email: "lutador2024@murim.com", Password: tt.password, PasswordConfirm: tt.confirm}
			flds := fieldErrors(t, form.Validate(validate), translator)
			if tt.wantError == "" {
				assert.Empty(t, flds)
				return
			}
			assert.Equal(t, tt.wantError, flds["password"])
		})
	}
}

func TestUsuarioForm_Validate(t *testing.T) {
	validate, translator := newValidator()

	create := NewUsuarioForm()
	create.Name, create.Email = "Admin", "admin@murim.com"
	flds := fieldErrors(t, create.Validate(validate), translator)
	assert.Equal(t, pwdRequiredText, flds["password"])

	update := UsuarioForm{Name: "Admin", Email: "ADMIN@murim.com "}
	assert.NoError(t, update.Validate(validate))
	assert.Equal(t, "admin@murim.com", update.Email)
}

func TestAlunoForm_Validate(t *testing.T) {
	validate, translator := newValidator()

	form := AlunoForm{Nome: "  ", Email: "bia@murim.com", CPF: "123"}
	flds := fieldErrors(t, form.Validate(validate), translator)
	assert.Contains(t, flds, "nome")
	assert.Equal(t, cpfText, flds["cpf"])
	assert.Equal(t, StatusAtivo, form.Status)

	form = AlunoForm{Nome: "Bia", Email: "bia@murim.com", CPF: "123.456.789-09", Telefone: "(11) 99999-0000"}
	assert.NoError(t, form.Validate(validate))
}

func TestPlanoForm_Validate(t *testing.T) {
	validate, _ := newValidator()

	form := PlanoForm{Nome: "Mensal", Preco: 99.9, Duracao: 1, BeneficiosText: "Musculação\n\n  Sauna \n"}
	require.NoError(t, form.Validate(validate))
	assert.Equal(t, []string{"Musculação", "Sauna"}, form.Beneficios)
}

func TestAgendamentoForm_Validate(t *testing.T) {
	validate, translator := newValidator()

	form := AgendamentoForm{PersonalID: 1}
	flds := fieldErrors(t, form.Validate(validate), translator)
	assert.Contains(t, flds, "data")
	assert.Contains(t, flds, "hora")

	form = AgendamentoForm{PersonalID: 1, Data: "2024-05-10", Hora: "07:30", Observacoes: strings.Repeat("a", 10)}
	require.NoError(t, form.Validate(validate))
	assert.Equal(t, "2024-05-10 07:30:00", form.DataHora)
}
