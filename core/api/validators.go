package api

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/matkerbino/murim/core"
)

var (
	cpfTag   = "cpf"
	cpfText  = "CPF inválido"
	cpfRegex = regexp.MustCompile(`^\d{3}\.?\d{3}\.?\d{3}-?\d{2}$`)

	// contact form
	MensagemMinLen  = 10
	msgMinLenTag    = "msgminlen"
	msgMinLenText   = fmt.Sprintf("A mensagem deve ter pelo menos %d caracteres", MensagemMinLen)
	pwdRequiredTag  = "pwdrequired"
	pwdRequiredText = "a senha é obrigatória"

	// password policy
	pwdMinLen     = 8
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("a senha deve ter pelo menos %d caracteres", pwdMinLen)

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "a senha não pode conter espaços"

	pwdNotAllNumTag  = "pwdnotallnum"
	pwdNotAllNumText = "a senha não pode ser inteiramente numérica"

	pwdComplexityTag  = "pwdcplx"
	pwdComplexityText = "a senha deve conter ao menos 1 letra maiúscula, 1 letra minúscula e 1 dígito"

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "a senha é muito parecida com seus dados pessoais"
)

// InitValidators registers the form validators. core.InitValidators must run first.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(cpfTag, cpfValidation)
	core.RegisterCustomTranslation(validate, translator, cpfTag, cpfText)

	validate.RegisterStructValidation(contatoStructValidation, ContatoForm{})
	core.RegisterCustomTranslation(validate, translator, msgMinLenTag, msgMinLenText)

	validate.RegisterStructValidation(passwordStructValidation, RegisterForm{}, UsuarioForm{})
	core.RegisterCustomTranslation(validate, translator, pwdRequiredTag, pwdRequiredText)
	core.RegisterCustomTranslation(validate, translator, pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(validate, translator, pwdNoSpaceTag, pwdNoSpaceText)
	core.RegisterCustomTranslation(validate, translator, pwdNotAllNumTag, pwdNotAllNumText)
	core.RegisterCustomTranslation(validate, translator, pwdComplexityTag, pwdComplexityText)
	core.RegisterCustomTranslation(validate, translator, pwdAttrSimTag, pwdAttrSimText)
}

func cpfValidation(fl validator.FieldLevel) bool {
	return cpfRegex.MatchString(fl.Field().String())
}

// contatoStructValidation enforces the minimum message length once a message is given.
func contatoStructValidation(sl validator.StructLevel) {
	f, ok := sl.Current().Interface().(ContatoForm)
	if !ok {
		return
	}
	if n := utf8.RuneCountInString(f.Mensagem); n > 0 && n < MensagemMinLen {
		sl.ReportError(f.Mensagem, "mensagem", "Mensagem", msgMinLenTag, "")
	}
}

// passwordStructValidation applies the password policy on RegisterForm and UsuarioForm.
func passwordStructValidation(sl validator.StructLevel) {
	switch f := sl.Current().Interface().(type) {
	case RegisterForm:
		if f.Password != "" {
			validatePassword(f.Password, f.Name, f.Email, sl)
		}
	case UsuarioForm:
		if f.Password == "" {
			if f.requirePassword {
				sl.ReportError(f.Password, "password", "Password", pwdRequiredTag, "")
			}
			return
		}
		validatePassword(f.Password, f.Name, f.Email, sl)
	}
}

// validatePassword applies the password policy to provided password:
// - minLen: 8
// - no whitespace
// - no all numeric
// - complexity: 1 upper, 1 lower, 1 digit
// - no user attrs similarity
func validatePassword(pwd, name, email string, sl validator.StructLevel) {
	reportErr := func(tag string) {
		sl.ReportError(pwd, "password", "Password", tag, "")
	}

	var (
		digitCount         int
		hasUpper, hasLower bool
	)

	pwdLen := utf8.RuneCountInString(pwd)
	if pwdLen < pwdMinLen {
		reportErr(pwdMinLenTag)
		return
	}
	for _, char := range pwd {
		if unicode.IsSpace(char) {
			reportErr(pwdNoSpaceTag)
			return
		}
		if unicode.IsDigit(char) {
			digitCount++
		}
		if !hasUpper && unicode.IsUpper(char) {
			hasUpper = true
		}
		if !hasLower && unicode.IsLower(char) {
			hasLower = true
		}
	}

	if digitCount == pwdLen {
		reportErr(pwdNotAllNumTag)
		return
	}
	if !(hasUpper && hasLower && digitCount > 0) {
		reportErr(pwdComplexityTag)
		return
	}

	getRatio := func(pass, usrAttr string) float64 {
		if usrAttr == "" {
			return 0
		}
		return difflib.NewMatcher(strings.Split(strings.ToLower(pass), ""), strings.Split(strings.ToLower(usrAttr), "")).QuickRatio()
	}
	local := email
	if i := strings.Index(email, "@"); i > 0 {
		local = email[:i]
	}
	if getRatio(pwd, name) >= pwdMaxSim || getRatio(pwd, local) >= pwdMaxSim {
		reportErr(pwdAttrSimTag)
	}
}
