package core

import (
	"reflect"
	"regexp"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

const requiredText = "this field is required"

var identifierRegex = regexp.MustCompile(`^\w+$`)

// globalRules are the tags shared by every domain package.
var globalRules = []struct {
	tag  string
	fn   validator.Func // nil for built-in tags whose message is replaced
	text string
}{
	{"alphanum_", func(fl validator.FieldLevel) bool { return identifierRegex.MatchString(fl.Field().String()) },
		"only alphanumeric characters and underscores are allowed"},
	{"notblank", notBlank, "this field cannot be blank"},
	{"required", nil, requiredText},
	{"required_with", nil, requiredText},
}

// InitValidators registers the english translations, the shared tags, and reports fields by their json name.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)
	validate.RegisterTagNameFunc(jsonFieldName)

	for _, r := range globalRules {
		if r.fn != nil {
			_ = validate.RegisterValidation(r.tag, r.fn)
		}
		RegisterCustomTranslation(validate, translator, r.tag, r.text, r.fn == nil)
	}
}

// RegisterCustomTranslation sets the message of tag. Pass override to replace a default translation.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	replace := len(override) > 0 && override[0]
	register := func(t ut.Translator) error { return t.Add(tag, text, replace) }
	translate := func(t ut.Translator, fe validator.FieldError) string {
		msg, _ := t.T(tag, fe.Field())
		return msg
	}
	_ = validate.RegisterTranslation(tag, translator, register, translate)
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

// notBlank rejects whitespace-only strings. Other kinds pass.
func notBlank(fl validator.FieldLevel) bool {
	f := fl.Field()
	return f.Kind() != reflect.String || strings.TrimSpace(f.String()) != ""
}
