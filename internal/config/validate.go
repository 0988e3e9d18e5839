package config

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"blastfasta/internal/errs"
	"blastfasta/internal/search"
)

var (
	vOnce  sync.Once
	vInst  *validator.Validate
	vTrans ut.Translator
)

// validate returns the shared validator: yaml tag names in messages, english
// translations and the custom "database" tag.
func validate() (*validator.Validate, ut.Translator) {
	vOnce.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		trans, _ := uni.GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("yaml")
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			if tag == "" || tag == "-" {
				return fld.Name
			}
			return tag
		})
		_ = en_translations.RegisterDefaultTranslations(v, trans)

		_ = v.RegisterValidation("database", func(fl validator.FieldLevel) bool {
			_, err := search.ParseDatabase(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterTranslation("database", trans,
			func(ut ut.Translator) error {
				return ut.Add("database", "{0} must be one of uniref100, uniref90, uniref50, uniprotkb, swissprot, trembl", true)
			},
			func(ut ut.Translator, fe validator.FieldError) string {
				t, _ := ut.T("database", fe.Field())
				return t
			})

		vInst, vTrans = v, trans
	})
	return vInst, vTrans
}

// Validate checks cfg and reports every violated rule in one KindConfig error.
func Validate(cfg Config) error {
	v, trans := validate()
	err := v.Struct(cfg)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return errs.Wrap(err, errs.KindConfig, "invalid configuration")
	}
	msgs := make([]string, 0, len(ves))
	for _, fe := range ves {
		msgs = append(msgs, fe.Translate(trans))
	}
	return errs.New(errs.KindConfig, "invalid configuration: "+strings.Join(msgs, "; "))
}
