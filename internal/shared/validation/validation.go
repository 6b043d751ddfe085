// Package validation envolve o go-playground/validator e converte a primeira
// falha em uma mensagem para o usuário.
//
// Mensagens customizadas vêm da tag `msg`, no formato "tag=mensagem;tag=mensagem".
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Error é uma falha de validação com mensagem pronta para exibição
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	once sync.Once
	v    *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
	})
	return v
}

// Struct valida s e retorna *Error com a primeira falha, ou nil
func Struct(s any) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	return &Error{Field: fe.Field(), Message: message(s, fe)}
}

// message procura a tag msg do campo que falhou; sem ela usa um texto padrão
func message(s any, fe validator.FieldError) string {
	if sf, ok := lookupField(reflect.TypeOf(s), fe.StructNamespace()); ok {
		for _, part := range strings.Split(sf.Tag.Get("msg"), ";") {
			tag, text, found := strings.Cut(part, "=")
			if found && strings.TrimSpace(tag) == fe.Tag() {
				return strings.TrimSpace(text)
			}
		}
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}

// lookupField segue o namespace "Tipo.Campo.SubCampo" até o StructField
func lookupField(t reflect.Type, namespace string) (reflect.StructField, bool) {
	parts := strings.Split(namespace, ".")
	if len(parts) < 2 {
		return reflect.StructField{}, false
	}
	var sf reflect.StructField
	for _, name := range parts[1:] {
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		if t.Kind() != reflect.Struct {
			return reflect.StructField{}, false
		}
		if i := strings.IndexByte(name, '['); i >= 0 {
			name = name[:i]
		}
		f, ok := t.FieldByName(name)
		if !ok {
			return reflect.StructField{}, false
		}
		sf, t = f, f.Type
	}
	return sf, true
}
