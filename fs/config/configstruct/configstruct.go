// Package configstruct parses unstructured maps into structures
package configstruct

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/TheHighestBit/CoDriver/fs/config/configmap"
	"github.com/pkg/errors"
)

var matchUpper = regexp.MustCompile("([A-Z]+)")

// camelToSnake converts CamelCase to snake_case
func camelToSnake(in string) string {
	out := matchUpper.ReplaceAllString(in, "_$1")
	return strings.Trim(strings.ToLower(out), "_")
}

// StringToInterface turns in into an interface{} the same type as def
//
// Anything other than a string is parsed with fmt.Sscanln so the
// types used must implement fmt.Scanner.
func StringToInterface(def interface{}, in string) (newValue interface{}, err error) {
	typ := reflect.TypeOf(def)
	if typ.Kind() == reflect.String && typ.Name() == "string" {
		return in, nil
	}
	o := reflect.New(typ)
	n, err := fmt.Sscanln(in, o.Interface())
	if err != nil {
		return newValue, errors.Wrapf(err, "parsing %q as %T failed", in, def)
	}
	if n != 1 {
		return newValue, errors.New("no items parsed")
	}
	return o.Elem().Interface(), nil
}

// Item describes a single entry in the options structure
type Item struct {
	Name  string // snake_case
	Field string // CamelCase
	Num   int    // number of the field in the struct
	Value interface{}
}

// Items parses the opt struct and returns a slice of Item objects.
//
// opt must be a pointer to a struct with exported fields. The config
// name comes from a `config:"name"` tag or else the field name in
// snake_case.
func Items(opt interface{}) (items []Item, err error) {
	def := reflect.ValueOf(opt)
	if def.Kind() != reflect.Ptr {
		return nil, errors.New("argument must be a pointer")
	}
	def = def.Elem()
	if def.Kind() != reflect.Struct {
		return nil, errors.New("argument must be a pointer to a struct")
	}
	defType := def.Type()
	for i := 0; i < def.NumField(); i++ {
		field := defType.Field(i)
		configName, ok := field.Tag.Lookup("config")
		if !ok {
			configName = camelToSnake(field.Name)
		}
		items = append(items, Item{
			Name:  configName,
			Field: field.Name,
			Num:   i,
			Value: def.Field(i).Interface(),
		})
	}
	return items, nil
}

// Set looks up each field of opt in config and overwrites the
// current value with anything found. Fields not found keep their
// value so callers set defaults before calling Set.
//
// An empty string is treated as unset for types which can't parse it.
func Set(config configmap.Getter, opt interface{}) (err error) {
	items, err := Items(opt)
	if err != nil {
		return err
	}
	defStruct := reflect.ValueOf(opt).Elem()
	for _, item := range items {
		configValue, ok := config.Get(item.Name)
		if !ok {
			continue
		}
		newValue, err := StringToInterface(item.Value, configValue)
		if err != nil {
			if configValue == "" {
				continue
			}
			return errors.Wrapf(err, "couldn't parse config item %q = %q as %T", item.Name, configValue, item.Value)
		}
		defStruct.Field(item.Num).Set(reflect.ValueOf(newValue))
	}
	return nil
}
