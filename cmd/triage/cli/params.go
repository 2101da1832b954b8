// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

// FlagsFromParams returns a [pflag.FlagSet] bound to the tagged fields
// of params, which must be a pointer to a struct. Invalid params are a
// programming error and panic.
//
//	var params locateParams
//	command := &cli.Command{
//	    Flags: func() *pflag.FlagSet {
//	        return cli.FlagsFromParams("locate", &params)
//	    },
//	    Run: func(args []string) error {
//	        // params is populated here
//	    },
//	}
func FlagsFromParams(name string, params any) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	if err := BindFlags(params, flagSet); err != nil {
		panic(fmt.Sprintf("cli.FlagsFromParams(%q): %v", name, err))
	}
	return flagSet
}

// BindFlags registers a flag on flagSet for every field of *params
// carrying a flag tag:
//
//   - flag:"name" or flag:"name,n" names the long flag and an optional
//     one-letter shorthand.
//   - desc:"..." is the help text.
//   - default:"..." is the default, parsed for the field's type.
//
// Fields may be string or bool. Embedded structs contribute their own
// tagged fields, which is how [JSONOutput] adds --json.
func BindFlags(params any, flagSet *pflag.FlagSet) error {
	value := reflect.ValueOf(params)
	if value.Kind() != reflect.Pointer || value.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("params must be a pointer to a struct, got %T", params)
	}
	return bindStruct(value.Elem(), flagSet)
}

func bindStruct(structValue reflect.Value, flagSet *pflag.FlagSet) error {
	for i := range structValue.NumField() {
		field := structValue.Type().Field(i)
		fieldValue := structValue.Field(i)

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			if err := bindStruct(fieldValue, flagSet); err != nil {
				return fmt.Errorf("embedded %s: %w", field.Name, err)
			}
			continue
		}

		tag, ok := field.Tag.Lookup("flag")
		if !ok || tag == "" {
			continue
		}
		name, shorthand := parseFlagTag(tag)
		description := field.Tag.Get("desc")
		defaultValue := field.Tag.Get("default")

		switch target := fieldValue.Addr().Interface().(type) {
		case *string:
			flagSet.StringVarP(target, name, shorthand, defaultValue, description)
		case *bool:
			enabled := false
			if defaultValue != "" {
				parsed, err := strconv.ParseBool(defaultValue)
				if err != nil {
					return fmt.Errorf("field %s: default for --%s: %w", field.Name, name, err)
				}
				enabled = parsed
			}
			flagSet.BoolVarP(target, name, shorthand, enabled, description)
		default:
			return fmt.Errorf("field %s: unsupported type %s for flag --%s", field.Name, field.Type, name)
		}
	}
	return nil
}

// parseFlagTag splits "name" into ("name", "") and "name,n" into ("name", "n").
func parseFlagTag(tag string) (string, string) {
	name, shorthand, _ := strings.Cut(tag, ",")
	return name, shorthand
}
