// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package gxflag provides flag types for kernelgrad tools.
package gxflag

import (
	"flag"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/gx-org/backend/dtype"
)

type stringList struct {
	list *[]string
}

func (sl *stringList) String() string {
	if sl.list == nil {
		return ""
	}
	return strings.Join(*sl.list, ",")
}

func (sl *stringList) Set(values string) error {
	for _, value := range strings.Split(values, ",") {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		*sl.list = append(*sl.list, value)
	}
	return nil
}

// StringListVar defines a flag for a comma-separated list of strings in a flag set.
func StringListVar(fs *flag.FlagSet, name, doc string) *[]string {
	var list []string
	sList := stringList{&list}
	fs.Var(&sList, name, doc)
	return sList.list
}

// StringList returns a flag to pass a list of string from the command line.
func StringList(name, doc string) *[]string {
	return StringListVar(flag.CommandLine, name, doc)
}

// Floats parses a list of strings into floating point numbers.
func Floats(list []string) ([]float64, error) {
	vals := make([]float64, len(list))
	for i, s := range list {
		val, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, errors.Errorf("cannot parse %q as a number: %v", s, err)
		}
		vals[i] = val
	}
	return vals, nil
}

var dataTypes = []dtype.DataType{
	dtype.Float32,
	dtype.Float64,
}

type dataType struct {
	dt *dtype.DataType
}

func (d *dataType) String() string {
	if d.dt == nil {
		return ""
	}
	return d.dt.String()
}

func (d *dataType) Set(value string) error {
	value = strings.TrimSpace(value)
	var names []string
	for _, dt := range dataTypes {
		if dt.String() == value {
			*d.dt = dt
			return nil
		}
		names = append(names, dt.String())
	}
	return errors.Errorf("invalid data type %q: want one of %s", value, strings.Join(names, ", "))
}

// DataTypeVar defines a flag for a floating point data type in a flag set.
func DataTypeVar(fs *flag.FlagSet, name string, def dtype.DataType, doc string) *dtype.DataType {
	dt := def
	fs.Var(&dataType{&dt}, name, doc)
	return &dt
}

// DataType returns a flag to pass a floating point data type from the command line.
func DataType(name string, def dtype.DataType, doc string) *dtype.DataType {
	return DataTypeVar(flag.CommandLine, name, def, doc)
}
